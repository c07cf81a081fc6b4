package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func intPtr(i int) *int { return &i }

func TestRuleValidate(t *testing.T) {
	doctor := uuid.New()
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{
			name: "valid weekly rule",
			rule: Rule{
				DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1),
				IsAvailable: true,
				TimeSlots:   []TimeWindow{{StartTime: "09:00", EndTime: "17:00"}},
				SlotDuration: 30, MaxAppointments: 16,
			},
		},
		{
			name: "valid unavailable weekly rule without windows",
			rule: Rule{DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(0)},
		},
		{
			name:    "unknown kind",
			rule:    Rule{DoctorID: doctor, Kind: "monthly"},
			wantErr: true,
		},
		{
			name: "missing doctor",
			rule: Rule{Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1)},
			wantErr: true,
		},
		{
			name:    "weekly without day_of_week",
			rule:    Rule{DoctorID: doctor, Kind: KindWeeklyRecurring},
			wantErr: true,
		},
		{
			name:    "weekly with day_of_week out of range",
			rule:    Rule{DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(7)},
			wantErr: true,
		},
		{
			name:    "specific date without start_date",
			rule:    Rule{DoctorID: doctor, Kind: KindSpecificDate},
			wantErr: true,
		},
		{
			name: "exception end before start",
			rule: func() Rule {
				end := monday.AddDate(0, 0, -1)
				return Rule{DoctorID: doctor, Kind: KindException, StartDate: &monday, EndDate: &end}
			}(),
			wantErr: true,
		},
		{
			name: "available rule without windows",
			rule: Rule{
				DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1),
				IsAvailable: true, SlotDuration: 30, MaxAppointments: 10,
			},
			wantErr: true,
		},
		{
			name: "available rule with zero slot_duration",
			rule: Rule{
				DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1),
				IsAvailable: true,
				TimeSlots:   []TimeWindow{{StartTime: "09:00", EndTime: "17:00"}},
			},
			wantErr: true,
		},
		{
			name: "available rule with negative buffer",
			rule: Rule{
				DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1),
				IsAvailable: true,
				TimeSlots:   []TimeWindow{{StartTime: "09:00", EndTime: "17:00"}},
				SlotDuration: 30, BufferTime: -1, MaxAppointments: 10,
			},
			wantErr: true,
		},
		{
			name: "inverted window",
			rule: Rule{
				DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1),
				IsAvailable: true,
				TimeSlots:   []TimeWindow{{StartTime: "17:00", EndTime: "09:00"}},
				SlotDuration: 30, MaxAppointments: 10,
			},
			wantErr: true,
		},
		{
			name: "overlapping windows",
			rule: Rule{
				DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1),
				IsAvailable: true,
				TimeSlots: []TimeWindow{
					{StartTime: "09:00", EndTime: "12:00"},
					{StartTime: "11:00", EndTime: "14:00"},
				},
				SlotDuration: 30, MaxAppointments: 10,
			},
			wantErr: true,
		},
		{
			name: "malformed clock value",
			rule: Rule{
				DoctorID: doctor, Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1),
				IsAvailable: true,
				TimeSlots:   []TimeWindow{{StartTime: "9am", EndTime: "5pm"}},
				SlotDuration: 30, MaxAppointments: 10,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRuleAppliesTo(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	weekly := Rule{Kind: KindWeeklyRecurring, DayOfWeek: intPtr(1)}
	if !weekly.AppliesTo(monday) {
		t.Error("weekly rule for monday should apply to a monday")
	}
	if weekly.AppliesTo(tuesday) {
		t.Error("weekly rule for monday should not apply to a tuesday")
	}

	specific := Rule{Kind: KindSpecificDate, StartDate: &monday}
	if !specific.AppliesTo(monday) || specific.AppliesTo(tuesday) {
		t.Error("specific date rule should apply only to its date")
	}

	end := monday.AddDate(0, 0, 3)
	exc := Rule{Kind: KindException, StartDate: &monday, EndDate: &end}
	if !exc.AppliesTo(monday) || !exc.AppliesTo(end) {
		t.Error("exception should apply to its whole range")
	}
	if exc.AppliesTo(end.AddDate(0, 0, 1)) {
		t.Error("exception should not apply past its end date")
	}
}

func TestTimeWindowMinutes(t *testing.T) {
	start, end, err := TimeWindow{StartTime: "09:30", EndTime: "17:00"}.Minutes()
	if err != nil {
		t.Fatalf("Minutes: %v", err)
	}
	if start != 9*60+30 || end != 17*60 {
		t.Errorf("got %d-%d", start, end)
	}

	if _, _, err := (TimeWindow{StartTime: "25:00", EndTime: "26:00"}).Minutes(); err == nil {
		t.Error("expected error for out of range clock")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-02")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Weekday() != time.Monday {
		t.Errorf("2026-03-02 should be a monday, got %v", d.Weekday())
	}

	if _, err := ParseDate("03/02/2026"); err == nil {
		t.Error("expected error for non ISO date")
	}
}
