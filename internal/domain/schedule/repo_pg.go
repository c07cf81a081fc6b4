package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type ruleRepoPG struct{ pool *pgxpool.Pool }

func NewRuleRepoPG(pool *pgxpool.Pool) RuleRepository { return &ruleRepoPG{pool: pool} }

func (r *ruleRepoPG) conn(ctx context.Context) queryable {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const ruleCols = `id, doctor_id, kind, day_of_week, start_date, end_date, is_available,
	time_slots, slot_duration, buffer_time, max_appointments, reason, notes,
	created_at, updated_at`

func (r *ruleRepoPG) scanRule(row pgx.Row) (*Rule, error) {
	var rl Rule
	err := row.Scan(&rl.ID, &rl.DoctorID, &rl.Kind, &rl.DayOfWeek, &rl.StartDate, &rl.EndDate,
		&rl.IsAvailable, &rl.TimeSlots, &rl.SlotDuration, &rl.BufferTime, &rl.MaxAppointments,
		&rl.Reason, &rl.Notes, &rl.CreatedAt, &rl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rl, err
}

func (r *ruleRepoPG) Create(ctx context.Context, rl *Rule) error {
	rl.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO schedule_rule (id, doctor_id, kind, day_of_week, start_date, end_date,
			is_available, time_slots, slot_duration, buffer_time, max_appointments, reason, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		rl.ID, rl.DoctorID, rl.Kind, rl.DayOfWeek, rl.StartDate, rl.EndDate,
		rl.IsAvailable, rl.TimeSlots, rl.SlotDuration, rl.BufferTime, rl.MaxAppointments,
		rl.Reason, rl.Notes).Scan(&rl.CreatedAt, &rl.UpdatedAt)
}

func (r *ruleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return r.scanRule(r.conn(ctx).QueryRow(ctx, `SELECT `+ruleCols+` FROM schedule_rule WHERE id = $1`, id))
}

func (r *ruleRepoPG) Update(ctx context.Context, rl *Rule) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedule_rule SET day_of_week=$2, start_date=$3, end_date=$4, is_available=$5,
			time_slots=$6, slot_duration=$7, buffer_time=$8, max_appointments=$9,
			reason=$10, notes=$11, updated_at=NOW()
		WHERE id = $1`,
		rl.ID, rl.DayOfWeek, rl.StartDate, rl.EndDate, rl.IsAvailable,
		rl.TimeSlots, rl.SlotDuration, rl.BufferTime, rl.MaxAppointments,
		rl.Reason, rl.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ruleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule_rule WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ruleRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Rule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM schedule_rule WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+ruleCols+` FROM schedule_rule WHERE doctor_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Rule
	for rows.Next() {
		rl, err := r.scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rl)
	}
	return items, total, nil
}

func (r *ruleRepoPG) ListForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Rule, error) {
	day := int(date.Weekday())
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+ruleCols+` FROM schedule_rule
		WHERE doctor_id = $1 AND (
			(kind = 'weekly_recurring' AND day_of_week = $2)
			OR (kind = 'specific_date' AND start_date = $3::date)
			OR (kind = 'exception' AND start_date <= $3::date AND COALESCE(end_date, start_date) >= $3::date))
		ORDER BY created_at DESC, id DESC`,
		doctorID, day, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Rule
	for rows.Next() {
		rl, err := r.scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rl)
	}
	return items, rows.Err()
}

func (r *ruleRepoPG) DeleteWeeklyByDay(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM schedule_rule WHERE doctor_id = $1 AND kind = 'weekly_recurring' AND day_of_week = $2`,
		doctorID, dayOfWeek)
	return err
}

func (r *ruleRepoPG) DeleteWeekly(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM schedule_rule WHERE doctor_id = $1 AND kind = 'weekly_recurring'`,
		doctorID)
	return err
}
