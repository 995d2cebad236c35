package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `
	id, requester_id, expert_user_id, expert_record_id,
	start_time, duration_minutes, status, description, contact_info,
	expert_reply, rating_text, rating, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var description, contactInfo *string

	err := row.Scan(
		&a.ID,
		&a.RequesterID,
		&a.ExpertUserID,
		&a.ExpertRecordID,
		&a.StartTime,
		&a.DurationMinutes,
		&a.Status,
		&description,
		&contactInfo,
		&a.ExpertReply,
		&a.RatingText,
		&a.Rating,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if description != nil {
		a.Description = *description
	}
	if contactInfo != nil {
		a.ContactInfo = *contactInfo
	}
	return &a, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListActiveByExpertUser(ctx context.Context, expertUserID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE expert_user_id = $1
		  AND status = ANY($2)
	`, expertUserID, statusStrings(ActiveStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := appt.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, requester_id, expert_user_id, expert_record_id,
			start_time, duration_minutes, status, description, contact_info,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.RequesterID, appt.ExpertUserID, appt.ExpertRecordID,
		appt.StartTime, appt.DurationMinutes, appt.Status,
		nilIfEmpty(appt.Description), nilIfEmpty(appt.ContactInfo))

	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, reply *string, from ...Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    expert_reply = COALESCE($3, expert_reply),
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($4)
		RETURNING `+appointmentColumns+`
	`, id, to, reply, statusStrings(from))

	return scanAppointment(row)
}

func (r *PgRepository) SetRating(ctx context.Context, id uuid.UUID, ratingText string, rating int) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET rating_text = $2,
		    rating = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, ratingText, rating)

	return scanAppointment(row)
}

func (r *PgRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, requesterID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListByExpertUser(ctx context.Context, expertUserID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE expert_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, expertUserID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) CountByExpertUserAndStatus(ctx context.Context, expertUserID uuid.UUID, status Status) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM appointments
		WHERE expert_user_id = $1 AND status = $2
	`, expertUserID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return count, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
