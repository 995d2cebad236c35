package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var blob []byte

	err := row.Scan(
		&rec.ID,
		&rec.ExpertRecordID,
		&blob,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	rec.Grid = ParseGrid(blob)
	return &rec, nil
}

func (r *PgRepository) GetByExpertRecord(ctx context.Context, expertRecordID uuid.UUID) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, expert_record_id, grid, updated_at
		FROM expert_schedules
		WHERE expert_record_id = $1
	`, expertRecordID)
	return scanRecord(row)
}

func (r *PgRepository) Create(ctx context.Context, expertRecordID uuid.UUID, grid *Grid) (*Record, error) {
	blob, err := grid.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize grid: %w", err)
	}

	id := uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO expert_schedules (id, expert_record_id, grid, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (expert_record_id) DO UPDATE SET updated_at = expert_schedules.updated_at
		RETURNING id, expert_record_id, grid, updated_at
	`, id, expertRecordID, blob)

	return scanRecord(row)
}

func (r *PgRepository) Save(ctx context.Context, rec *Record) error {
	blob, err := rec.Grid.Serialize()
	if err != nil {
		return fmt.Errorf("serialize grid: %w", err)
	}

	// updated_at is the CAS token: a row saved by someone else since this
	// record was loaded no longer matches, and the write is refused instead
	// of erasing their cells.
	err = r.pool.QueryRow(ctx, `
		UPDATE expert_schedules
		SET grid = $2,
		    updated_at = clock_timestamp()
		WHERE id = $1
		  AND updated_at = $3
		RETURNING updated_at
	`, rec.ID, blob, rec.UpdatedAt).Scan(&rec.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("save schedule: %w", err)
	}

	var exists bool
	if chkErr := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM expert_schedules WHERE id = $1)
	`, rec.ID).Scan(&exists); chkErr != nil {
		return fmt.Errorf("save schedule: %w", chkErr)
	}
	if exists {
		return ErrStaleSchedule
	}
	return ErrScheduleNotFound
}

func (r *PgRepository) ListExpertRecordIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT expert_record_id FROM expert_schedules
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
