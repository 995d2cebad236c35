package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const RoleExpert = "expert"

// defaults applied when an expert record is materialized on first use.
const (
	defaultSpecialty = "General Counseling"
	defaultStatus    = "online"
)

type PgDirectory struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgDirectory(pool *pgxpool.Pool, logger *zap.Logger) *PgDirectory {
	return &PgDirectory{pool: pool, logger: logger}
}

func (d *PgDirectory) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (d *PgDirectory) ExpertUserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = $2)
	`, userID, RoleExpert).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check expert user exists: %w", err)
	}
	return exists, nil
}

// ResolveExpertRecordID maps an expert user to their expert record,
// creating a minimal record on first use so that scheduling never has to
// fail just because the profile was never filled in.
func (d *PgDirectory) ResolveExpertRecordID(ctx context.Context, expertUserID uuid.UUID) (uuid.UUID, error) {
	var recordID uuid.UUID
	err := d.pool.QueryRow(ctx, `
		SELECT id FROM experts WHERE user_id = $1
	`, expertUserID).Scan(&recordID)
	if err == nil {
		return recordID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("resolve expert record: %w", err)
	}

	var username, nickname, role string
	err = d.pool.QueryRow(ctx, `
		SELECT username, COALESCE(nickname, ''), role FROM users WHERE id = $1
	`, expertUserID).Scan(&username, &nickname, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("load user for expert record: %w", err)
	}
	if role != RoleExpert {
		return uuid.Nil, ErrNotAnExpert
	}

	name := nickname
	if name == "" {
		name = username
	}

	recordID = uuid.New()
	_, err = d.pool.Exec(ctx, `
		INSERT INTO experts (id, user_id, name, specialty, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (user_id) DO NOTHING
	`, recordID, expertUserID, name, defaultSpecialty, defaultStatus)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create expert record: %w", err)
	}

	// A concurrent request may have won the insert; read back the winner.
	err = d.pool.QueryRow(ctx, `
		SELECT id FROM experts WHERE user_id = $1
	`, expertUserID).Scan(&recordID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reload expert record: %w", err)
	}

	d.logger.Info("created expert record on first use",
		zap.String("expert_user_id", expertUserID.String()),
		zap.String("expert_record_id", recordID.String()))

	return recordID, nil
}

func (d *PgDirectory) UserName(ctx context.Context, userID uuid.UUID) (string, error) {
	var username, nickname string
	err := d.pool.QueryRow(ctx, `
		SELECT username, COALESCE(nickname, '') FROM users WHERE id = $1
	`, userID).Scan(&username, &nickname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("load user name: %w", err)
	}
	if nickname != "" {
		return nickname, nil
	}
	return username, nil
}
