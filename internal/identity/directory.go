package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNotAnExpert  = errors.New("user is not an expert")
)

// Directory is the narrow view of the account system this core needs:
// existence checks and the user-id to expert-record-id mapping. Experts are
// addressed by a record id distinct from their user id, and the record is
// created on first use.
type Directory interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	ExpertUserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	ResolveExpertRecordID(ctx context.Context, expertUserID uuid.UUID) (uuid.UUID, error)
	UserName(ctx context.Context, userID uuid.UUID) (string, error)
}
