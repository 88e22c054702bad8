package domain

import (
	"context"

	"github.com/google/uuid"
)

// DocumentStore persists one opaque document per poll owner.
// Load returns ErrOwnerNotFound when no unit exists for the owner.
type DocumentStore interface {
	Owners(ctx context.Context) ([]uuid.UUID, error)
	Load(ctx context.Context, ownerID uuid.UUID) ([]byte, error)
	Save(ctx context.Context, ownerID uuid.UUID, document []byte) error
	Delete(ctx context.Context, ownerID uuid.UUID) error
}
