package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/chatpolls/internal/adapter/postgres/sqlcgen"
	"github.com/pscheid92/chatpolls/internal/domain"
)

// DocumentStore keeps one jsonb row per owner.
type DocumentStore struct {
	pool *pgxpool.Pool
	q    *sqlcgen.Queries
}

var _ domain.DocumentStore = (*DocumentStore)(nil)

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool, q: sqlcgen.New(pool)}
}

func (s *DocumentStore) Owners(ctx context.Context) ([]uuid.UUID, error) {
	owners, err := s.q.ListPollDocumentOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return owners, nil
}

func (s *DocumentStore) Load(ctx context.Context, ownerID uuid.UUID) ([]byte, error) {
	doc, err := s.q.GetPollDocument(ctx, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load owner %s: %w", ownerID, err)
	}
	return doc, nil
}

func (s *DocumentStore) Save(ctx context.Context, ownerID uuid.UUID, document []byte) error {
	err := s.q.UpsertPollDocument(ctx, sqlcgen.UpsertPollDocumentParams{
		OwnerID:  ownerID,
		Document: document,
	})
	if err != nil {
		return fmt.Errorf("failed to save owner %s: %w", ownerID, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.q.DeletePollDocument(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to delete owner %s: %w", ownerID, err)
	}
	return nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
