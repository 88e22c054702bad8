package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/chatpolls/internal/domain"
)

const (
	ownersKey    = "polls:owners"
	ownerKeyBase = "polls:owner:"
)

func ownerKey(ownerID uuid.UUID) string {
	return ownerKeyBase + ownerID.String()
}

// DocumentStore keeps one string key per owner plus a set of known owners.
type DocumentStore struct {
	rdb *goredis.Client
}

var _ domain.DocumentStore = (*DocumentStore)(nil)

func NewDocumentStore(rdb *goredis.Client) *DocumentStore {
	return &DocumentStore{rdb: rdb}
}

func (s *DocumentStore) Owners(ctx context.Context) ([]uuid.UUID, error) {
	members, err := s.rdb.SMembers(ctx, ownersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}

	owners := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			slog.WarnContext(ctx, "Ignoring malformed owner id in redis", "owner_id", m)
			continue
		}
		owners = append(owners, id)
	}
	return owners, nil
}

func (s *DocumentStore) Load(ctx context.Context, ownerID uuid.UUID) ([]byte, error) {
	data, err := s.rdb.Get(ctx, ownerKey(ownerID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load owner %s: %w", ownerID, err)
	}
	return data, nil
}

// Save writes the document and registers the owner in one transaction.
func (s *DocumentStore) Save(ctx context.Context, ownerID uuid.UUID, document []byte) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, ownerKey(ownerID), document, 0)
	pipe.SAdd(ctx, ownersKey, ownerID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save owner %s: %w", ownerID, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, ownerID uuid.UUID) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, ownerKey(ownerID))
	pipe.SRem(ctx, ownersKey, ownerID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete owner %s: %w", ownerID, err)
	}
	return nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
