// Package filestore keeps poll documents as <owner>.json files in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pscheid92/chatpolls/internal/domain"
)

const ext = ".json"

type DocumentStore struct {
	dir string
}

var _ domain.DocumentStore = (*DocumentStore)(nil)

// New creates dir if needed.
func New(dir string) (*DocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &DocumentStore{dir: dir}, nil
}

func (s *DocumentStore) path(ownerID uuid.UUID) string {
	return filepath.Join(s.dir, ownerID.String()+ext)
}

func (s *DocumentStore) Owners(ctx context.Context) ([]uuid.UUID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}

	owners := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, ext))
		if err != nil {
			slog.WarnContext(ctx, "Ignoring file with non-uuid name", "file", name)
			continue
		}
		owners = append(owners, id)
	}

	slices.SortFunc(owners, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	return owners, nil
}

func (s *DocumentStore) Load(_ context.Context, ownerID uuid.UUID) ([]byte, error) {
	data, err := os.ReadFile(s.path(ownerID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read owner %s: %w", ownerID, err)
	}
	return data, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers never observe a partial document.
func (s *DocumentStore) Save(_ context.Context, ownerID uuid.UUID, document []byte) error {
	tmp, err := os.CreateTemp(s.dir, ownerID.String()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(document); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write owner %s: %w", ownerID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close owner %s: %w", ownerID, err)
	}
	if err := os.Rename(tmpName, s.path(ownerID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace owner %s: %w", ownerID, err)
	}
	return nil
}

func (s *DocumentStore) Delete(_ context.Context, ownerID uuid.UUID) error {
	err := os.Remove(s.path(ownerID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete owner %s: %w", ownerID, err)
	}
	return nil
}

// Ping checks that the data directory is still there.
func (s *DocumentStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("data dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", s.dir)
	}
	return nil
}
