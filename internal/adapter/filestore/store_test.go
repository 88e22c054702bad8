package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/chatpolls/internal/domain"
)

func newTestStore(t *testing.T) (*DocumentStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "polls")
	store, err := New(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNew_CreatesDirectory(t *testing.T) {
	_, dir := newTestStore(t)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveLoad(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, store.Save(ctx, owner, []byte(`{"123456":{}}`)))

	data, err := store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, `{"123456":{}}`, string(data))

	_, err = os.Stat(filepath.Join(dir, owner.String()+".json"))
	assert.NoError(t, err)
}

func TestSave_Overwrites(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, store.Save(ctx, owner, []byte(`{"a":1}`)))
	require.NoError(t, store.Save(ctx, owner, []byte(`{}`)))

	data, err := store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestLoad_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrOwnerNotFound)
}

func TestOwners_SkipsForeignFiles(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, store.Save(ctx, a, []byte(`{}`)))
	require.NoError(t, store.Save(ctx, b, []byte(`{}`)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backup.json"), []byte("{}"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, uuid.NewString()+".json"), 0o755))

	owners, err := store.Owners(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, owners)
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, store.Save(ctx, owner, []byte(`{}`)))
	require.NoError(t, store.Delete(ctx, owner))
	require.NoError(t, store.Delete(ctx, owner), "deleting twice is not an error")

	_, err := store.Load(ctx, owner)
	assert.ErrorIs(t, err, domain.ErrOwnerNotFound)
}

func TestPing(t *testing.T) {
	store, dir := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, store.Ping(context.Background()))
}
