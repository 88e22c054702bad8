package app

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/pscheid92/chatpolls/internal/domain"
)

// --- Mock document store ---

type mockStore struct {
	mu      sync.Mutex
	docs    map[uuid.UUID][]byte
	saves   int
	deletes int
	failErr error
}

func newMockStore() *mockStore {
	return &mockStore{docs: make(map[uuid.UUID][]byte)}
}

func (m *mockStore) Owners(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	ids := make([]uuid.UUID, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockStore) Load(_ context.Context, ownerID uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[ownerID]
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}
	return doc, nil
}

func (m *mockStore) Save(_ context.Context, ownerID uuid.UUID, document []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.docs[ownerID] = append([]byte(nil), document...)
	return nil
}

func (m *mockStore) Delete(_ context.Context, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.deletes++
	delete(m.docs, ownerID)
	return nil
}

func (m *mockStore) fail(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

func (m *mockStore) getSaves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *mockStore) getDeletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

func (m *mockStore) hasOwner(ownerID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[ownerID]
	return ok
}

var errStoreDown = errors.New("store down")

// --- Mock recipients ---

type mockRecipient struct {
	id   uuid.UUID
	name string

	mu    sync.Mutex
	items map[string]int
}

func (r *mockRecipient) ID() uuid.UUID                        { return r.id }
func (r *mockRecipient) Name() string                         { return r.name }
func (r *mockRecipient) PlaceholderValues() map[string]string { return nil }

func (r *mockRecipient) GiveItem(_ context.Context, material string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[material] += amount
	return nil
}

func (r *mockRecipient) GiveExperience(context.Context, int) error      { return nil }
func (r *mockRecipient) DepositCurrency(context.Context, float64) error { return nil }
func (r *mockRecipient) RunCommand(context.Context, string, bool) error { return nil }

func (r *mockRecipient) getItems(material string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[material]
}

type mockResolver struct {
	mu         sync.Mutex
	recipients map[uuid.UUID]*mockRecipient
}

func newMockResolver() *mockResolver {
	return &mockResolver{recipients: make(map[uuid.UUID]*mockRecipient)}
}

func (m *mockResolver) Resolve(_ context.Context, voterID uuid.UUID) (domain.Recipient, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipients[voterID]
	if !ok {
		return nil, false
	}
	return r, true
}

func (m *mockResolver) online(name string) *mockRecipient {
	r := &mockRecipient{id: uuid.New(), name: name, items: make(map[string]int)}
	m.mu.Lock()
	m.recipients[r.id] = r
	m.mu.Unlock()
	return r
}
