package poll

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/chatpolls/internal/domain"
)

const (
	minPollID = 100000
	maxPollID = 999999 // exclusive

	maxIDAttempts = 32
)

// IDGenerator returns a candidate poll id. Collisions are retried by the
// registry.
type IDGenerator func() string

// RandomID draws a 6-digit id from [100000, 999999).
func RandomID() string {
	return strconv.Itoa(minPollID + rand.IntN(maxPollID-minPollID))
}

type RegistryOption func(*Registry)

// WithIDGenerator replaces RandomID.
func WithIDGenerator(gen IDGenerator) RegistryOption {
	return func(r *Registry) { r.newID = gen }
}

// Registry holds every owner's polls. Its lock covers the owner maps only;
// per-poll operations never hold it.
type Registry struct {
	clock clockwork.Clock
	newID IDGenerator

	mu    sync.RWMutex
	polls map[uuid.UUID]map[string]*Poll
}

func NewRegistry(clock clockwork.Clock, opts ...RegistryOption) *Registry {
	r := &Registry{
		clock: clock,
		newID: RandomID,
		polls: make(map[uuid.UUID]map[string]*Poll),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreatePoll validates the request, assigns an id unique within the owner's
// polls, and stores the new poll.
func (r *Registry) CreatePoll(ownerID uuid.UUID, req CreateRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.polls[ownerID]
	id, err := r.freeIDLocked(owned)
	if err != nil {
		return "", err
	}

	p, err := New(id, req, r.clock)
	if err != nil {
		return "", err
	}

	if owned == nil {
		owned = make(map[string]*Poll)
		r.polls[ownerID] = owned
	}
	owned[id] = p
	return id, nil
}

func (r *Registry) freeIDLocked(owned map[string]*Poll) (string, error) {
	for range maxIDAttempts {
		id := r.newID()
		if _, taken := owned[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %d attempts", domain.ErrIDSpaceExhausted, maxIDAttempts)
}

// DeletePoll removes a poll. The owner's (possibly empty) poll map is kept
// so the next save rewrites that owner's unit.
func (r *Registry) DeletePoll(ownerID uuid.UUID, pollID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.polls[ownerID]
	if _, ok := owned[pollID]; !ok {
		return false
	}
	delete(owned, pollID)
	return true
}

func (r *Registry) GetPoll(ownerID uuid.UUID, pollID string) (*Poll, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.polls[ownerID][pollID]
	return p, ok
}

// ListPolls returns the owner's polls ordered by id.
func (r *Registry) ListPolls(ownerID uuid.UUID) []*Poll {
	r.mu.RLock()
	owned := r.polls[ownerID]
	ids := slices.Sorted(maps.Keys(owned))
	out := make([]*Poll, 0, len(ids))
	for _, id := range ids {
		out = append(out, owned[id])
	}
	r.mu.RUnlock()
	return out
}

// Owners returns every known owner id in a stable order.
func (r *Registry) Owners() []uuid.UUID {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.polls))
	for id := range r.polls {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sortIDs(ids)
	return ids
}

// ExportSnapshot copies every poll's state. The registry lock is released
// before individual polls are read, so voting continues during an export.
func (r *Registry) ExportSnapshot() Snapshot {
	r.mu.RLock()
	refs := make(map[uuid.UUID][]*Poll, len(r.polls))
	for owner, owned := range r.polls {
		list := make([]*Poll, 0, len(owned))
		for _, p := range owned {
			list = append(list, p)
		}
		refs[owner] = list
	}
	r.mu.RUnlock()

	snap := make(Snapshot, len(refs))
	for owner, list := range refs {
		states := make(map[string]State, len(list))
		for _, p := range list {
			states[p.ID()] = p.Snapshot()
		}
		snap[owner] = states
	}
	return snap
}

// ImportSnapshot restores the given owners, replacing whatever the registry
// held for them. Owners absent from the snapshot are untouched.
func (r *Registry) ImportSnapshot(snap Snapshot) {
	restored := make(map[uuid.UUID]map[string]*Poll, len(snap))
	for owner, states := range snap {
		owned := make(map[string]*Poll, len(states))
		for id, s := range states {
			s.ID = id
			owned[id] = Restore(s, r.clock)
		}
		restored[owner] = owned
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for owner, owned := range restored {
		r.polls[owner] = owned
	}
}

// ForgetEmpty drops the given owners if they still hold no polls. Call it
// once their units have been deleted from the store.
func (r *Registry) ForgetEmpty(owners []uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, owner := range owners {
		if owned, ok := r.polls[owner]; ok && len(owned) == 0 {
			delete(r.polls, owner)
		}
	}
}
