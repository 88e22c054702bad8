package httpserver

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	apperrors "github.com/pscheid92/chatpolls/internal/errors"
	"github.com/pscheid92/chatpolls/internal/poll"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// --- Mock implementations ---

type mockPollService struct {
	mu      sync.Mutex
	polls   map[uuid.UUID][]*poll.Poll
	saveErr error
	saves   int
}

func newMockPollService() *mockPollService {
	return &mockPollService{polls: make(map[uuid.UUID][]*poll.Poll)}
}

func (m *mockPollService) add(owner uuid.UUID, p *poll.Poll) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls[owner] = append(m.polls[owner], p)
}

func (m *mockPollService) Owners() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uuid.UUID, 0, len(m.polls))
	for id := range m.polls {
		out = append(out, id)
	}
	return out
}

func (m *mockPollService) ListPolls(ownerID uuid.UUID) []*poll.Poll {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*poll.Poll(nil), m.polls[ownerID]...)
}

func (m *mockPollService) GetPoll(ownerID uuid.UUID, pollID string) (*poll.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.polls[ownerID] {
		if p.ID() == pollID {
			return p, nil
		}
	}
	return nil, apperrors.NotFoundError("poll not found").WithContext("poll_id", pollID)
}

func (m *mockPollService) Save(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return m.saveErr
}

func (m *mockPollService) getSaves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// --- Test server ---

type testServerOption func(*testServerConfig)

type testServerConfig struct {
	healthChecks   []HealthCheck
	metricsHandler http.Handler
	clock          clockwork.Clock
}

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(c *testServerConfig) { c.healthChecks = checks }
}

func withMetricsHandler(h http.Handler) testServerOption {
	return func(c *testServerConfig) { c.metricsHandler = h }
}

func withClock(clock clockwork.Clock) testServerOption {
	return func(c *testServerConfig) { c.clock = clock }
}

func newTestServer(t *testing.T, app pollService, opts ...testServerOption) *Server {
	t.Helper()
	cfg := &testServerConfig{clock: clockwork.NewFakeClockAt(testEpoch)}
	for _, opt := range opts {
		opt(cfg)
	}
	return NewServer("0", app, nil, cfg.metricsHandler, cfg.healthChecks, cfg.clock)
}
