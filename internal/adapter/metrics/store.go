package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/chatpolls/internal/domain"
)

// StoreMetrics holds Prometheus metrics for document store operations, the
// circuit breaker in front of remote backends and the backend clients.
type StoreMetrics struct {
	Operations         *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec

	// Redis client
	RedisCommands         *prometheus.CounterVec
	RedisCommandDuration  *prometheus.HistogramVec
	RedisConnectionErrors prometheus.Counter

	// PostgreSQL pool
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewStoreMetrics creates and registers store metrics on the given registry.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total document store operations, by backend, operation and status.",
		}, []string{"backend", "operation", "status"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of document store operations in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"backend", "operation"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"component"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "circuit_breaker_transitions_total",
			Help:      "Total circuit breaker state transitions, by target state.",
		}, []string{"component", "to"}),
		RedisCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "commands_total",
			Help:      "Total Redis commands, by command and status.",
		}, []string{"command", "status"}),
		RedisCommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "command_duration_seconds",
			Help:      "Duration of Redis commands in seconds.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"command"}),
		RedisConnectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Total failed Redis dial attempts.",
		}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of PostgreSQL queries in seconds, by statement kind.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"query"}),
		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total failed PostgreSQL queries, by statement kind.",
		}, []string{"query"}),
	}

	reg.MustRegister(
		m.Operations, m.OperationDuration, m.BreakerState, m.BreakerTransitions,
		m.RedisCommands, m.RedisCommandDuration, m.RedisConnectionErrors,
		m.DBQueryDuration, m.DBQueryErrors,
	)
	return m
}

// InstrumentedStore records every call on the wrapped store.
type InstrumentedStore struct {
	next    domain.DocumentStore
	backend string
	metrics *StoreMetrics
}

var _ domain.DocumentStore = (*InstrumentedStore)(nil)

func InstrumentStore(next domain.DocumentStore, backend string, m *StoreMetrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend, metrics: m}
}

func (s *InstrumentedStore) observe(operation string, start time.Time, err error) {
	status := "success"
	switch {
	case errors.Is(err, domain.ErrOwnerNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	s.metrics.Operations.WithLabelValues(s.backend, operation, status).Inc()
	s.metrics.OperationDuration.WithLabelValues(s.backend, operation).Observe(time.Since(start).Seconds())
}

// Ping forwards to the wrapped store when it supports health checks.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *InstrumentedStore) Owners(ctx context.Context) ([]uuid.UUID, error) {
	start := time.Now()
	ids, err := s.next.Owners(ctx)
	s.observe("owners", start, err)
	return ids, err
}

func (s *InstrumentedStore) Load(ctx context.Context, ownerID uuid.UUID) ([]byte, error) {
	start := time.Now()
	doc, err := s.next.Load(ctx, ownerID)
	s.observe("load", start, err)
	return doc, err
}

func (s *InstrumentedStore) Save(ctx context.Context, ownerID uuid.UUID, document []byte) error {
	start := time.Now()
	err := s.next.Save(ctx, ownerID, document)
	s.observe("save", start, err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, ownerID uuid.UUID) error {
	start := time.Now()
	err := s.next.Delete(ctx, ownerID)
	s.observe("delete", start, err)
	return err
}
