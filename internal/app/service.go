package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/chatpolls/internal/adapter/metrics"
	"github.com/pscheid92/chatpolls/internal/codec"
	"github.com/pscheid92/chatpolls/internal/domain"
	apperrors "github.com/pscheid92/chatpolls/internal/errors"
	"github.com/pscheid92/chatpolls/internal/platform/correlation"
	"github.com/pscheid92/chatpolls/internal/poll"
)

const saveKey = "save"

// Service is the application layer. It owns the registry and is the only
// component that talks to both the poll engine and the document store.
type Service struct {
	registry    *poll.Registry
	store       domain.DocumentStore
	codec       *codec.Codec
	distributor *poll.Distributor
	polls       *metrics.PollMetrics
	persistence *metrics.PersistenceMetrics
	clock       clockwork.Clock

	saveGroup singleflight.Group
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewService wires the registry to its store. Autosave is off until
// StartAutosave is called.
func NewService(registry *poll.Registry, store domain.DocumentStore, c *codec.Codec, resolver domain.RecipientResolver, pm *metrics.PollMetrics, persistence *metrics.PersistenceMetrics, clock clockwork.Clock) *Service {
	return &Service{
		registry:    registry,
		store:       store,
		codec:       c,
		distributor: poll.NewDistributor(resolver),
		polls:       pm,
		persistence: persistence,
		clock:       clock,
		stopCh:      make(chan struct{}),
	}
}

// --- Poll lifecycle ---

func (s *Service) CreatePoll(ctx context.Context, ownerID uuid.UUID, req poll.CreateRequest) (string, error) {
	id, err := s.registry.CreatePoll(ownerID, req)
	switch {
	case errors.Is(err, domain.ErrInvalidOptions), errors.Is(err, domain.ErrInvalidSchedule):
		return "", apperrors.ValidationError("invalid poll", err).WithContext("owner_id", ownerID.String())
	case err != nil:
		return "", apperrors.InternalError("failed to create poll", err).WithContext("owner_id", ownerID.String())
	}

	s.polls.PollsCreated.Inc()
	slog.InfoContext(ctx, "Poll created", "owner_id", ownerID, "poll_id", id, "type", req.Type, "options", len(req.Options))
	return id, nil
}

func (s *Service) DeletePoll(ctx context.Context, ownerID uuid.UUID, pollID string) error {
	if !s.registry.DeletePoll(ownerID, pollID) {
		return notFound(ownerID, pollID)
	}
	slog.InfoContext(ctx, "Poll deleted", "owner_id", ownerID, "poll_id", pollID)
	return nil
}

func (s *Service) GetPoll(ownerID uuid.UUID, pollID string) (*poll.Poll, error) {
	p, ok := s.registry.GetPoll(ownerID, pollID)
	if !ok {
		return nil, notFound(ownerID, pollID)
	}
	return p, nil
}

func (s *Service) ListPolls(ownerID uuid.UUID) []*poll.Poll {
	return s.registry.ListPolls(ownerID)
}

func (s *Service) Owners() []uuid.UUID {
	return s.registry.Owners()
}

// EndPoll closes a poll immediately. Ending an already closed poll is a no-op.
func (s *Service) EndPoll(ctx context.Context, ownerID uuid.UUID, pollID string) error {
	p, err := s.GetPoll(ownerID, pollID)
	if err != nil {
		return err
	}
	if p.HasEnded() {
		return nil
	}

	p.ForceEnd()
	s.polls.PollsEnded.Inc()
	slog.InfoContext(ctx, "Poll ended early", "owner_id", ownerID, "poll_id", pollID)
	return nil
}

// SetPollType switches between SINGLE and RANKED. It fails with a conflict
// once anyone has voted.
func (s *Service) SetPollType(ownerID uuid.UUID, pollID string, t poll.Type) error {
	p, err := s.GetPoll(ownerID, pollID)
	if err != nil {
		return err
	}
	if !p.SetType(t) {
		return apperrors.ConflictError("poll already has votes").
			WithContext("poll_id", pollID).
			WithContext("cause", domain.ErrVotesRecorded.Error())
	}
	return nil
}

// --- Voting ---

// CastVote records a SINGLE vote. accepted is false when the poll is not
// open, is RANKED, the option is unknown, or the voter already voted.
func (s *Service) CastVote(ownerID uuid.UUID, pollID string, voterID uuid.UUID, option string) (accepted bool, err error) {
	p, err := s.GetPoll(ownerID, pollID)
	if err != nil {
		return false, err
	}

	accepted = p.CastVote(voterID, option)
	s.polls.ObserveVote(p.Type().String(), accepted)
	return accepted, nil
}

// CastRankedVote parses a comma-separated ranking and records it.
func (s *Service) CastRankedVote(ownerID uuid.UUID, pollID string, voterID uuid.UUID, input string) (accepted bool, err error) {
	p, err := s.GetPoll(ownerID, pollID)
	if err != nil {
		return false, err
	}

	accepted = p.CastRankedVote(voterID, poll.ParseRanking(input))
	s.polls.ObserveVote(p.Type().String(), accepted)
	return accepted, nil
}

// --- Rewards ---

func (s *Service) AddReward(ownerID uuid.UUID, pollID string, r poll.Reward) error {
	p, err := s.GetPoll(ownerID, pollID)
	if err != nil {
		return err
	}
	p.AddReward(r)
	return nil
}

// RemoveReward removes the reward at a zero-based index. removed is false
// for an out-of-range index.
func (s *Service) RemoveReward(ownerID uuid.UUID, pollID string, index int) (removed bool, err error) {
	p, err := s.GetPoll(ownerID, pollID)
	if err != nil {
		return false, err
	}
	return p.RemoveReward(index), nil
}

func (s *Service) SetRewardOnlyWinners(ownerID uuid.UUID, pollID string, onlyWinners bool) error {
	p, err := s.GetPoll(ownerID, pollID)
	if err != nil {
		return err
	}
	p.SetRewardOnlyWinners(onlyWinners)
	return nil
}

// DistributeRewards pays every eligible, not yet rewarded voter of a closed
// poll. A non-empty payout is persisted right away on a best-effort basis;
// the next autosave covers a failed attempt.
func (s *Service) DistributeRewards(ctx context.Context, ownerID uuid.UUID, pollID string) (poll.Distribution, error) {
	p, err := s.GetPoll(ownerID, pollID)
	if err != nil {
		return poll.Distribution{}, err
	}

	ctx, _ = correlation.Ensure(ctx)
	dist := s.distributor.Distribute(ctx, p)

	for t, n := range dist.Granted {
		s.polls.RewardsGranted.WithLabelValues(string(t)).Add(float64(n))
	}
	for t, n := range dist.Failed {
		s.polls.RewardsFailed.WithLabelValues(string(t)).Add(float64(n))
	}
	s.polls.RecipientsPaid.Add(float64(len(dist.Recipients)))
	s.polls.RecipientsUnresolved.Add(float64(dist.Unresolved))

	if len(dist.Recipients) > 0 {
		if err := s.Save(ctx); err != nil {
			slog.WarnContext(ctx, "Failed to persist rewarded voters, next autosave will retry", "poll_id", pollID, "error", err)
		}
	}
	return dist, nil
}

// --- Persistence ---

// Save writes every owner's polls to the store. Concurrent calls share one
// run. Only an unreachable store is reported as an error.
func (s *Service) Save(ctx context.Context) error {
	_, err, _ := s.saveGroup.Do(saveKey, func() (any, error) {
		return nil, s.save(ctx)
	})
	return err
}

func (s *Service) save(ctx context.Context) error {
	ctx, _ = correlation.Ensure(ctx)
	start := s.clock.Now()

	snap := s.registry.ExportSnapshot()
	var emptied []uuid.UUID
	for owner, polls := range snap {
		if len(polls) == 0 {
			emptied = append(emptied, owner)
		}
	}

	err := s.codec.Save(ctx, snap, s.store)
	s.persistence.SaveDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		s.persistence.SaveErrors.Inc()
		slog.ErrorContext(ctx, "Failed to save polls", "owners", len(snap), "error", err)
		return apperrors.UnavailableError("failed to save polls", err)
	}

	s.registry.ForgetEmpty(emptied)
	s.persistence.LastSuccess.Set(float64(s.clock.Now().Unix()))
	slog.DebugContext(ctx, "Saved polls", "owners", len(snap), "duration", s.clock.Since(start))
	return nil
}

// Load restores every readable owner from the store. Unreadable owners are
// skipped and logged; only failing to list owners is an error.
func (s *Service) Load(ctx context.Context) error {
	ctx, _ = correlation.Ensure(ctx)

	snap, skipped, err := s.codec.Load(ctx, s.store)
	if err != nil {
		return apperrors.UnavailableError("failed to load polls", err)
	}

	s.registry.ImportSnapshot(snap)
	s.persistence.OwnersLoaded.Set(float64(len(snap)))
	s.persistence.OwnersSkipped.Add(float64(len(skipped)))

	slog.InfoContext(ctx, "Loaded polls", "owners", len(snap), "skipped", len(skipped))
	return nil
}

// StartAutosave saves every interval until Stop is called.
func (s *Service) StartAutosave(interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	s.wg.Go(func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				ctx := correlation.WithID(context.Background(), correlation.NewID())
				if err := s.Save(ctx); err != nil {
					slog.WarnContext(ctx, "Autosave failed", "error", err)
				}
			case <-s.stopCh:
				return
			}
		}
	})
	slog.Info("Autosave started", "interval", interval)
}

// Stop halts autosave, waits for a running save to finish and flushes once
// more. The flush error is returned.
func (s *Service) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	return s.Save(ctx)
}

func notFound(ownerID uuid.UUID, pollID string) *apperrors.Error {
	err := apperrors.NotFoundError("poll not found").
		WithContext("owner_id", ownerID.String()).
		WithContext("poll_id", pollID)
	err.Cause = domain.ErrPollNotFound
	return err
}
