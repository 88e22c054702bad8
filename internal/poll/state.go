package poll

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// State is a detached, read-consistent copy of a poll. It is what the codec
// persists and what Restore rebuilds from.
type State struct {
	ID                string
	Title             string
	Description       string
	Options           []string
	Type              Type
	StartTime         time.Time
	EndTime           time.Time
	CreatedAt         time.Time
	ForceEnded        bool
	OptionVotes       map[string]int
	UserVotes         map[uuid.UUID]string
	RankedVotes       map[uuid.UUID][]string
	Rewards           []Reward
	Rewarded          []uuid.UUID
	RewardOnlyWinners bool
}

// Snapshot maps owner id to that owner's polls by poll id.
type Snapshot map[uuid.UUID]map[string]State

// Snapshot copies the poll's state under its read lock.
func (p *Poll) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	userVotes := make(map[uuid.UUID]string, len(p.ledger.single))
	for id, opt := range p.ledger.single {
		userVotes[id] = opt
	}
	rankedVotes := make(map[uuid.UUID][]string, len(p.ledger.ranked))
	for id, b := range p.ledger.ranked {
		rankedVotes[id] = slices.Clone(b)
	}
	rewarded := make([]uuid.UUID, 0, len(p.rewarded))
	for id := range p.rewarded {
		rewarded = append(rewarded, id)
	}
	sortIDs(rewarded)

	var rewards []Reward
	if len(p.rewards) > 0 {
		rewards = slices.Clone(p.rewards)
	}

	return State{
		ID:                p.id,
		Title:             p.title,
		Description:       p.description,
		Options:           slices.Clone(p.options),
		Type:              p.pollType,
		StartTime:         p.startTime,
		EndTime:           p.endTime,
		CreatedAt:         p.createdAt,
		ForceEnded:        p.forceEnded,
		OptionVotes:       p.ledger.tallyCopy(),
		UserVotes:         userVotes,
		RankedVotes:       rankedVotes,
		Rewards:           rewards,
		Rewarded:          rewarded,
		RewardOnlyWinners: p.rewardOnlyWinners,
	}
}

// Restore rebuilds a poll from persisted state. The state is trusted; it is
// not re-validated.
func Restore(s State, clock clockwork.Clock) *Poll {
	l := newLedger(s.Options)
	for opt, n := range s.OptionVotes {
		l.tally[opt] = n
	}
	for id, opt := range s.UserVotes {
		l.single[id] = opt
	}
	for id, b := range s.RankedVotes {
		l.ranked[id] = slices.Clone(b)
	}

	rewarded := make(map[uuid.UUID]struct{}, len(s.Rewarded))
	for _, id := range s.Rewarded {
		rewarded[id] = struct{}{}
	}

	var rewards []Reward
	if len(s.Rewards) > 0 {
		rewards = slices.Clone(s.Rewards)
	}

	start, end := s.StartTime, s.EndTime
	if start.After(end) {
		start = end
	}

	return &Poll{
		id:                s.ID,
		title:             s.Title,
		description:       s.Description,
		options:           slices.Clone(s.Options),
		createdAt:         s.CreatedAt,
		clock:             clock,
		pollType:          s.Type,
		startTime:         start,
		endTime:           end,
		forceEnded:        s.ForceEnded,
		ledger:            l,
		rewards:           rewards,
		rewarded:          rewarded,
		rewardOnlyWinners: s.RewardOnlyWinners,
	}
}
