package poll

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/chatpolls/internal/domain"
)

const (
	MinOptions = 2
	MaxOptions = 5
)

// TimeLayout is the second-precision local timestamp format used for display
// and persistence.
const TimeLayout = "2006-01-02 15:04:05"

// CreateRequest carries everything needed to open a new poll. Delay and
// Duration are truncated to whole seconds.
type CreateRequest struct {
	Title       string
	Description string
	Options     []string
	Delay       time.Duration
	Duration    time.Duration
	Type        Type
}

// Poll is a time-scoped vote. All mutable state sits behind mu, so a vote's
// check, ledger write and tally increment happen as one step.
type Poll struct {
	id          string
	title       string
	description string
	options     []string
	createdAt   time.Time
	clock       clockwork.Clock

	mu                sync.RWMutex
	pollType          Type
	startTime         time.Time
	endTime           time.Time
	forceEnded        bool
	ledger            *ledger
	rewards           []Reward
	rewarded          map[uuid.UUID]struct{}
	rewardOnlyWinners bool
}

// New validates the request and builds a poll scheduled relative to the
// clock's current time.
func New(id string, req CreateRequest, clock clockwork.Clock) (*Poll, error) {
	options, err := normalizeOptions(req.Options)
	if err != nil {
		return nil, err
	}
	if req.Delay < 0 || req.Duration.Truncate(time.Second) <= 0 {
		return nil, fmt.Errorf("%w: delay=%s duration=%s", domain.ErrInvalidSchedule, req.Delay, req.Duration)
	}

	now := clock.Now().Local().Truncate(time.Second)
	start := now.Add(req.Delay.Truncate(time.Second))

	return &Poll{
		id:          id,
		title:       req.Title,
		description: req.Description,
		options:     options,
		createdAt:   now,
		clock:       clock,
		pollType:    req.Type,
		startTime:   start,
		endTime:     start.Add(req.Duration.Truncate(time.Second)),
		ledger:      newLedger(options),
		rewarded:    make(map[uuid.UUID]struct{}),
	}, nil
}

func normalizeOptions(raw []string) ([]string, error) {
	if len(raw) < MinOptions || len(raw) > MaxOptions {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidOptions, len(raw))
	}
	out := make([]string, 0, len(raw))
	for _, opt := range raw {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return nil, fmt.Errorf("%w: empty option", domain.ErrInvalidOptions)
		}
		if slices.Contains(out, opt) {
			return nil, fmt.Errorf("%w: duplicate option %q", domain.ErrInvalidOptions, opt)
		}
		out = append(out, opt)
	}
	return out, nil
}

func (p *Poll) ID() string           { return p.id }
func (p *Poll) Title() string        { return p.title }
func (p *Poll) Description() string  { return p.description }
func (p *Poll) Options() []string    { return slices.Clone(p.options) }
func (p *Poll) CreatedAt() time.Time { return p.createdAt }

func (p *Poll) HasOption(option string) bool {
	return slices.Contains(p.options, option)
}

func (p *Poll) Type() Type {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pollType
}

func (p *Poll) StartTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.startTime
}

func (p *Poll) EndTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.endTime
}

// --- Lifecycle ---

// HasStarted reports whether now is strictly after the start time.
func (p *Poll) HasStarted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.startedLocked(p.clock.Now())
}

// HasEnded reports whether now is strictly after the end time, or the poll
// was force-ended.
func (p *Poll) HasEnded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.endedLocked(p.clock.Now())
}

func (p *Poll) IsOpen() bool {
	return p.Status() == StatusOpen
}

func (p *Poll) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.statusLocked(p.clock.Now())
}

func (p *Poll) startedLocked(now time.Time) bool {
	return now.After(p.startTime)
}

func (p *Poll) endedLocked(now time.Time) bool {
	return p.forceEnded || now.After(p.endTime)
}

func (p *Poll) statusLocked(now time.Time) Status {
	switch {
	case p.endedLocked(now):
		return StatusClosed
	case p.startedLocked(now):
		return StatusOpen
	default:
		return StatusPending
	}
}

// ForceEnd closes the poll immediately. The end time only ever moves
// earlier. Calling it twice is a no-op.
func (p *Poll) ForceEnd() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.forceEnded {
		return
	}
	now := p.clock.Now().Local().Truncate(time.Second)
	if now.Before(p.endTime) {
		p.endTime = now
	}
	if p.startTime.After(p.endTime) {
		p.startTime = p.endTime
	}
	p.forceEnded = true
}

// SetType switches between single and ranked voting. It fails once any vote
// has been recorded.
func (p *Poll) SetType(t Type) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ledger.empty() {
		return false
	}
	p.pollType = t
	return true
}

// --- Voting ---

// CastVote records a single-choice vote. It returns false without touching
// any state when the option is unknown, the poll is not open, the poll is
// ranked, or the voter already voted.
func (p *Poll) CastVote(voterID uuid.UUID, option string) bool {
	if !p.HasOption(option) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pollType != TypeSingle || p.statusLocked(p.clock.Now()) != StatusOpen {
		return false
	}
	if p.ledger.has(voterID) {
		return false
	}
	p.ledger.recordSingle(voterID, option)
	return true
}

// CastRankedVote records an ordered ballot. Partial rankings are accepted;
// empty rankings, duplicates and unknown options are not.
func (p *Poll) CastRankedVote(voterID uuid.UUID, ranking []string) bool {
	if !p.validRanking(ranking) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pollType != TypeRanked || p.statusLocked(p.clock.Now()) != StatusOpen {
		return false
	}
	if p.ledger.has(voterID) {
		return false
	}
	p.ledger.recordRanked(voterID, ranking)
	return true
}

func (p *Poll) validRanking(ranking []string) bool {
	if len(ranking) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(ranking))
	for _, opt := range ranking {
		if !p.HasOption(opt) {
			return false
		}
		if _, dup := seen[opt]; dup {
			return false
		}
		seen[opt] = struct{}{}
	}
	return true
}

func (p *Poll) HasVoted(voterID uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ledger.has(voterID)
}

// PlayerVote returns the voter's single-choice option.
func (p *Poll) PlayerVote(voterID uuid.UUID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	opt, ok := p.ledger.single[voterID]
	return opt, ok
}

// RankedVote returns a copy of the voter's ballot.
func (p *Poll) RankedVote(voterID uuid.UUID) ([]string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ranking, ok := p.ledger.ranked[voterID]
	if !ok {
		return nil, false
	}
	return slices.Clone(ranking), true
}

// OptionVotes returns a copy of the single-choice tally.
func (p *Poll) OptionVotes() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ledger.tallyCopy()
}

// CalculateRankedWinner runs instant runoff over the current ballots.
func (p *Poll) CalculateRankedWinner() (string, bool) {
	p.mu.RLock()
	if p.pollType != TypeRanked {
		p.mu.RUnlock()
		return "", false
	}
	ballots := p.ledger.ballots()
	p.mu.RUnlock()

	return ResolveRanked(ballots)
}

// Winner reports the current leader. ok is false while nobody has voted and
// for a ranked poll that resolves to no winner.
func (p *Poll) Winner() (string, bool) {
	p.mu.RLock()
	if p.pollType == TypeRanked {
		p.mu.RUnlock()
		return p.CalculateRankedWinner()
	}
	defer p.mu.RUnlock()
	if len(p.ledger.single) == 0 {
		return "", false
	}
	return p.singleWinnerLocked(), true
}

// VoterCount is the number of distinct voters of either kind.
func (p *Poll) VoterCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ledger.single) + len(p.ledger.ranked)
}

// singleWinnerLocked picks the option with the highest tally. Ties go to the
// option declared first.
func (p *Poll) singleWinnerLocked() string {
	winner, best := "", -1
	for _, opt := range p.options {
		if n := p.ledger.tally[opt]; n > best {
			winner, best = opt, n
		}
	}
	return winner
}

// --- Rewards ---

func (p *Poll) AddReward(r Reward) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rewards = append(p.rewards, r)
}

// RemoveReward drops the reward at index. It returns false when the index
// is out of range.
func (p *Poll) RemoveReward(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.rewards) {
		return false
	}
	p.rewards = slices.Delete(p.rewards, index, index+1)
	return true
}

func (p *Poll) Rewards() []Reward {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.rewards)
}

func (p *Poll) SetRewardOnlyWinners(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rewardOnlyWinners = v
}

func (p *Poll) RewardOnlyWinners() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rewardOnlyWinners
}

// MarkRewarded adds the voter to the rewarded set. The set never shrinks.
func (p *Poll) MarkRewarded(voterID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rewarded[voterID] = struct{}{}
}

func (p *Poll) HasBeenRewarded(voterID uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.rewarded[voterID]
	return ok
}

// claimRewards marks the voter rewarded and reports whether this call was
// the one that did it.
func (p *Poll) claimRewards(voterID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, done := p.rewarded[voterID]; done {
		return false
	}
	p.rewarded[voterID] = struct{}{}
	return true
}

// payout returns the rewards and the voters still owed them, or nothing
// when the poll is not closed.
func (p *Poll) payout() ([]Reward, []uuid.UUID) {
	p.mu.RLock()
	pollType := p.pollType
	if p.statusLocked(p.clock.Now()) != StatusClosed || len(p.rewards) == 0 {
		p.mu.RUnlock()
		return nil, nil
	}
	rewards := slices.Clone(p.rewards)

	var winner string
	if p.rewardOnlyWinners && pollType == TypeSingle {
		winner = p.singleWinnerLocked()
	}
	ballots := p.rankedByVoterLocked()
	single := make(map[uuid.UUID]string, len(p.ledger.single))
	for id, opt := range p.ledger.single {
		single[id] = opt
	}
	rewarded := make(map[uuid.UUID]struct{}, len(p.rewarded))
	for id := range p.rewarded {
		rewarded[id] = struct{}{}
	}
	onlyWinners := p.rewardOnlyWinners
	p.mu.RUnlock()

	var eligible []uuid.UUID
	switch {
	case !onlyWinners:
		for id := range single {
			eligible = append(eligible, id)
		}
		for id := range ballots {
			eligible = append(eligible, id)
		}
	case pollType == TypeRanked:
		all := make([][]string, 0, len(ballots))
		for _, b := range ballots {
			all = append(all, b)
		}
		rankedWinner, ok := ResolveRanked(all)
		if !ok {
			return rewards, nil
		}
		for id, b := range ballots {
			if b[0] == rankedWinner {
				eligible = append(eligible, id)
			}
		}
	default:
		for id, opt := range single {
			if opt == winner {
				eligible = append(eligible, id)
			}
		}
	}

	eligible = slices.DeleteFunc(eligible, func(id uuid.UUID) bool {
		_, done := rewarded[id]
		return done
	})
	sortIDs(eligible)
	return rewards, eligible
}

func (p *Poll) rankedByVoterLocked() map[uuid.UUID][]string {
	out := make(map[uuid.UUID][]string, len(p.ledger.ranked))
	for id, b := range p.ledger.ranked {
		if len(b) > 0 {
			out[id] = slices.Clone(b)
		}
	}
	return out
}

// --- Display ---

// OptionsDisplay joins the options as "A, B, C".
func (p *Poll) OptionsDisplay() string {
	return strings.Join(p.options, ", ")
}

func (p *Poll) StartDisplay() string {
	return p.StartTime().Local().Format(TimeLayout)
}

func (p *Poll) EndDisplay() string {
	return p.EndTime().Local().Format(TimeLayout)
}

func (p *Poll) RewardsDisplay() string {
	return RewardsDisplay(p.Rewards())
}
