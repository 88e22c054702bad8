// Package codec converts registry snapshots to and from the per-owner JSON
// documents kept by a domain.DocumentStore.
package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/chatpolls/internal/domain"
	"github.com/pscheid92/chatpolls/internal/platform/retry"
	"github.com/pscheid92/chatpolls/internal/poll"
)

type pollDoc struct {
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Options           []string            `json:"options"`
	PollType          string              `json:"pollType"`
	StartTime         string              `json:"startTime"`
	EndTime           string              `json:"endTime"`
	CreationDate      string              `json:"creationDate"`
	ForceEnded        bool                `json:"forceEnded,omitempty"`
	OptionVotes       map[string]int      `json:"optionVotes"`
	UserVotes         map[string]string   `json:"userVotes"`
	UserRankedVotes   map[string][]string `json:"userRankedVotes"`
	Rewards           []rewardDoc         `json:"rewards"`
	RewardedUsers     []string            `json:"rewardedUsers"`
	RewardOnlyWinners bool                `json:"rewardOnlyWinners"`
}

type itemDoc struct {
	Material string `json:"material"`
	Amount   int    `json:"amount"`
}

type rewardDoc struct {
	Type                string            `json:"type"`
	Item                *itemDoc          `json:"item,omitempty"`
	ExpAmt              int               `json:"expAmt,omitempty"`
	CurrencyAmt         float64           `json:"currencyAmt,omitempty"`
	Commands            []string          `json:"commands,omitempty"`
	RunCommandAsConsole bool              `json:"runCommandAsConsole,omitempty"`
	Placeholders        map[string]string `json:"placeholders,omitempty"`
}

// Codec encodes one owner's polls per document. Timestamps are written as
// second-precision local time without a zone.
type Codec struct {
	clock  clockwork.Clock
	policy retry.Policy
}

// New returns a codec. policy governs retries of individual store writes.
func New(clock clockwork.Clock, policy retry.Policy) *Codec {
	return &Codec{clock: clock, policy: policy}
}

// Encode renders one owner's polls as a JSON object keyed by poll id.
func (c *Codec) Encode(polls map[string]poll.State) ([]byte, error) {
	docs := make(map[string]pollDoc, len(polls))
	for id, s := range polls {
		docs[id] = encodePoll(s)
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode polls: %w", err)
	}
	return data, nil
}

func encodePoll(s poll.State) pollDoc {
	userVotes := make(map[string]string, len(s.UserVotes))
	for id, opt := range s.UserVotes {
		userVotes[id.String()] = opt
	}
	ranked := make(map[string][]string, len(s.RankedVotes))
	for id, b := range s.RankedVotes {
		ranked[id.String()] = b
	}
	rewarded := make([]string, len(s.Rewarded))
	for i, id := range s.Rewarded {
		rewarded[i] = id.String()
	}
	rewards := make([]rewardDoc, 0, len(s.Rewards))
	for _, r := range s.Rewards {
		rewards = append(rewards, encodeReward(r))
	}
	optionVotes := s.OptionVotes
	if optionVotes == nil {
		optionVotes = map[string]int{}
	}

	return pollDoc{
		Title:             s.Title,
		Description:       s.Description,
		Options:           s.Options,
		PollType:          s.Type.String(),
		StartTime:         formatTime(s.StartTime),
		EndTime:           formatTime(s.EndTime),
		CreationDate:      formatTime(s.CreatedAt),
		ForceEnded:        s.ForceEnded,
		OptionVotes:       optionVotes,
		UserVotes:         userVotes,
		UserRankedVotes:   ranked,
		Rewards:           rewards,
		RewardedUsers:     rewarded,
		RewardOnlyWinners: s.RewardOnlyWinners,
	}
}

func encodeReward(r poll.Reward) rewardDoc {
	doc := rewardDoc{Type: string(r.Type()), Placeholders: r.Placeholders()}
	switch v := r.(type) {
	case poll.ItemReward:
		doc.Item = &itemDoc{Material: v.Material, Amount: v.Amount}
	case poll.ExperienceReward:
		doc.ExpAmt = v.Amount
	case poll.CurrencyReward:
		doc.CurrencyAmt = v.Amount
	case poll.CommandReward:
		doc.Commands = v.Commands
		doc.RunCommandAsConsole = v.AsConsole
	}
	return doc
}

// Decode parses a document written by Encode. Malformed JSON is an error;
// individual bad entries (unknown reward type, unparsable voter id or
// timestamp) are logged and repaired or dropped.
func (c *Codec) Decode(data []byte) (map[string]poll.State, error) {
	var docs map[string]pollDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode polls: %w", err)
	}

	out := make(map[string]poll.State, len(docs))
	for id, doc := range docs {
		out[id] = c.decodePoll(id, doc)
	}
	return out, nil
}

func (c *Codec) decodePoll(id string, doc pollDoc) poll.State {
	pollType, ok := poll.ParseType(doc.PollType)
	if !ok && doc.PollType != "" {
		slog.Warn("Unknown poll type, using SINGLE", "poll_id", id, "poll_type", doc.PollType)
	}

	optionVotes := make(map[string]int, len(doc.Options))
	for _, opt := range doc.Options {
		optionVotes[opt] = 0
	}
	maps.Copy(optionVotes, doc.OptionVotes)

	userVotes := make(map[uuid.UUID]string, len(doc.UserVotes))
	for raw, opt := range doc.UserVotes {
		if voter, ok := parseVoter(id, raw); ok {
			userVotes[voter] = opt
		}
	}
	ranked := make(map[uuid.UUID][]string, len(doc.UserRankedVotes))
	for raw, b := range doc.UserRankedVotes {
		if voter, ok := parseVoter(id, raw); ok {
			ranked[voter] = b
		}
	}
	rewarded := make([]uuid.UUID, 0, len(doc.RewardedUsers))
	for _, raw := range doc.RewardedUsers {
		if voter, ok := parseVoter(id, raw); ok {
			rewarded = append(rewarded, voter)
		}
	}
	slices.SortFunc(rewarded, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })

	var rewards []poll.Reward
	for i, rd := range doc.Rewards {
		r, err := decodeReward(rd)
		if err != nil {
			slog.Warn("Skipping reward", "poll_id", id, "index", i, "error", err)
			continue
		}
		rewards = append(rewards, r)
	}

	return poll.State{
		ID:                id,
		Title:             doc.Title,
		Description:       doc.Description,
		Options:           doc.Options,
		Type:              pollType,
		StartTime:         c.parseTime(id, "startTime", doc.StartTime),
		EndTime:           c.parseTime(id, "endTime", doc.EndTime),
		CreatedAt:         c.parseTime(id, "creationDate", doc.CreationDate),
		ForceEnded:        doc.ForceEnded,
		OptionVotes:       optionVotes,
		UserVotes:         userVotes,
		RankedVotes:       ranked,
		Rewards:           rewards,
		Rewarded:          rewarded,
		RewardOnlyWinners: doc.RewardOnlyWinners,
	}
}

var errUnknownRewardType = errors.New("unknown reward type")

func decodeReward(doc rewardDoc) (poll.Reward, error) {
	t, ok := poll.ParseRewardType(doc.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownRewardType, doc.Type)
	}

	switch t {
	case poll.RewardItem:
		var item itemDoc
		if doc.Item != nil {
			item = *doc.Item
		}
		return poll.NewItemReward(item.Material, item.Amount, doc.Placeholders), nil
	case poll.RewardExperience:
		return poll.NewExperienceReward(doc.ExpAmt, doc.Placeholders), nil
	case poll.RewardCurrency:
		return poll.NewCurrencyReward(doc.CurrencyAmt, doc.Placeholders), nil
	default:
		return poll.NewCommandReward(doc.Commands, doc.RunCommandAsConsole, doc.Placeholders), nil
	}
}

func parseVoter(pollID, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		slog.Warn("Skipping entry with invalid voter id", "poll_id", pollID, "voter_id", raw)
		return uuid.Nil, false
	}
	return id, true
}

func formatTime(t time.Time) string {
	return t.Local().Format(poll.TimeLayout)
}

// parseTime falls back to the current time when the value is unreadable.
func (c *Codec) parseTime(pollID, field, value string) time.Time {
	t, err := time.ParseInLocation(poll.TimeLayout, value, time.Local)
	if err != nil {
		now := c.clock.Now().Local().Truncate(time.Second)
		slog.Warn("Invalid timestamp, using current time",
			"poll_id", pollID, "field", field, "value", value, "error", err)
		return now
	}
	return t
}

// --- Store I/O ---

// Save writes one document per owner. Owners with no polls left have their
// document deleted. Every owner is attempted; failures are joined.
func (c *Codec) Save(ctx context.Context, snap poll.Snapshot, store domain.DocumentStore) error {
	owners := slices.SortedFunc(maps.Keys(snap), func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})

	var errs []error
	for _, owner := range owners {
		polls := snap[owner]

		if len(polls) == 0 {
			err := retry.DoVoid(ctx, c.policy, retry.Transient, func() error {
				return store.Delete(ctx, owner)
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("delete owner %s: %w", owner, err))
			}
			continue
		}

		data, err := c.Encode(polls)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode owner %s: %w", owner, err))
			continue
		}
		err = retry.DoVoid(ctx, c.policy, retry.Transient, func() error {
			return store.Save(ctx, owner, data)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("save owner %s: %w", owner, err))
		}
	}
	return errors.Join(errs...)
}

// Load reads every owner's document. An owner whose document cannot be read
// or decoded is skipped and returned in skipped; only failing to list owners
// is an error.
func (c *Codec) Load(ctx context.Context, store domain.DocumentStore) (snap poll.Snapshot, skipped []uuid.UUID, err error) {
	owners, err := store.Owners(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list owners: %w", err)
	}

	snap = make(poll.Snapshot, len(owners))
	for _, owner := range owners {
		data, err := store.Load(ctx, owner)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable owner document", "owner_id", owner, "error", err)
			skipped = append(skipped, owner)
			continue
		}
		polls, err := c.Decode(data)
		if err != nil {
			slog.WarnContext(ctx, "Skipping corrupt owner document", "owner_id", owner, "error", err)
			skipped = append(skipped, owner)
			continue
		}
		snap[owner] = polls
	}
	return snap, skipped, nil
}
