package poll

import (
	"slices"

	"github.com/google/uuid"
)

// ledger records who voted for what. It has no locking of its own; every
// access happens under the owning Poll's mutex.
type ledger struct {
	tally  map[string]int
	single map[uuid.UUID]string
	ranked map[uuid.UUID][]string
}

func newLedger(options []string) *ledger {
	l := &ledger{
		tally:  make(map[string]int, len(options)),
		single: make(map[uuid.UUID]string),
		ranked: make(map[uuid.UUID][]string),
	}
	for _, opt := range options {
		l.tally[opt] = 0
	}
	return l
}

func (l *ledger) has(voterID uuid.UUID) bool {
	if _, ok := l.single[voterID]; ok {
		return true
	}
	_, ok := l.ranked[voterID]
	return ok
}

func (l *ledger) empty() bool {
	return len(l.single) == 0 && len(l.ranked) == 0
}

func (l *ledger) recordSingle(voterID uuid.UUID, option string) {
	l.single[voterID] = option
	l.tally[option]++
}

func (l *ledger) recordRanked(voterID uuid.UUID, ranking []string) {
	l.ranked[voterID] = slices.Clone(ranking)
}

// ballots returns copies of every ranked ballot, ordered by voter id so
// callers see a stable sequence.
func (l *ledger) ballots() [][]string {
	ids := make([]uuid.UUID, 0, len(l.ranked))
	for id := range l.ranked {
		ids = append(ids, id)
	}
	sortIDs(ids)

	out := make([][]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, slices.Clone(l.ranked[id]))
	}
	return out
}

func (l *ledger) tallyCopy() map[string]int {
	out := make(map[string]int, len(l.tally))
	for k, v := range l.tally {
		out[k] = v
	}
	return out
}

func sortIDs(ids []uuid.UUID) {
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
}
