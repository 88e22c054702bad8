package poll

import (
	"context"
	"log/slog"

	"github.com/pscheid92/chatpolls/internal/domain"
)

// Distribution summarizes a single Distribute call.
type Distribution struct {
	Recipients []string
	Unresolved int
	Granted    map[RewardType]int
	Failed     map[RewardType]int
}

// Distributor hands a closed poll's rewards to eligible voters.
type Distributor struct {
	resolver domain.RecipientResolver
}

func NewDistributor(resolver domain.RecipientResolver) *Distributor {
	return &Distributor{resolver: resolver}
}

// Distribute pays every eligible voter that has not been paid yet and
// returns who was paid in this call.
//
// A voter is claimed (marked rewarded) before any reward is applied, so two
// concurrent calls never both pay the same voter. Voters the resolver cannot
// find are left unmarked and stay eligible for a later call. A failing reward
// is logged and does not stop the others.
func (d *Distributor) Distribute(ctx context.Context, p *Poll) Distribution {
	result := Distribution{
		Recipients: []string{},
		Granted:    make(map[RewardType]int),
		Failed:     make(map[RewardType]int),
	}

	rewards, eligible := p.payout()
	if len(rewards) == 0 || len(eligible) == 0 {
		return result
	}

	var claimed []domain.Recipient
	for _, voterID := range eligible {
		recipient, ok := d.resolver.Resolve(ctx, voterID)
		if !ok {
			result.Unresolved++
			continue
		}
		if !p.claimRewards(voterID) {
			continue
		}
		claimed = append(claimed, recipient)
	}

	for _, recipient := range claimed {
		for _, reward := range rewards {
			if err := reward.Give(ctx, recipient); err != nil {
				result.Failed[reward.Type()]++
				slog.WarnContext(ctx, "Failed to give reward",
					"poll_id", p.ID(),
					"voter_id", recipient.ID(),
					"reward_type", reward.Type(),
					"error", err)
				continue
			}
			result.Granted[reward.Type()]++
		}
		result.Recipients = append(result.Recipients, recipient.Name())
	}

	if len(claimed) > 0 {
		slog.InfoContext(ctx, "Distributed poll rewards",
			"poll_id", p.ID(),
			"recipients", len(claimed),
			"unresolved", result.Unresolved)
	}
	return result
}
