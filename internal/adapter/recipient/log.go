// Package recipient provides RecipientResolver implementations for running
// the engine without a game host attached.
package recipient

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pscheid92/chatpolls/internal/domain"
)

// LogResolver resolves every voter to a LogRecipient. Payouts become log
// lines, which makes reward configuration easy to check before a host is
// wired in.
type LogResolver struct {
	logger *slog.Logger
}

var _ domain.RecipientResolver = (*LogResolver)(nil)

// NewLogResolver logs through logger, or slog.Default() when nil.
func NewLogResolver(logger *slog.Logger) *LogResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogResolver{logger: logger}
}

func (r *LogResolver) Resolve(_ context.Context, voterID uuid.UUID) (domain.Recipient, bool) {
	return &LogRecipient{id: voterID, logger: r.logger}, true
}

// LogRecipient is named after the first eight characters of its id.
type LogRecipient struct {
	id     uuid.UUID
	logger *slog.Logger
}

var _ domain.Recipient = (*LogRecipient)(nil)

func (r *LogRecipient) ID() uuid.UUID { return r.id }

func (r *LogRecipient) Name() string { return r.id.String()[:8] }

func (r *LogRecipient) PlaceholderValues() map[string]string { return nil }

func (r *LogRecipient) GiveItem(ctx context.Context, material string, amount int) error {
	r.logger.InfoContext(ctx, "Reward: item", "voter_id", r.id, "material", material, "amount", amount)
	return nil
}

func (r *LogRecipient) GiveExperience(ctx context.Context, amount int) error {
	r.logger.InfoContext(ctx, "Reward: experience", "voter_id", r.id, "amount", amount)
	return nil
}

func (r *LogRecipient) DepositCurrency(ctx context.Context, amount float64) error {
	r.logger.InfoContext(ctx, "Reward: currency", "voter_id", r.id, "amount", amount)
	return nil
}

func (r *LogRecipient) RunCommand(ctx context.Context, command string, asConsole bool) error {
	r.logger.InfoContext(ctx, "Reward: command", "voter_id", r.id, "command", command, "as_console", asConsole)
	return nil
}
