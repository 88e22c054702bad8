package domain

import (
	"context"

	"github.com/google/uuid"
)

// Recipient is a live reward target supplied by the host application
// (typically an online player). Every method may fail independently.
type Recipient interface {
	ID() uuid.UUID
	Name() string

	// PlaceholderValues returns host-specific template tokens such as
	// "%world%" or "%x%" mapped to their current values.
	PlaceholderValues() map[string]string

	GiveItem(ctx context.Context, material string, amount int) error
	GiveExperience(ctx context.Context, amount int) error
	DepositCurrency(ctx context.Context, amount float64) error
	RunCommand(ctx context.Context, command string, asConsole bool) error
}

// RecipientResolver maps a voter to a live Recipient. ok is false when the
// voter cannot currently receive rewards (e.g. offline).
type RecipientResolver interface {
	Resolve(ctx context.Context, voterID uuid.UUID) (r Recipient, ok bool)
}
