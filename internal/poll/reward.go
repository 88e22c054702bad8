package poll

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/pscheid92/chatpolls/internal/domain"
)

// RewardType identifies a Reward variant.
type RewardType string

const (
	RewardItem       RewardType = "ITEM"
	RewardExperience RewardType = "EXPERIENCE"
	RewardCurrency   RewardType = "CURRENCY"
	RewardCommand    RewardType = "COMMAND"
)

// ParseRewardType converts a persisted type name.
func ParseRewardType(s string) (RewardType, bool) {
	switch t := RewardType(strings.ToUpper(strings.TrimSpace(s))); t {
	case RewardItem, RewardExperience, RewardCurrency, RewardCommand:
		return t, true
	default:
		return "", false
	}
}

var errUnknownItem = errors.New("item reward has no material")

// Reward is something handed to a voter once a poll closes.
// Implementations are immutable values.
type Reward interface {
	Type() RewardType
	Give(ctx context.Context, r domain.Recipient) error
	Placeholders() map[string]string
	Describe() string
}

type ItemReward struct {
	Material string
	Amount   int
	Vars     map[string]string
}

func NewItemReward(material string, amount int, placeholders map[string]string) ItemReward {
	return ItemReward{Material: material, Amount: amount, Vars: cloneVars(placeholders)}
}

func (ItemReward) Type() RewardType                  { return RewardItem }
func (i ItemReward) Placeholders() map[string]string { return cloneVars(i.Vars) }

func (i ItemReward) Give(ctx context.Context, r domain.Recipient) error {
	if i.Material == "" {
		return errUnknownItem
	}
	return r.GiveItem(ctx, i.Material, i.Amount)
}

func (i ItemReward) Describe() string {
	if i.Material == "" {
		return "Unknown Item"
	}
	return fmt.Sprintf("%dx %s", i.Amount, formatMaterialName(i.Material))
}

type ExperienceReward struct {
	Amount int
	Vars   map[string]string
}

func NewExperienceReward(amount int, placeholders map[string]string) ExperienceReward {
	return ExperienceReward{Amount: amount, Vars: cloneVars(placeholders)}
}

func (ExperienceReward) Type() RewardType                  { return RewardExperience }
func (e ExperienceReward) Placeholders() map[string]string { return cloneVars(e.Vars) }
func (e ExperienceReward) Describe() string                { return strconv.Itoa(e.Amount) + " XP" }

func (e ExperienceReward) Give(ctx context.Context, r domain.Recipient) error {
	return r.GiveExperience(ctx, e.Amount)
}

// CurrencyReward deposits in-game currency through the host economy.
type CurrencyReward struct {
	Amount float64
	Vars   map[string]string
}

func NewCurrencyReward(amount float64, placeholders map[string]string) CurrencyReward {
	return CurrencyReward{Amount: amount, Vars: cloneVars(placeholders)}
}

func (CurrencyReward) Type() RewardType                  { return RewardCurrency }
func (c CurrencyReward) Placeholders() map[string]string { return cloneVars(c.Vars) }
func (c CurrencyReward) Describe() string                { return formatAmount(c.Amount) + " coins" }

func (c CurrencyReward) Give(ctx context.Context, r domain.Recipient) error {
	return r.DepositCurrency(ctx, c.Amount)
}

// CommandReward runs command templates for the recipient, either from the
// console or as the recipient themself.
type CommandReward struct {
	Commands  []string
	AsConsole bool
	Vars      map[string]string
}

func NewCommandReward(commands []string, asConsole bool, placeholders map[string]string) CommandReward {
	return CommandReward{Commands: slices.Clone(commands), AsConsole: asConsole, Vars: cloneVars(placeholders)}
}

func (CommandReward) Type() RewardType                  { return RewardCommand }
func (c CommandReward) Placeholders() map[string]string { return cloneVars(c.Vars) }
func (c CommandReward) Describe() string                { return "Command Reward" }

// Give runs every command even if an earlier one fails.
func (c CommandReward) Give(ctx context.Context, r domain.Recipient) error {
	var errs []error
	for _, cmd := range c.Commands {
		processed := ReplacePlaceholders(cmd, r, c.Vars)
		if err := r.RunCommand(ctx, processed, c.AsConsole); err != nil {
			errs = append(errs, fmt.Errorf("command %q: %w", processed, err))
		}
	}
	return errors.Join(errs...)
}

// ReplacePlaceholders substitutes %player% and %uuid%, then the recipient's
// own tokens, then the reward's custom tokens (in key order).
func ReplacePlaceholders(template string, r domain.Recipient, custom map[string]string) string {
	out := strings.ReplaceAll(template, "%player%", r.Name())
	out = strings.ReplaceAll(out, "%uuid%", r.ID().String())

	for _, vars := range []map[string]string{r.PlaceholderValues(), custom} {
		for _, key := range slices.Sorted(maps.Keys(vars)) {
			out = strings.ReplaceAll(out, key, vars[key])
		}
	}
	return out
}

// RewardsDisplay renders "1. 64x Diamond, 2. 100 XP" or "None".
func RewardsDisplay(rewards []Reward) string {
	if len(rewards) == 0 {
		return "None"
	}
	parts := make([]string, len(rewards))
	for i, r := range rewards {
		parts[i] = strconv.Itoa(i+1) + ". " + r.Describe()
	}
	return strings.Join(parts, ", ")
}

// formatMaterialName turns "DIAMOND_SWORD" into "Diamond Sword".
func formatMaterialName(material string) string {
	words := strings.Split(strings.ToLower(material), "_")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		out = append(out, strings.ToUpper(w[:1])+w[1:])
	}
	return strings.Join(out, " ")
}

// formatAmount always keeps a fractional part: 50 -> "50.0", 5.5 -> "5.5".
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func cloneVars(vars map[string]string) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	return maps.Clone(vars)
}
