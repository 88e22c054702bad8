package recipient

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogResolver_ResolvesEveryone(t *testing.T) {
	var buf bytes.Buffer
	resolver := NewLogResolver(slog.New(slog.NewTextHandler(&buf, nil)))
	voter := uuid.New()

	r, ok := resolver.Resolve(context.Background(), voter)
	require.True(t, ok)
	assert.Equal(t, voter, r.ID())
	assert.Equal(t, voter.String()[:8], r.Name())
	assert.Nil(t, r.PlaceholderValues())
}

func TestLogRecipient_LogsRewards(t *testing.T) {
	var buf bytes.Buffer
	resolver := NewLogResolver(slog.New(slog.NewTextHandler(&buf, nil)))
	r, _ := resolver.Resolve(context.Background(), uuid.New())
	ctx := context.Background()

	require.NoError(t, r.GiveItem(ctx, "DIAMOND", 3))
	require.NoError(t, r.GiveExperience(ctx, 50))
	require.NoError(t, r.DepositCurrency(ctx, 12.5))
	require.NoError(t, r.RunCommand(ctx, "say hi", true))

	out := buf.String()
	assert.Contains(t, out, "material=DIAMOND")
	assert.Contains(t, out, "amount=50")
	assert.Contains(t, out, "amount=12.5")
	assert.Contains(t, out, `command="say hi"`)
	assert.Contains(t, out, "as_console=true")
}

func TestNewLogResolver_DefaultsLogger(t *testing.T) {
	resolver := NewLogResolver(nil)
	assert.NotNil(t, resolver.logger)
}
