package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/chatpolls/internal/adapter/metrics"
)

func TestMetricsHook_CountsCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	m := metrics.NewStoreMetrics(prometheus.NewRegistry())
	ctx := context.Background()

	client, err := NewClient(ctx, "redis://"+mr.Addr(), NewMetricsHook(m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewDocumentStore(client)
	owner := uuid.New()
	require.NoError(t, store.Save(ctx, owner, []byte(`{}`)))
	_, err = store.Load(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisCommands.WithLabelValues("ping", "success")))
	assert.Positive(t, testutil.CollectAndCount(m.RedisCommandDuration))
}

func TestMetricsHook_NilReplyIsSuccess(t *testing.T) {
	m := metrics.NewStoreMetrics(prometheus.NewRegistry())
	hook := NewMetricsHook(m)
	ctx := context.Background()

	nilReply := func(context.Context, goredis.Cmder) error { return goredis.Nil }
	err := hook.ProcessHook(nilReply)(ctx, goredis.NewStringCmd(ctx, "get", "missing"))

	assert.ErrorIs(t, err, goredis.Nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisCommands.WithLabelValues("get", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RedisCommands.WithLabelValues("get", "error")))
}

func TestMetricsHook_Errors(t *testing.T) {
	m := metrics.NewStoreMetrics(prometheus.NewRegistry())
	hook := NewMetricsHook(m)
	ctx := context.Background()

	_ = hook.ProcessHook(failing)(ctx, goredis.NewStringCmd(ctx, "set", "k", "v"))
	_ = hook.ProcessPipelineHook(func(context.Context, []goredis.Cmder) error { return assert.AnError })(ctx, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisCommands.WithLabelValues("set", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisCommands.WithLabelValues("pipeline", "error")))
}
