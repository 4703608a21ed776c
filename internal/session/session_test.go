package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
)

func setupMiniredis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, "test:", ttl)

	t.Cleanup(func() {
		_ = store.Close()
	})
	return mr, store
}

func stores(t *testing.T) map[string]Manager {
	_, rs := setupMiniredis(t, 0)
	return map[string]Manager{
		"memory": NewMemoryStore(0),
		"redis":  rs,
	}
}

func TestLoadMissingReturnsNewConversation(t *testing.T) {
	for name, m := range stores(t) {
		t.Run(name, func(t *testing.T) {
			conv, err := m.Load(context.Background(), "s1", "u1")
			require.NoError(t, err)
			assert.Equal(t, "s1", conv.SessionID)
			assert.Equal(t, "u1", conv.UserID)
			assert.Empty(t, conv.History)
			assert.NotNil(t, conv.State)
		})
	}
}

func TestUpdateContextRoundTrip(t *testing.T) {
	for name, m := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			conv := agent.NewConversation("s1", "u1")
			conv.Append(agent.RoleUser, "how are sales?")
			conv.Append(agent.RoleAssistant, "up 10%")
			conv.State["last_flow"] = "sales_analysis"

			require.NoError(t, m.UpdateContext(ctx, conv))

			loaded, err := m.Load(ctx, "s1", "u1")
			require.NoError(t, err)
			require.Len(t, loaded.History, 2)
			assert.Equal(t, "up 10%", loaded.History[1].Content)
			assert.Equal(t, "sales_analysis", loaded.State["last_flow"])

			require.NoError(t, m.Delete(ctx, "s1"))
			loaded, err = m.Load(ctx, "s1", "u1")
			require.NoError(t, err)
			assert.Empty(t, loaded.History)
		})
	}
}

func TestUpdateContextRejectsInvalid(t *testing.T) {
	for name, m := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, m.UpdateContext(context.Background(), nil), ErrInvalidConversation)
			assert.ErrorIs(t, m.UpdateContext(context.Background(), &agent.Conversation{}), ErrInvalidConversation)
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	m := NewMemoryStore(0)
	ctx := context.Background()

	conv := agent.NewConversation("s1", "u1")
	conv.Append(agent.RoleUser, "hi")
	require.NoError(t, m.UpdateContext(ctx, conv))

	conv.Append(agent.RoleAssistant, "changed after save")
	loaded, err := m.Load(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Len(t, loaded.History, 1)

	loaded.Append(agent.RoleAssistant, "changed after load")
	again, _ := m.Load(ctx, "s1", "u1")
	assert.Len(t, again.History, 1)
}

func TestHistoryIsTrimmed(t *testing.T) {
	m := NewMemoryStore(3)
	ctx := context.Background()

	conv := agent.NewConversation("s1", "u1")
	for i := 0; i < 5; i++ {
		conv.Append(agent.RoleUser, fmt.Sprintf("turn %d", i))
	}
	require.NoError(t, m.UpdateContext(ctx, conv))

	loaded, err := m.Load(ctx, "s1", "u1")
	require.NoError(t, err)
	require.Len(t, loaded.History, 3)
	assert.Equal(t, "turn 2", loaded.History[0].Content)
	assert.Len(t, conv.History, 5)
}

func TestRedisStoreTTL(t *testing.T) {
	mr, store := setupMiniredis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.UpdateContext(ctx, agent.NewConversation("s1", "u1")))
	assert.True(t, mr.Exists("test:s1"))
	assert.Equal(t, time.Minute, mr.TTL("test:s1"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("test:s1"))
}

func TestClosedStores(t *testing.T) {
	for name, m := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, m.Close())
			_, err := m.Load(context.Background(), "s1", "u1")
			assert.ErrorIs(t, err, ErrStorageClosed)
			assert.ErrorIs(t, m.UpdateContext(context.Background(), agent.NewConversation("s1", "u1")), ErrStorageClosed)
		})
	}
}

func TestNewRedisStoreRequiresAddr(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{})
	assert.Error(t, err)
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), MaxHistory: 2})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.Equal(t, 2, store.maxHistory)
	assert.Equal(t, defaultRedisPrefix, store.prefix)
}

func TestRedisStorePing(t *testing.T) {
	mr, store := setupMiniredis(t, 0)
	ctx := context.Background()

	assert.NoError(t, store.Ping(ctx))

	mr.Close()
	assert.Error(t, store.Ping(ctx))

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(ctx), ErrStorageClosed)
}
