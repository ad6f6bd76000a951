package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firsttier/support-triage/internal/oracle"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	conv := newTestConversation(10)
	conv.askQuestion("What client version are you running?")
	require.NoError(t, store.Save(ctx, conv))

	loaded, err := store.Load(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, loaded.ID)
	assert.Equal(t, conv.Summary, loaded.Summary)
	require.Len(t, loaded.Turns, 1)
	assert.Equal(t, "What client version are you running?", loaded.Turns[0].Question)
	assert.Equal(t, StateAwaitingAnswer, loaded.State)
}

func TestRedisStoreMissingConversation(t *testing.T) {
	store := newRedisStore(t)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorePreservesTerminalFields(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	conv := newTestConversation(10)
	conv.askQuestion("q1")
	conv.Turns[0].Answer = "a1"
	conv.Turns[0].Sentiment = oracle.SentimentAngry
	conv.FrustrationDetected = true
	conv.Terminal = true
	conv.MeetingLink = "https://meet.example.com/abc"
	conv.State = StateEnded
	require.NoError(t, store.Save(ctx, conv))

	loaded, err := store.Load(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Terminal)
	assert.True(t, loaded.FrustrationDetected)
	assert.Equal(t, "https://meet.example.com/abc", loaded.MeetingLink)
	assert.Equal(t, oracle.SentimentAngry, loaded.Turns[0].Sentiment)
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv := newTestConversation(10)
	conv.askQuestion("q1")
	require.NoError(t, store.Save(ctx, conv))

	// Mutating the loaded copy must not leak into the stored record.
	loaded, err := store.Load(ctx, conv.ID)
	require.NoError(t, err)
	loaded.Turns[0].Answer = "tampered"

	fresh, err := store.Load(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, fresh.Turns[0].Answered())
}
