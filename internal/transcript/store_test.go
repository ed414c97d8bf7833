package transcript

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewStore(client, time.Hour, zap.NewNop())
}

func TestAppendAndList(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	store.Record(ctx, "s1", SpeakerAssistant, "Please tell me the doctor's name.")
	store.Record(ctx, "s1", SpeakerUser, "Dr. Smith")
	store.Record(ctx, "s2", SpeakerUser, "exit")

	entries, err := store.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, SpeakerAssistant, entries[0].Speaker)
	assert.Equal(t, "Dr. Smith", entries[1].Text)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())

	assert.Equal(t, time.Hour, mr.TTL(sessionKey("s1")))
}

func TestAppendTrimsOldEntries(t *testing.T) {
	_, store := newTestStore(t)
	store.maxEntries = 3
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		require.NoError(t, store.Append(ctx, "s1", Entry{Speaker: SpeakerUser, Text: text}))
	}

	entries, err := store.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "three", entries[0].Text)
	assert.Equal(t, "five", entries[2].Text)
}

func TestListUnknownSession(t *testing.T) {
	_, store := newTestStore(t)

	entries, err := store.List(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendRequiresSessionID(t *testing.T) {
	_, store := newTestStore(t)
	require.Error(t, store.Append(context.Background(), "", Entry{Text: "hi"}))
}

func TestNilStore(t *testing.T) {
	var store *Store
	assert.Nil(t, NewStore(nil, time.Hour, zap.NewNop()))

	store.Record(context.Background(), "s1", SpeakerUser, "hello")
	require.NoError(t, store.Append(context.Background(), "s1", Entry{Text: "hello"}))

	_, err := store.List(context.Background(), "s1")
	require.ErrorIs(t, err, ErrDisabled)
}
