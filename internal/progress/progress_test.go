package progress

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Completed(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SetCompleted(ctx, "s1", "detect", true))
	require.NoError(t, s.SetCompleted(ctx, "s1", "containment", true))
	require.NoError(t, s.SetCompleted(ctx, "s1", "detect", true))
	require.NoError(t, s.SetCompleted(ctx, "s2", "detect", true))

	got, err = s.Completed(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"detect": true, "containment": true}, got)

	require.NoError(t, s.SetCompleted(ctx, "s1", "containment", false))
	require.NoError(t, s.SetCompleted(ctx, "s1", "never_set", false))
	got, err = s.Completed(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"detect": true}, got)

	require.NoError(t, s.Clear(ctx, "s1"))
	got, err = s.Completed(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Completed(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"detect": true}, got)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.SetCompleted(ctx, "s", "a", true))
	got, _ := s.Completed(ctx, "s")
	got["b"] = true
	again, _ := s.Completed(ctx, "s")
	assert.Len(t, again, 1)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore("file:progressdb1?mode=memory&cache=shared")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CHRONOSEC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CHRONOSEC_TEST_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(RedisConfig{Addr: addr, KeyPrefix: fmt.Sprintf("chronosec:test:%d", time.Now().UnixNano()), TTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
	require.NoError(t, s.Clear(context.Background(), "s2"))
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(Config{Mode: "sqlite", SQLitePath: "file:progressdb2?mode=memory&cache=shared"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(Config{Mode: "etcd"})
	assert.Error(t, err)
}

func TestHubDeliversLatestSnapshot(t *testing.T) {
	hub := NewHub()
	store := WithHub(NewMemoryStore(), hub)
	ctx := context.Background()

	ch, cancel := hub.Subscribe("s1")
	defer cancel()
	other, cancelOther := hub.Subscribe("s2")
	defer cancelOther()

	require.NoError(t, store.SetCompleted(ctx, "s1", "detect", true))
	require.NoError(t, store.SetCompleted(ctx, "s1", "containment", true))

	select {
	case snap := <-ch:
		assert.Equal(t, "s1", snap.SessionID)
		assert.Equal(t, map[string]bool{"detect": true, "containment": true}, snap.Completed)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	select {
	case snap := <-other:
		t.Fatalf("unexpected snapshot for s2: %+v", snap)
	default:
	}

	require.NoError(t, store.Clear(ctx, "s1"))
	snap := <-ch
	assert.Empty(t, snap.Completed)
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("s")
	assert.Equal(t, 1, hub.Subscribers("s"))
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers("s"))
	hub.Publish(Snapshot{SessionID: "s"})
}
