package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/auxroom/syncd/internal/domain"
	"github.com/auxroom/syncd/internal/repository"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*miniredis.Miniredis, *repo) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rc := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return s, NewRepo(rc, 10*time.Minute)
}

func recvUpdate(t *testing.T, updates <-chan repository.PlayerUpdate) repository.PlayerUpdate {
	t.Helper()
	select {
	case update := <-updates:
		return update
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for player update")
		return repository.PlayerUpdate{}
	}
}

func TestPlayerRecord_SetGet(t *testing.T) {
	s, r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetPlayerRecord(ctx, "main")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound, "missing record must be reported as not found")

	err = r.SetPlayerRecord(ctx, &repository.SetPlayerRecordParams{
		SessionID: "main",
		Snapshot:  domain.NewSnapshot(domain.StatePlaying, 0.25),
		UpdatedAt: 1700000000000,
		Origin:    "peer-1",
	})
	require.NoError(t, err)

	record, err := r.GetPlayerRecord(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, int(domain.StatePlaying), record.State)
	assert.Equal(t, 0.25, record.SliderPosition)
	assert.Equal(t, int64(1700000000000), record.UpdatedAt)
	assert.Equal(t, "peer-1", record.Origin)

	assert.Equal(t, 10*time.Minute, s.TTL("session:main:player"), "record must expire")
}

func TestPlayerRecord_GetRejectsUnknownState(t *testing.T) {
	s, r := newTestRepo(t)
	ctx := context.Background()

	s.HSet("session:main:player", "state", "9", "slider_position", "0.5", "updated_at", "1", "origin", "peer-1")

	_, err := r.GetPlayerRecord(ctx, "main")
	assert.ErrorIs(t, err, repository.ErrMalformedRecord)

	s.HSet("session:other:player", "state", "not-a-number")
	_, err = r.GetPlayerRecord(ctx, "other")
	assert.ErrorIs(t, err, repository.ErrMalformedRecord)
}

func TestPlayerRecord_Subscribe(t *testing.T) {
	_, r := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.SubscribePlayerRecord(ctx, "main")
	require.NoError(t, err)

	// Writers hear their own writes back.
	err = r.SetPlayerRecord(ctx, &repository.SetPlayerRecordParams{
		SessionID: "main",
		Snapshot:  domain.NewSnapshot(domain.StatePaused, 0.5),
		UpdatedAt: 42,
		Origin:    "peer-1",
	})
	require.NoError(t, err)

	update := recvUpdate(t, updates)
	require.NoError(t, update.Err)
	assert.Equal(t, domain.StatePaused, update.Snapshot.State)
	assert.Equal(t, 0.5, update.Snapshot.SliderPosition)
	assert.Equal(t, int64(42), update.UpdatedAt)
	assert.Equal(t, "peer-1", update.Origin)

	cancel()
	select {
	case _, ok := <-updates:
		assert.False(t, ok, "updates channel must close on cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel did not close on cancel")
	}
}

func TestPlayerRecord_SubscribeSurfacesMalformedPayloads(t *testing.T) {
	_, r := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.SubscribePlayerRecord(ctx, "main")
	require.NoError(t, err)

	require.NoError(t, r.rc.Publish(ctx, "session:main:player:updates", "{not json").Err())
	update := recvUpdate(t, updates)
	assert.ErrorIs(t, update.Err, repository.ErrMalformedRecord)

	require.NoError(t, r.rc.Publish(ctx, "session:main:player:updates", `{"state":9,"slider_position":0.5}`).Err())
	update = recvUpdate(t, updates)
	assert.ErrorIs(t, update.Err, repository.ErrMalformedRecord, "unknown state must be rejected")

	// The subscription survives bad payloads.
	require.NoError(t, r.SetPlayerRecord(ctx, &repository.SetPlayerRecordParams{
		SessionID: "main",
		Snapshot:  domain.NewSnapshot(domain.StatePlaying, 1),
		UpdatedAt: 7,
		Origin:    "peer-2",
	}))
	update = recvUpdate(t, updates)
	require.NoError(t, update.Err)
	assert.Equal(t, domain.StatePlaying, update.Snapshot.State)
}
