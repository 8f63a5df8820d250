package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myst-6/messaging/pkg/model"
)

func openTestBackend(t *testing.T) *SQLite {
	t.Helper()
	backend, err := OpenSQLite(filepath.Join(t.TempDir(), "messages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func msg(id int64, userID, content string, ts int64) model.Message {
	return model.Message{ID: id, UserID: userID, Content: content, Timestamp: ts}
}

func TestAppendAndRecentChronological(t *testing.T) {
	ctx := context.Background()
	log := openTestBackend(t).Room("r1")

	// Two messages share a timestamp; insertion order (by id) breaks the tie.
	require.NoError(t, log.Append(ctx, msg(1, "alice", "first", 100)))
	require.NoError(t, log.Append(ctx, msg(2, "bob", "second", 100)))
	require.NoError(t, log.Append(ctx, msg(3, "alice", "third", 200)))

	got, err := log.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []int64{1, 2, 3}, ids(got))

	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1].Timestamp, got[i].Timestamp)
	}
}

func TestRecentReturnsNewestWindow(t *testing.T) {
	ctx := context.Background()
	log := openTestBackend(t).Room("r1")

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, log.Append(ctx, msg(i, "alice", "m", i*10)))
	}

	got, err := log.Recent(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 5}, ids(got))
}

func TestPageSkipsNewestFirst(t *testing.T) {
	ctx := context.Background()
	log := openTestBackend(t).Room("r1")

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, log.Append(ctx, msg(i, "alice", "m", i*10)))
	}

	// offset 1 skips the newest message; the window is still chronological.
	got, err := log.Page(ctx, 2, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 4}, ids(got))

	// Past the end.
	got, err = log.Page(ctx, 10, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRecentDefaultsLimit(t *testing.T) {
	ctx := context.Background()
	log := openTestBackend(t).Room("r1")

	for i := int64(1); i <= DefaultHistoryLimit+10; i++ {
		require.NoError(t, log.Append(ctx, msg(i, "alice", "m", i)))
	}

	got, err := log.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, DefaultHistoryLimit)
	require.Equal(t, int64(11), got[0].ID)
}

func TestAppendDuplicateIDFails(t *testing.T) {
	ctx := context.Background()
	log := openTestBackend(t).Room("r1")

	require.NoError(t, log.Append(ctx, msg(1, "alice", "hi", 100)))
	err := log.Append(ctx, msg(1, "alice", "again", 200))
	require.ErrorIs(t, err, ErrStorage)

	count, err := log.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRoomsAreIsolated(t *testing.T) {
	ctx := context.Background()
	backend := openTestBackend(t)
	r1 := backend.Room("r1")
	r2 := backend.Room("r2")

	require.NoError(t, r1.Append(ctx, msg(1, "alice", "hi", 100)))
	// The same id in another room is a different row.
	require.NoError(t, r2.Append(ctx, msg(1, "bob", "yo", 100)))

	c1, err := r1.Count(ctx)
	require.NoError(t, err)
	c2, err := r2.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, c1)
	require.Equal(t, 1, c2)

	got, err := r2.Recent(ctx, 50)
	require.NoError(t, err)
	require.Equal(t, "bob", got[0].UserID)
}

func ids(msgs []model.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}
