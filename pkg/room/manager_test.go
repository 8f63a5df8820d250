package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/myst-6/messaging/pkg/snowflake"
	"github.com/myst-6/messaging/pkg/store"
)

type fakeBackend struct {
	logs map[string]*fakeLog
}

func (b *fakeBackend) Room(roomID string) store.Log {
	if b.logs == nil {
		b.logs = make(map[string]*fakeLog)
	}
	if l, ok := b.logs[roomID]; ok {
		return l
	}
	l := &fakeLog{}
	b.logs[roomID] = l
	return l
}

func (b *fakeBackend) Close() error { return nil }

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	ids, err := snowflake.New(2)
	require.NoError(t, err)
	return NewManager(&fakeBackend{}, Options{
		HeartbeatPeriod: time.Hour,
		TypingExpiry:    time.Hour,
		IDs:             ids,
		Logger:          discardLogger(),
	})
}

func TestManagerReturnsSameInstancePerID(t *testing.T) {
	m := newTestManager(t)

	r1 := m.Get("general")
	r2 := m.Get("general")
	require.Same(t, r1, r2)
	require.Equal(t, 1, m.Len())
}

func TestManagerKeepsRoomsIndependent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	a := m.Get("a")
	b := m.Get("b")
	require.NotSame(t, a, b)

	require.NoError(t, a.Join(ctx, "alice", newFakeConn()))
	_, err := a.Send(ctx, "alice", "hi")
	require.NoError(t, err)

	infoA, err := a.Info(ctx)
	require.NoError(t, err)
	infoB, err := b.Info(ctx)
	require.NoError(t, err)

	require.Equal(t, Info{ParticipantCount: 1, MessageCount: 1}, infoA)
	require.Equal(t, Info{ParticipantCount: 0, MessageCount: 0}, infoB)
}

// Durable state outlives the in-memory instance: a fresh coordinator over the
// same log replays previously stored messages.
func TestDurableHistoryOutlivesInstance(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	ids, err := snowflake.New(2)
	require.NoError(t, err)
	opts := Options{HeartbeatPeriod: time.Hour, TypingExpiry: time.Hour, IDs: ids, Logger: discardLogger()}

	first := New("general", backend.Room("general"), opts)
	require.NoError(t, first.Join(ctx, "alice", newFakeConn()))
	_, err = first.Send(ctx, "alice", "persisted")
	require.NoError(t, err)

	second := New("general", backend.Room("general"), opts)
	conn := newFakeConn()
	require.NoError(t, second.Join(ctx, "bob", conn))

	var hist struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	conn.dataAt(0, &hist)
	require.Len(t, hist.Messages, 1)
	require.Equal(t, "persisted", hist.Messages[0].Content)
}
