package presence

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	mirrorQueueSize = 256
	mirrorOpTimeout = 2 * time.Second
)

// setStore is the slice of the redis client the mirror uses. Narrowed so
// tests can stand in for the server.
type setStore interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

type mirrorOp struct {
	add    bool
	roomID string
	userID string
}

// Mirror publishes room membership to a Redis set so services without access
// to the in-process registry can answer presence queries. Writes are
// best-effort and asynchronous: Add and Remove enqueue onto a worker that
// owns all Redis round-trips, so a slow or down Redis never blocks the room.
// A failed update is logged; a full queue drops the update. A nil *Mirror
// disables mirroring.
type Mirror struct {
	rdb  setStore
	ops  chan mirrorOp
	done chan struct{}
}

func NewMirror(addr string) *Mirror {
	return newMirror(redis.NewClient(&redis.Options{Addr: addr}))
}

func newMirror(rdb setStore) *Mirror {
	m := &Mirror{
		rdb:  rdb,
		ops:  make(chan mirrorOp, mirrorQueueSize),
		done: make(chan struct{}),
	}
	go m.run()
	return m
}

func roomKey(roomID string) string {
	return "room:" + roomID + ":users"
}

// run applies queued updates in order. One worker, so a user's add and the
// remove that follows it cannot land out of order.
func (m *Mirror) run() {
	defer close(m.done)
	for op := range m.ops {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorOpTimeout)
		var err error
		if op.add {
			err = m.rdb.SAdd(ctx, roomKey(op.roomID), op.userID).Err()
		} else {
			err = m.rdb.SRem(ctx, roomKey(op.roomID), op.userID).Err()
		}
		cancel()
		if err != nil {
			slog.Warn("mirror presence update failed", "room", op.roomID, "user", op.userID, "add", op.add, "error", err)
		}
	}
}

func (m *Mirror) enqueue(op mirrorOp) {
	select {
	case m.ops <- op:
	default:
		slog.Warn("mirror presence update dropped, queue full", "room", op.roomID, "user", op.userID)
	}
}

func (m *Mirror) Add(roomID, userID string) {
	if m == nil {
		return
	}
	m.enqueue(mirrorOp{add: true, roomID: roomID, userID: userID})
}

func (m *Mirror) Remove(roomID, userID string) {
	if m == nil {
		return
	}
	m.enqueue(mirrorOp{add: false, roomID: roomID, userID: userID})
}

// Members reads the mirrored membership for a room.
func (m *Mirror) Members(ctx context.Context, roomID string) ([]string, error) {
	if m == nil {
		return nil, nil
	}
	return m.rdb.SMembers(ctx, roomKey(roomID)).Result()
}

// Close drains the queue, stops the worker, and closes the client. No Add or
// Remove may be issued after Close.
func (m *Mirror) Close() error {
	if m == nil {
		return nil
	}
	close(m.ops)
	<-m.done
	if c, ok := m.rdb.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
