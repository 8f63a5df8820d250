// Package store persists the append-only message log for each conversation.
package store

import (
	"context"
	"errors"

	"github.com/myst-6/messaging/pkg/model"
)

// ErrStorage marks a failed durable read or write. Callers must not retry;
// the triggering operation is aborted.
var ErrStorage = errors.New("storage failure")

// DefaultHistoryLimit is the window replayed to a joining participant.
const DefaultHistoryLimit = 50

// Log is one conversation's append-only message log. Messages are never
// updated or deleted; query results are always chronological (oldest first)
// regardless of the underlying scan direction.
type Log interface {
	// Append durably writes one message before returning.
	Append(ctx context.Context, msg model.Message) error
	// Recent returns the newest limit messages in chronological order.
	Recent(ctx context.Context, limit int) ([]model.Message, error)
	// Page returns limit messages after skipping the newest offset,
	// in chronological order.
	Page(ctx context.Context, limit, offset int) ([]model.Message, error)
	// Count returns the total number of stored messages.
	Count(ctx context.Context) (int, error)
}

// Backend binds room identifiers to their logs. Schema initialization is
// idempotent and happens at open.
type Backend interface {
	Room(roomID string) Log
	Close() error
}

func normalizeWindow(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// reverse flips a newest-first scan into chronological order in place.
func reverse(msgs []model.Message) []model.Message {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}
