// Package room hosts the coordinator that owns one conversation: its
// participants, typing state, heartbeat cadence, and message log handle.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/myst-6/messaging/pkg/firehose"
	"github.com/myst-6/messaging/pkg/liveness"
	"github.com/myst-6/messaging/pkg/model"
	"github.com/myst-6/messaging/pkg/presence"
	"github.com/myst-6/messaging/pkg/snowflake"
	"github.com/myst-6/messaging/pkg/store"
	"github.com/myst-6/messaging/pkg/typing"
)

const (
	defaultHeartbeatPeriod = 5 * time.Second
	defaultTypingExpiry    = 5 * time.Second
)

// Options configures coordinator instances. Mirror and Firehose may be nil.
type Options struct {
	HeartbeatPeriod time.Duration
	TypingExpiry    time.Duration
	HistoryLimit    int
	IDs             *snowflake.Generator
	Mirror          *presence.Mirror
	Firehose        *firehose.Publisher
	Logger          *slog.Logger
}

// Info is the read-only snapshot returned by Room.Info.
type Info struct {
	ParticipantCount int `json:"participantCount"`
	MessageCount     int `json:"messageCount"`
}

// Room is the single-writer serialization domain for one conversation. Every
// mutating operation, including timer re-entries from the typing machine and
// the liveness monitor, runs under mu; no two events for the same room
// interleave their effects.
type Room struct {
	id  string
	log store.Log

	mu           sync.Mutex
	participants *presence.Registry
	typing       *typing.Machine
	liveness     *liveness.Monitor

	ids          *snowflake.Generator
	historyLimit int
	mirror       *presence.Mirror
	firehose     *firehose.Publisher
	logger       *slog.Logger
	now          func() time.Time
}

func New(id string, log store.Log, opts Options) *Room {
	if opts.HeartbeatPeriod <= 0 {
		opts.HeartbeatPeriod = defaultHeartbeatPeriod
	}
	if opts.TypingExpiry <= 0 {
		opts.TypingExpiry = defaultTypingExpiry
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = store.DefaultHistoryLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Room{
		id:           id,
		log:          log,
		participants: presence.NewRegistry(),
		ids:          opts.IDs,
		historyLimit: opts.HistoryLimit,
		mirror:       opts.Mirror,
		firehose:     opts.Firehose,
		logger:       opts.Logger.With("room", id),
		now:          time.Now,
	}
	r.typing = typing.New(opts.TypingExpiry, r.typingExpired)
	r.liveness = liveness.New(opts.HeartbeatPeriod, r.probe)
	return r
}

func (r *Room) ID() string { return r.id }

// Join registers the connection, starts heartbeat coverage, replays recent
// history privately, acknowledges with a welcome, and announces the join to
// everyone else. The new participant never sees its own user_joined, and it
// receives history before any message broadcast after this call.
func (r *Room) Join(ctx context.Context, userID string, conn presence.Conn) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrBadRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prior := r.participants.Join(userID, conn); prior != nil {
		// Rejoin replaces the old connection; close it explicitly so it
		// cannot linger half-open, and drop any typing state from the
		// previous session.
		_ = prior.Close()
		r.typing.Forget(userID)
		r.logger.Info("connection replaced on rejoin", "user", userID)
	}
	r.liveness.Track(userID)
	r.mirror.Add(r.id, userID)

	history, err := r.log.Recent(ctx, r.historyLimit)
	if err != nil {
		r.retractLocked(userID, conn)
		return fmt.Errorf("load history: %w", err)
	}

	// Nothing has been announced yet, so a join that dies during its own
	// private replay is retracted silently. Other participants must not see
	// a user_left for a user they never saw join.
	if !r.push(conn, model.HistoryEvent(history)) {
		r.retractLocked(userID, conn)
		return fmt.Errorf("deliver history: %w", presence.ErrConnClosed)
	}
	if !r.push(conn, model.WelcomeEvent(userID)) {
		r.retractLocked(userID, conn)
		return fmt.Errorf("deliver welcome: %w", presence.ErrConnClosed)
	}
	r.broadcastOthers(userID, model.UserJoinedEvent(userID))

	r.logger.Info("participant joined", "user", userID, "participants", r.participants.Size())
	return nil
}

// Send durably appends a message and then echoes it to every participant,
// sender included. An append failure aborts before any fan-out.
func (r *Room) Send(ctx context.Context, userID, content string) (model.Message, error) {
	if content == "" {
		return model.Message{}, fmt.Errorf("%w: content is required", ErrBadRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := model.Message{
		ID:        r.ids.Next(),
		UserID:    userID,
		Content:   content,
		Timestamp: r.now().UnixMilli(),
	}
	if err := r.log.Append(ctx, msg); err != nil {
		return model.Message{}, fmt.Errorf("append message: %w", err)
	}

	// Sending implies the author stopped composing.
	if r.typing.Stop(userID) {
		r.broadcastOthers(userID, model.StopTypingEvent(userID))
	}
	r.broadcastAll(model.MessageEvent(msg))
	r.firehose.Publish(r.id, msg)
	return msg, nil
}

// TypingSignal records a keystroke-level typing event. Only currently
// connected participants can be typing.
func (r *Room) TypingSignal(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants.Get(userID); !ok {
		return
	}
	if r.typing.Signal(userID) {
		r.broadcastOthers(userID, model.StartTypingEvent(userID))
	}
}

// TypingStop handles an explicit stop signal. Idempotent: a stop while
// already idle broadcasts nothing.
func (r *Room) TypingStop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.typing.Stop(userID) {
		r.broadcastOthers(userID, model.StopTypingEvent(userID))
	}
}

// typingExpired is the expiry timer's re-entry into the room's serialization
// domain.
func (r *Room) typingExpired(userID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.typing.Expired(userID, gen) {
		r.broadcastOthers(userID, model.StopTypingEvent(userID))
	}
}

// probe is the heartbeat cadence's re-entry into the room's serialization
// domain; a failed ping delivery reaps the dead connection.
func (r *Room) probe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastAll(model.PingEvent())
}

// Disconnect tears down presence, liveness, and typing state for userID and
// announces user_left to the remaining participants. Safe to call more than
// once: later calls find no presence entry and do nothing.
func (r *Room) Disconnect(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnectLocked(userID)
}

// DisconnectConn tears userID down only while conn is still its registered
// connection. Transport teardown paths use this form: after a rejoin replaces
// the connection, the old transport's dying goroutines would otherwise look
// the user up by id and evict the replacement.
func (r *Room) DisconnectConn(userID string, conn presence.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.participants.Get(userID); !ok || current != conn {
		return
	}
	r.disconnectLocked(userID)
}

func (r *Room) disconnectLocked(userID string) {
	conn, ok := r.participants.Get(userID)
	if !ok {
		return
	}
	r.participants.Leave(userID)
	r.liveness.Untrack(userID)
	r.typing.Forget(userID)
	_ = conn.Close()
	r.mirror.Remove(r.id, userID)

	r.broadcastAll(model.UserLeftEvent(userID))
	r.logger.Info("participant left", "user", userID, "participants", r.participants.Size())
}

// retractLocked undoes a registration whose join never completed. Unlike
// disconnectLocked it broadcasts nothing.
func (r *Room) retractLocked(userID string, conn presence.Conn) {
	r.participants.Leave(userID)
	r.liveness.Untrack(userID)
	r.typing.Forget(userID)
	_ = conn.Close()
	r.mirror.Remove(r.id, userID)
}

// Info combines the live participant count with the stored message count.
func (r *Room) Info(ctx context.Context) (Info, error) {
	count, err := r.log.Count(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("count messages: %w", err)
	}
	return Info{
		ParticipantCount: r.participants.Size(),
		MessageCount:     count,
	}, nil
}

// Participants returns the current participant ids.
func (r *Room) Participants() []string {
	return r.participants.Users()
}

// Messages pages through the stored log, newest window first, each page in
// chronological order.
func (r *Room) Messages(ctx context.Context, limit, offset int) ([]model.Message, error) {
	return r.log.Page(ctx, limit, offset)
}

// HandleInbound parses and dispatches one raw frame from userID's
// connection. Malformed frames are answered with a private error event and
// ErrProtocol; other participants never observe them.
func (r *Room) HandleInbound(ctx context.Context, userID string, raw []byte) error {
	var frame model.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.sendError(userID, "invalid message format")
		return fmt.Errorf("%w: decode frame: %v", ErrProtocol, err)
	}

	switch frame.Type {
	case model.EventMessage:
		if _, err := r.Send(ctx, userID, frame.Content); err != nil {
			switch {
			case errors.Is(err, ErrBadRequest):
				r.sendError(userID, "content is required")
			case errors.Is(err, store.ErrStorage):
				r.sendError(userID, "failed to store message")
			}
			return err
		}
		return nil
	case model.EventStartTyping:
		r.TypingSignal(userID)
		return nil
	case model.EventStopTyping:
		r.TypingStop(userID)
		return nil
	default:
		r.sendError(userID, "unknown event type")
		return fmt.Errorf("%w: unknown event type %q", ErrProtocol, frame.Type)
	}
}

func (r *Room) sendError(userID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.participants.Get(userID)
	if !ok {
		return
	}
	r.sendTo(userID, conn, model.ErrorEvent(message))
}

// push delivers one event to a single connection with no teardown on
// failure. Callers must hold r.mu.
func (r *Room) push(conn presence.Conn, ev model.Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("encode event", "type", ev.Type, "error", err)
		return false
	}
	if !conn.IsOpen() {
		return false
	}
	if err := conn.Send(payload); err != nil {
		r.logger.Warn("send failed", "type", ev.Type, "error", err)
		return false
	}
	return true
}

// sendTo delivers one event to a single connection. A failed delivery tears
// the participant down before returning. Callers must hold r.mu.
func (r *Room) sendTo(userID string, conn presence.Conn, ev model.Event) bool {
	if r.push(conn, ev) {
		return true
	}
	r.disconnectLocked(userID)
	return false
}

// broadcastAll fans an event out to every registered participant. Callers
// must hold r.mu.
func (r *Room) broadcastAll(ev model.Event) {
	r.deliver(r.participants.All(), ev)
}

// broadcastOthers fans an event out to everyone except exclude. Callers must
// hold r.mu.
func (r *Room) broadcastOthers(exclude string, ev model.Event) {
	entries := r.participants.All()
	filtered := entries[:0]
	for _, e := range entries {
		if e.UserID != exclude {
			filtered = append(filtered, e)
		}
	}
	r.deliver(filtered, ev)
}

// deliver iterates a snapshot, collects dead entries, and removes them only
// after iteration completes. Dead participants are fully cleaned up before
// the broadcast returns.
func (r *Room) deliver(entries []presence.Entry, ev model.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("encode event", "type", ev.Type, "error", err)
		return
	}

	var dead []string
	for _, e := range entries {
		if !e.Conn.IsOpen() {
			dead = append(dead, e.UserID)
			continue
		}
		if err := e.Conn.Send(payload); err != nil {
			r.logger.Warn("broadcast delivery failed", "user", e.UserID, "type", ev.Type, "error", err)
			dead = append(dead, e.UserID)
		}
	}
	for _, userID := range dead {
		r.disconnectLocked(userID)
	}
}
