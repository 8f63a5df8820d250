package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gocql/gocql"

	"github.com/myst-6/messaging/pkg/model"
)

// Scylla is the wide-column backend, used as an alternate primary log or as
// the archive target behind the firehose. Rooms are partitions; clustering by
// id DESC keeps the newest messages at the head of the partition.
type Scylla struct {
	session *gocql.Session
}

// OpenScylla connects to the cluster, creating the keyspace and messages
// table if they do not exist yet.
func OpenScylla(hosts []string, keyspace string) (*Scylla, error) {
	sys, err := newScyllaSession(hosts, "system")
	if err != nil {
		return nil, fmt.Errorf("connect system keyspace: %w", err)
	}
	err = sys.Query(fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`,
		keyspace,
	)).Exec()
	sys.Close()
	if err != nil {
		return nil, fmt.Errorf("create keyspace: %w", err)
	}

	session, err := newScyllaSession(hosts, keyspace)
	if err != nil {
		return nil, fmt.Errorf("connect keyspace %s: %w", keyspace, err)
	}

	err = session.Query(`CREATE TABLE IF NOT EXISTS messages (
		room_id text,
		id bigint,
		user_id text,
		content text,
		timestamp bigint,
		PRIMARY KEY (room_id, id)
	) WITH CLUSTERING ORDER BY (id DESC)`).Exec()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("create messages table: %w", err)
	}

	slog.Info("connected to scylla cluster", "hosts", hosts, "keyspace", keyspace)
	return &Scylla{session: session}, nil
}

func newScyllaSession(hosts []string, keyspace string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: 3,
		Min:        100 * time.Millisecond,
		Max:        1 * time.Second,
	}
	return cluster.CreateSession()
}

func (s *Scylla) Room(roomID string) Log {
	return &scyllaLog{session: s.session, roomID: roomID}
}

func (s *Scylla) Close() error {
	s.session.Close()
	return nil
}

type scyllaLog struct {
	session *gocql.Session
	roomID  string
}

func (l *scyllaLog) Append(ctx context.Context, msg model.Message) error {
	err := l.session.Query(
		`INSERT INTO messages (room_id, id, user_id, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
		l.roomID, msg.ID, msg.UserID, msg.Content, msg.Timestamp,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("%w: insert message %d: %v", ErrStorage, msg.ID, err)
	}
	return nil
}

func (l *scyllaLog) Recent(ctx context.Context, limit int) ([]model.Message, error) {
	return l.Page(ctx, limit, 0)
}

// Page reads limit+offset rows and skips the first offset client-side: CQL
// has no OFFSET, and paging offsets here are small UI windows.
func (l *scyllaLog) Page(ctx context.Context, limit, offset int) ([]model.Message, error) {
	limit, offset = normalizeWindow(limit, offset)
	iter := l.session.Query(
		`SELECT id, user_id, content, timestamp FROM messages WHERE room_id = ? LIMIT ?`,
		l.roomID, limit+offset,
	).WithContext(ctx).Iter()

	var msgs []model.Message
	var m model.Message
	skipped := 0
	for iter.Scan(&m.ID, &m.UserID, &m.Content, &m.Timestamp) {
		if skipped < offset {
			skipped++
			continue
		}
		msgs = append(msgs, m)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("%w: iterate messages: %v", ErrStorage, err)
	}
	return reverse(msgs), nil
}

func (l *scyllaLog) Count(ctx context.Context) (int, error) {
	var count int
	err := l.session.Query(
		`SELECT COUNT(*) FROM messages WHERE room_id = ?`, l.roomID,
	).WithContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count messages: %v", ErrStorage, err)
	}
	return count, nil
}
