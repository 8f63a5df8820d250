package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/myst-6/messaging/pkg/model"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		room_id   TEXT    NOT NULL,
		id        INTEGER NOT NULL,
		user_id   TEXT    NOT NULL,
		content   TEXT    NOT NULL,
		timestamp INTEGER NOT NULL,
		PRIMARY KEY (room_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_room_time ON messages (room_id, timestamp)`,
}

// SQLite is the primary durable backend. One table holds all rooms, keyed by
// room id; the unique (room_id, id) key rejects duplicate message ids.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and initializes the
// schema idempotently.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Room(roomID string) Log {
	return &sqliteLog{db: s.db, roomID: roomID}
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteLog struct {
	db     *sql.DB
	roomID string
}

func (l *sqliteLog) Append(ctx context.Context, msg model.Message) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO messages (room_id, id, user_id, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
		l.roomID, msg.ID, msg.UserID, msg.Content, msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("%w: insert message %d: %v", ErrStorage, msg.ID, err)
	}
	return nil
}

func (l *sqliteLog) Recent(ctx context.Context, limit int) ([]model.Message, error) {
	return l.Page(ctx, limit, 0)
}

func (l *sqliteLog) Page(ctx context.Context, limit, offset int) ([]model.Message, error) {
	limit, offset = normalizeWindow(limit, offset)
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, content, timestamp
		 FROM messages
		 WHERE room_id = ?
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ? OFFSET ?`,
		l.roomID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query messages: %v", ErrStorage, err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", ErrStorage, err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate messages: %v", ErrStorage, err)
	}
	return reverse(msgs), nil
}

func (l *sqliteLog) Count(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE room_id = ?`, l.roomID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count messages: %v", ErrStorage, err)
	}
	return count, nil
}
