// Package sqlite provides a SQLite-backed conversation-memory store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forumkit/mentiond/internal/memory"
)

// Store is a SQLite implementation of memory.Store.
type Store struct {
	db *sql.DB
}

var _ memory.Store = (*Store)(nil)

// New opens the database at path, enables WAL mode, and creates the schema
// if it does not exist.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS conversation_memories (
		message_id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		actor_name TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		source TEXT NOT NULL,
		ref_url TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_conversation
		ON conversation_memories(conversation_id, created_at)`)
	return err
}

func (s *Store) InsertIfAbsent(ctx context.Context, entry *memory.Entry) (bool, error) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversation_memories
			(message_id, conversation_id, actor_id, actor_name, text, source, ref_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.MessageID, entry.ConversationID, entry.ActorID, entry.ActorName,
		entry.Text, entry.Source, entry.RefURL, createdAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert memory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert memory: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) History(ctx context.Context, conversationID string, limit int) ([]memory.Entry, error) {
	query := `SELECT message_id, conversation_id, actor_id, actor_name, text, source, COALESCE(ref_url, ''), created_at
		FROM conversation_memories
		WHERE conversation_id = ?
		ORDER BY created_at ASC, message_id ASC`
	args := []any{conversationID}
	if limit > 0 {
		// Take the newest N, still returned oldest first.
		query = `SELECT * FROM (
			SELECT message_id, conversation_id, actor_id, actor_name, text, source, COALESCE(ref_url, ''), created_at
			FROM conversation_memories
			WHERE conversation_id = ?
			ORDER BY created_at DESC, message_id DESC
			LIMIT ?
		) ORDER BY created_at ASC, message_id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []memory.Entry
	for rows.Next() {
		var e memory.Entry
		if err := rows.Scan(&e.MessageID, &e.ConversationID, &e.ActorID, &e.ActorName,
			&e.Text, &e.Source, &e.RefURL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
