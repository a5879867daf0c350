// Package memory defines conversation-memory records and the store interface
// the orchestrator records them through. Entries are append-only: created for
// every inbound event and every published reply, never mutated or deleted.
package memory

import (
	"context"
	"time"
)

// Sources attached to entries so context composition can tell where a
// message came from.
const (
	SourceThread  = "community_thread"
	SourceComment = "community_comment"
	SourceReply   = "agent_reply"
)

// Entry is one immutable conversation-memory record, keyed by MessageID.
type Entry struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	ActorID        string    `json:"actor_id"`
	ActorName      string    `json:"actor_name"`
	Text           string    `json:"text"`
	Source         string    `json:"source"`
	RefURL         string    `json:"ref_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists conversation memory. Implementations must treat
// InsertIfAbsent as insert-or-ignore on MessageID so redelivered events
// record exactly once.
type Store interface {
	// InsertIfAbsent records the entry unless one with the same MessageID
	// already exists. It reports whether the entry was inserted.
	InsertIfAbsent(ctx context.Context, entry *Entry) (bool, error)

	// History returns a conversation's entries ordered oldest first. A limit
	// of 0 means no limit.
	History(ctx context.Context, conversationID string, limit int) ([]Entry, error)

	Close() error
}
