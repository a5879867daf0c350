package inmem

import (
	"context"
	"testing"

	"github.com/forumkit/mentiond/internal/memory"
)

func entry(messageID, conversationID, text string) *memory.Entry {
	return &memory.Entry{
		MessageID:      messageID,
		ConversationID: conversationID,
		ActorID:        "actor_1",
		Text:           text,
		Source:         memory.SourceThread,
	}
}

func TestInsertIfAbsent_Idempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	inserted, err := s.InsertIfAbsent(ctx, entry("msg-1", "conv-1", "hello"))
	if err != nil {
		t.Fatalf("InsertIfAbsent() error = %v", err)
	}
	if !inserted {
		t.Error("first insert reported not inserted")
	}

	inserted, err = s.InsertIfAbsent(ctx, entry("msg-1", "conv-1", "hello again"))
	if err != nil {
		t.Fatalf("InsertIfAbsent() error = %v", err)
	}
	if inserted {
		t.Error("duplicate insert reported inserted")
	}

	history, err := s.History(ctx, "conv-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("History() returned %d entries, want 1", len(history))
	}
	// The original text wins; entries are never mutated.
	if history[0].Text != "hello" {
		t.Errorf("History()[0].Text = %q, want original %q", history[0].Text, "hello")
	}
}

func TestHistory_OrderAndLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, e := range []*memory.Entry{
		entry("msg-1", "conv-1", "first"),
		entry("msg-2", "conv-1", "second"),
		entry("msg-3", "conv-1", "third"),
		entry("msg-4", "conv-2", "elsewhere"),
	} {
		if _, err := s.InsertIfAbsent(ctx, e); err != nil {
			t.Fatalf("InsertIfAbsent() error = %v", err)
		}
	}

	history, err := s.History(ctx, "conv-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History() returned %d entries, want 3", len(history))
	}
	for i, want := range []string{"first", "second", "third"} {
		if history[i].Text != want {
			t.Errorf("History()[%d].Text = %q, want %q", i, history[i].Text, want)
		}
	}

	limited, err := s.History(ctx, "conv-1", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("History(limit=2) returned %d entries, want 2", len(limited))
	}
	// Newest two, still oldest first.
	if limited[0].Text != "second" || limited[1].Text != "third" {
		t.Errorf("History(limit=2) = [%q, %q], want newest two oldest-first",
			limited[0].Text, limited[1].Text)
	}
}

func TestHistory_UnknownConversation(t *testing.T) {
	s := New()

	history, err := s.History(context.Background(), "missing", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("History() returned %d entries for unknown conversation, want 0", len(history))
	}
}
