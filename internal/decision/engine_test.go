package decision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/forumkit/mentiond/internal/event"
	"github.com/forumkit/mentiond/internal/identity"
	"github.com/forumkit/mentiond/internal/memory"
)

type mockClassifier struct {
	verdict bool
	err     error
	calls   int
}

func (m *mockClassifier) ShouldRespond(ctx context.Context, state *memory.State) (bool, error) {
	m.calls++
	return m.verdict, m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var self = identity.Self{UserID: 99, ActorID: identity.SelfActorID(99), Name: "agent"}

func mentionEvent(author int64, text string) *event.NormalizedEvent {
	return &event.NormalizedEvent{
		RawEvent: event.RawEvent{
			CommunityID:  "acme",
			ContentType:  event.ContentTypeThread,
			ThreadID:     1,
			AuthorUserID: author,
		},
		FullText: text,
	}
}

func TestShouldRespond_SelfFilter(t *testing.T) {
	classifier := &mockClassifier{verdict: true}
	e := NewEngine(classifier, testLogger())

	// Self-authored, even with an explicit mention.
	got, err := e.ShouldRespond(context.Background(), mentionEvent(99, "hey @agent"), self, &memory.State{})
	if err != nil {
		t.Fatalf("ShouldRespond() error = %v", err)
	}
	if got {
		t.Error("ShouldRespond() = true for self-authored event")
	}
	if classifier.calls != 0 {
		t.Errorf("classifier called %d times for self-authored event, want 0", classifier.calls)
	}
}

func TestShouldRespond_NoMention(t *testing.T) {
	classifier := &mockClassifier{verdict: true}
	e := NewEngine(classifier, testLogger())

	got, err := e.ShouldRespond(context.Background(), mentionEvent(42, "nothing relevant here"), self, &memory.State{})
	if err != nil {
		t.Fatalf("ShouldRespond() error = %v", err)
	}
	if got {
		t.Error("ShouldRespond() = true without a mention")
	}
	if classifier.calls != 0 {
		t.Errorf("classifier called %d times without a mention, want 0", classifier.calls)
	}
}

func TestShouldRespond_DelegatesToClassifier(t *testing.T) {
	tests := []struct {
		name    string
		verdict bool
	}{
		{"classifier says respond", true},
		{"classifier says ignore", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &mockClassifier{verdict: tt.verdict}
			e := NewEngine(classifier, testLogger())

			got, err := e.ShouldRespond(context.Background(), mentionEvent(42, "hi @agent, thoughts?"), self, &memory.State{})
			if err != nil {
				t.Fatalf("ShouldRespond() error = %v", err)
			}
			if got != tt.verdict {
				t.Errorf("ShouldRespond() = %v, want classifier verdict %v", got, tt.verdict)
			}
			if classifier.calls != 1 {
				t.Errorf("classifier called %d times, want 1", classifier.calls)
			}
		})
	}
}

func TestShouldRespond_MentionMatching(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"at-mention", "hi @agent, help please", true},
		{"bare name", "I think Agent should look at this", true},
		{"case insensitive", "paging @AGENT", true},
		{"absent", "no bots were harmed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &mockClassifier{verdict: true}
			e := NewEngine(classifier, testLogger())

			got, err := e.ShouldRespond(context.Background(), mentionEvent(42, tt.text), self, &memory.State{})
			if err != nil {
				t.Fatalf("ShouldRespond() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldRespond(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestShouldRespond_ClassifierError(t *testing.T) {
	classifier := &mockClassifier{err: errors.New("model unavailable")}
	e := NewEngine(classifier, testLogger())

	_, err := e.ShouldRespond(context.Background(), mentionEvent(42, "hi @agent"), self, &memory.State{})
	if err == nil {
		t.Error("ShouldRespond() = nil error, want classifier error propagated")
	}
}
