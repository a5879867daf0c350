package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalize_InlineSummary(t *testing.T) {
	n := NewNormalizer(testLogger())

	ev := validThreadEvent()
	ev.ObjectSummary = "short mention text"

	got, err := n.Normalize(context.Background(), &ev)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.FullText != "short mention text" {
		t.Errorf("FullText = %q, want inline summary", got.FullText)
	}
}

func TestNormalize_OverflowPrecedence(t *testing.T) {
	const full = "this is the complete, untruncated content of the thread post mentioning @agent"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, full)
	}))
	defer srv.Close()

	n := NewNormalizer(testLogger())

	ev := validThreadEvent()
	ev.ObjectSummary = "this is the complete, untrunc..."
	ev.ContentURL = srv.URL + "/content/42"

	got, err := n.Normalize(context.Background(), &ev)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	// The fetched body wins even though it differs from the summary.
	if got.FullText != full {
		t.Errorf("FullText = %q, want fetched content", got.FullText)
	}
}

func TestNormalize_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	n := NewNormalizer(testLogger())

	ev := validThreadEvent()
	ev.ContentURL = srv.URL + "/missing"

	_, err := n.Normalize(context.Background(), &ev)
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Normalize() error = %v, want ErrFetchFailed", err)
	}
}

func TestNormalize_FetchCountsOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, "content")
	}))
	defer srv.Close()

	n := NewNormalizer(testLogger())

	ev := validThreadEvent()
	ev.ContentURL = srv.URL

	if _, err := n.Normalize(context.Background(), &ev); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch performed %d times, want 1", calls)
	}
}
