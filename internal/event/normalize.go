package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrFetchFailed indicates the overflow-content fetch did not succeed. The
// content URL points at a first-party object store, so a failure is treated
// as a caller or configuration problem and is not retried.
var ErrFetchFailed = errors.New("overflow content fetch failed")

// maxContentBytes caps how much overflow content a single event may pull in.
const maxContentBytes = 1 << 20

// NormalizerOption configures the normalizer.
type NormalizerOption func(*Normalizer)

// WithHTTPClient sets a custom HTTP client for content fetches.
func WithHTTPClient(client *http.Client) NormalizerOption {
	return func(n *Normalizer) {
		n.httpClient = client
	}
}

// Normalizer materializes the full text of an event. Each event fetches
// independently; fetched content is not cached.
type Normalizer struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNormalizer creates a normalizer with a 15 second default fetch timeout.
func NewNormalizer(logger *slog.Logger, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the event with its full text resolved. When content_url
// is absent the inline summary is the full text. When present, the pointed-to
// content replaces the summary entirely; a failed fetch rejects the event
// rather than processing it with partial text.
func (n *Normalizer) Normalize(ctx context.Context, ev *RawEvent) (*NormalizedEvent, error) {
	if ev.ContentURL == "" {
		return &NormalizedEvent{RawEvent: *ev, FullText: ev.ObjectSummary}, nil
	}

	text, err := n.fetch(ctx, ev.ContentURL)
	if err != nil {
		n.logger.Warn("overflow content fetch failed",
			slog.String("content_url", ev.ContentURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return &NormalizedEvent{RawEvent: *ev, FullText: text}, nil
}

func (n *Normalizer) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return "", err
	}

	return string(body), nil
}
