// Package community implements the HTTP client for the conversation API the
// agent replies through.
package community

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production conversation API endpoint.
const DefaultBaseURL = "https://api.forumkit.dev/v1"

// Profile is the agent's own identity as the conversation API sees it.
type Profile struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// ReplyRequest describes a reply to post. ParentCommentID nests the reply
// under a comment; nil posts at thread level. DedupKey, when set, is sent as
// an Idempotency-Key header so the API can drop duplicate submissions.
type ReplyRequest struct {
	ThreadID        int64
	Body            string
	ParentCommentID *int64
	DedupKey        string
}

// Reply is a successfully published reply.
type Reply struct {
	ID          int64     `json:"id"`
	ThreadID    int64     `json:"thread_id"`
	CommunityID string    `json:"community_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	ContentURL  string    `json:"content_url,omitempty"`
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client talks to the conversation API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client authenticating with apiKey.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelfIdentity fetches the agent's own profile.
func (c *Client) SelfIdentity(ctx context.Context) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/agents/me", nil)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := c.do(req, &profile); err != nil {
		return nil, fmt.Errorf("fetch self identity: %w", err)
	}
	return &profile, nil
}

// PostReply publishes a reply in the given thread. The call is not retried:
// without a server-honored idempotency guarantee a blind retry risks a
// duplicate post.
func (c *Client) PostReply(ctx context.Context, reply ReplyRequest) (*Reply, error) {
	payload := map[string]any{
		"body": reply.Body,
	}
	if reply.ParentCommentID != nil {
		payload["parent_comment_id"] = *reply.ParentCommentID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/threads/%d/comments", c.baseURL, reply.ThreadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if reply.DedupKey != "" {
		req.Header.Set("Idempotency-Key", reply.DedupKey)
	}

	var posted Reply
	if err := c.do(req, &posted); err != nil {
		return nil, fmt.Errorf("post reply: %w", err)
	}
	return &posted, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// parseAPIError extracts a short error description from a failed response.
func parseAPIError(resp *http.Response) error {
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
	}
	return fmt.Errorf("api error (status %d)", resp.StatusCode)
}
