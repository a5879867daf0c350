// Package event defines the inbound mention-event schema, its validation
// rules, and the normalizer that materializes overflow content.
package event

import (
	"fmt"
	"strings"
)

// ContentType distinguishes thread-level mentions from comment-level ones.
type ContentType string

const (
	ContentTypeThread  ContentType = "thread"
	ContentTypeComment ContentType = "comment"
)

// MaxSummaryLen is the maximum inline summary size. Summaries longer than
// this are truncated by the sender, which then sets content_url so the full
// text can be fetched separately.
const MaxSummaryLen = 255

// RawEvent is the wire shape of an inbound mention notification.
type RawEvent struct {
	CommunityID   string      `json:"community_id"`
	ProfileName   string      `json:"profile_name"`
	ProfileURL    string      `json:"profile_url"`
	ThreadTitle   string      `json:"thread_title"`
	ObjectURL     string      `json:"object_url"`
	ObjectSummary string      `json:"object_summary"`
	ContentURL    string      `json:"content_url,omitempty"`
	ContentType   ContentType `json:"content_type"`
	ThreadID      int64       `json:"thread_id"`
	CommentID     *int64      `json:"comment_id,omitempty"`
	AuthorUserID  int64       `json:"author_user_id"`
}

// NormalizedEvent is a RawEvent whose full text has been materialized: the
// inline summary when no overflow pointer was sent, the fetched content
// otherwise. FullText is never a silently truncated version of the original.
type NormalizedEvent struct {
	RawEvent

	FullText string
}

// FieldError describes a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError accumulates every field failure in one pass so the sender
// sees all problems at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid event: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Validate checks the event against the schema rules. It returns a
// *ValidationError listing every violated constraint, or nil.
func (ev *RawEvent) Validate() error {
	verr := &ValidationError{}

	if ev.CommunityID == "" {
		verr.add("community_id", "required")
	}
	if ev.ProfileName == "" {
		verr.add("profile_name", "required")
	}

	switch ev.ContentType {
	case ContentTypeThread:
		if ev.CommentID != nil {
			verr.add("comment_id", "must be absent for thread events")
		}
	case ContentTypeComment:
		if ev.CommentID == nil {
			verr.add("comment_id", "required for comment events")
		}
	case "":
		verr.add("content_type", "required")
	default:
		verr.add("content_type", fmt.Sprintf("must be %q or %q", ContentTypeThread, ContentTypeComment))
	}

	if ev.ThreadID <= 0 {
		verr.add("thread_id", "must be a positive integer")
	}
	if ev.AuthorUserID <= 0 {
		verr.add("author_user_id", "must be a positive integer")
	}
	if len(ev.ObjectSummary) > MaxSummaryLen {
		verr.add("object_summary", fmt.Sprintf("must be at most %d characters", MaxSummaryLen))
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
