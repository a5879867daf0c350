// Package decision decides whether the agent should reply to a mention
// event. Guards are ordered by cost: identity check, substring check, then
// the model-backed classifier, so the common irrelevant case never reaches
// the expensive stage.
package decision

import (
	"context"
	"log/slog"
	"strings"

	"github.com/forumkit/mentiond/internal/event"
	"github.com/forumkit/mentiond/internal/identity"
	"github.com/forumkit/mentiond/internal/memory"
)

// Classifier is the external respond/do-not-respond collaborator. It sees the
// composed conversation state and returns a binary signal.
type Classifier interface {
	ShouldRespond(ctx context.Context, state *memory.State) (bool, error)
}

// Engine applies the sequential response guards.
type Engine struct {
	classifier Classifier
	logger     *slog.Logger
}

// NewEngine creates an engine backed by classifier.
func NewEngine(classifier Classifier, logger *slog.Logger) *Engine {
	return &Engine{classifier: classifier, logger: logger}
}

// ShouldRespond reports whether a reply should be generated, short-circuiting
// on the first failed guard. The classifier's verdict is returned verbatim.
func (e *Engine) ShouldRespond(ctx context.Context, ev *event.NormalizedEvent, self identity.Self, state *memory.State) (bool, error) {
	if ev.AuthorUserID == self.UserID {
		e.logger.Debug("skipping self-authored event",
			slog.Int64("author_user_id", ev.AuthorUserID),
		)
		return false, nil
	}

	if !mentions(ev.FullText, self.Name) {
		e.logger.Debug("event does not mention agent",
			slog.String("agent", self.Name),
		)
		return false, nil
	}

	return e.classifier.ShouldRespond(ctx, state)
}

// mentions reports whether text references the agent by name, with or
// without an @ prefix, case-insensitively.
func mentions(text, name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(name))
}
