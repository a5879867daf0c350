package respond

import (
	"context"
	"log/slog"

	"github.com/forumkit/mentiond/internal/memory"
)

// LogDispatcher is a Dispatcher that records effects in the structured log.
// It stands in when no external action processor or evaluator is wired.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a logging dispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) ProcessActions(ctx context.Context, action string, state *memory.State) error {
	d.logger.Info("action directive received",
		slog.String("action", action),
		slog.String("conversation_id", state.Current.ConversationID),
	)
	return nil
}

func (d *LogDispatcher) Evaluate(ctx context.Context, state *memory.State) error {
	d.logger.Debug("conversation evaluated",
		slog.String("conversation_id", state.Current.ConversationID),
		slog.Int("history_len", len(state.History)),
	)
	return nil
}
