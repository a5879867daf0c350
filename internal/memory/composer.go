package memory

import (
	"context"
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultTokenBudget bounds how much conversation history is fed to the
// generation and classification collaborators.
const DefaultTokenBudget = 4096

// State is the composed conversation context handed to the decision engine
// and the generation collaborators: the triggering entry plus as much prior
// history as fits the token budget, newest kept first.
type State struct {
	// Current is the entry that triggered this pipeline run.
	Current Entry
	// History is the conversation so far, oldest first, including Current if
	// it was already recorded.
	History []Entry
	// Extra carries event-scoped annotations such as the thread title.
	Extra map[string]string
}

// Composer builds conversation state from stored history under a token
// budget, counted with the o200k_base encoding.
type Composer struct {
	store  Store
	budget int
	codec  tokenizer.Codec
}

// NewComposer creates a composer over store. A budget of 0 uses
// DefaultTokenBudget.
func NewComposer(store Store, budget int) (*Composer, error) {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	codec, err := tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		return nil, fmt.Errorf("get tokenizer: %w", err)
	}
	return &Composer{store: store, budget: budget, codec: codec}, nil
}

// Compose loads the conversation history for entry and trims it, oldest
// entries first, until the total text fits the token budget. The triggering
// entry itself is never trimmed.
func (c *Composer) Compose(ctx context.Context, entry Entry, extra map[string]string) (*State, error) {
	history, err := c.store.History(ctx, entry.ConversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	remaining := c.budget - c.countTokens(entry.Text)

	// Walk newest to oldest, keeping what fits; cut points to the oldest
	// entry that made it in.
	cut := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].MessageID == entry.MessageID {
			cut = i
			continue
		}
		cost := c.countTokens(history[i].Text)
		if cost > remaining {
			break
		}
		remaining -= cost
		cut = i
	}

	return &State{
		Current: entry,
		History: history[cut:],
		Extra:   extra,
	}, nil
}

func (c *Composer) countTokens(text string) int {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		// Fall back to a crude estimate rather than failing composition.
		return len(text) / 4
	}
	return len(ids)
}
