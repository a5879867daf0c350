// Package llm provides Gemini-backed implementations of the generation and
// classification collaborators.
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/forumkit/mentiond/internal/memory"
	"github.com/forumkit/mentiond/internal/respond"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// actionPrefix marks a trailing directive line in generated output, e.g.
// "ACTION: follow_thread". The directive is stripped from the reply text and
// dispatched separately.
const actionPrefix = "ACTION:"

// Gemini implements respond.Generator and decision.Classifier using the
// Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini collaborator. An empty model selects
// DefaultModel.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate produces a reply for the composed conversation state. A response
// with no text yields (nil, nil), which the orchestrator treats as a soft
// failure.
func (g *Gemini) Generate(ctx context.Context, state *memory.State) (*respond.Generation, error) {
	prompt := buildGeneratePrompt(state)

	text, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if text == "" {
		return nil, nil
	}

	reply, action := splitAction(text)
	if reply == "" {
		return nil, nil
	}
	return &respond.Generation{Text: reply, Action: action}, nil
}

// ShouldRespond asks the model for a binary respond/ignore verdict over the
// conversation state.
func (g *Gemini) ShouldRespond(ctx context.Context, state *memory.State) (bool, error) {
	prompt := buildClassifyPrompt(state)

	text, err := g.complete(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("gemini classify: %w", err)
	}

	verdict := strings.ToUpper(strings.TrimSpace(text))
	return strings.HasPrefix(verdict, "RESPOND"), nil
}

func (g *Gemini) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			out.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func buildGeneratePrompt(state *memory.State) string {
	var b strings.Builder
	b.WriteString("You are a community agent replying to a mention in a discussion thread.\n")
	if title := state.Extra["thread_title"]; title != "" {
		fmt.Fprintf(&b, "Thread: %s\n", title)
	}
	b.WriteString("\nConversation so far:\n")
	writeHistory(&b, state)
	b.WriteString("\nWrite a concise, helpful reply to the last message. ")
	b.WriteString("If a follow-up action is needed, end with a line starting with \"ACTION: \".\n")
	return b.String()
}

func buildClassifyPrompt(state *memory.State) string {
	var b strings.Builder
	b.WriteString("Decide whether the agent should reply to the last message in this conversation.\n\n")
	writeHistory(&b, state)
	b.WriteString("\nAnswer with exactly one word: RESPOND or IGNORE.\n")
	return b.String()
}

func writeHistory(b *strings.Builder, state *memory.State) {
	for _, entry := range state.History {
		name := entry.ActorName
		if name == "" {
			name = entry.ActorID
		}
		fmt.Fprintf(b, "[%s] %s\n", name, entry.Text)
	}
	if len(state.History) == 0 || state.History[len(state.History)-1].MessageID != state.Current.MessageID {
		name := state.Current.ActorName
		if name == "" {
			name = state.Current.ActorID
		}
		fmt.Fprintf(b, "[%s] %s\n", name, state.Current.Text)
	}
}

// splitAction separates a trailing action directive from the reply body.
func splitAction(text string) (reply, action string) {
	lines := strings.Split(text, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if strings.HasPrefix(last, actionPrefix) {
		action = strings.TrimSpace(strings.TrimPrefix(last, actionPrefix))
		reply = strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n"))
		return reply, action
	}
	return strings.TrimSpace(text), ""
}
