package llm

import (
	"strings"
	"testing"

	"github.com/forumkit/mentiond/internal/memory"
)

func TestSplitAction(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantReply  string
		wantAction string
	}{
		{"no action", "just a reply", "just a reply", ""},
		{"trailing action", "here you go\nACTION: follow_thread", "here you go", "follow_thread"},
		{"action only", "ACTION: escalate", "", "escalate"},
		{"action mid-text ignored", "ACTION: nope\nreal reply", "ACTION: nope\nreal reply", ""},
		{"whitespace around directive", "done\n  ACTION:   archive  ", "done", "archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, action := splitAction(tt.text)
			if reply != tt.wantReply {
				t.Errorf("reply = %q, want %q", reply, tt.wantReply)
			}
			if action != tt.wantAction {
				t.Errorf("action = %q, want %q", action, tt.wantAction)
			}
		})
	}
}

func TestBuildPrompts_IncludeConversation(t *testing.T) {
	state := &memory.State{
		Current: memory.Entry{MessageID: "msg-2", ActorName: "alice", Text: "hi @agent"},
		History: []memory.Entry{
			{MessageID: "msg-1", ActorName: "bob", Text: "opening post"},
			{MessageID: "msg-2", ActorName: "alice", Text: "hi @agent"},
		},
		Extra: map[string]string{"thread_title": "Welcome"},
	}

	gen := buildGeneratePrompt(state)
	for _, want := range []string{"Welcome", "[bob] opening post", "[alice] hi @agent"} {
		if !strings.Contains(gen, want) {
			t.Errorf("generate prompt missing %q", want)
		}
	}
	// The current message is already in history: no duplicate line.
	if strings.Count(gen, "[alice] hi @agent") != 1 {
		t.Error("generate prompt duplicates the current message")
	}

	classify := buildClassifyPrompt(state)
	if !strings.Contains(classify, "RESPOND or IGNORE") {
		t.Error("classify prompt missing verdict instruction")
	}
	if !strings.Contains(classify, "[alice] hi @agent") {
		t.Error("classify prompt missing current message")
	}
}

func TestBuildGeneratePrompt_CurrentNotInHistory(t *testing.T) {
	state := &memory.State{
		Current: memory.Entry{MessageID: "msg-9", ActorName: "carol", Text: "ping @agent"},
		History: []memory.Entry{
			{MessageID: "msg-1", ActorName: "bob", Text: "older"},
		},
	}

	gen := buildGeneratePrompt(state)
	if !strings.Contains(gen, "[carol] ping @agent") {
		t.Error("generate prompt missing the triggering message")
	}
}
