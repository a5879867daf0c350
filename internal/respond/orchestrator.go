// Package respond drives a verified, normalized mention event through the
// response pipeline: record inbound memory, decide, generate, publish, record
// the reply, and fire follow-up effects.
package respond

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forumkit/mentiond/internal/community"
	"github.com/forumkit/mentiond/internal/decision"
	"github.com/forumkit/mentiond/internal/event"
	"github.com/forumkit/mentiond/internal/identity"
	"github.com/forumkit/mentiond/internal/memory"
)

// StateName labels a stage of the per-event state machine.
type StateName string

const (
	StateMemoryRecorded StateName = "memory_recorded"
	StateDecided        StateName = "decided"
	StateSkipped        StateName = "skipped"
	StateGenerating     StateName = "generating"
	StateGenerated      StateName = "generated"
	StatePublished      StateName = "published"
	StateReplyRecorded  StateName = "reply_recorded"
	StateEffected       StateName = "effected"
)

// Generation is the text-generation collaborator's result. Action, when set,
// is a follow-up directive dispatched after the reply is recorded.
type Generation struct {
	Text   string
	Action string
}

// Generator is the external text-generation collaborator. Returning (nil,
// nil) means no usable result: the pipeline aborts softly without publishing.
type Generator interface {
	Generate(ctx context.Context, state *memory.State) (*Generation, error)
}

// Publisher posts replies to the conversation API.
type Publisher interface {
	PostReply(ctx context.Context, reply community.ReplyRequest) (*community.Reply, error)
}

// Dispatcher handles post-response effects: follow-up action directives and
// the conversation evaluation hook that observes responses and non-responses
// alike.
type Dispatcher interface {
	ProcessActions(ctx context.Context, action string, state *memory.State) error
	Evaluate(ctx context.Context, state *memory.State) error
}

// Outcome summarizes how far an event travelled through the state machine.
type Outcome struct {
	State   StateName
	Replied bool
	ReplyID int64
}

// Orchestrator owns the end-to-end response sequence for one event. Each
// event is processed on its own goroutine with no cross-request state beyond
// the injected collaborators, which are themselves safe for concurrent use.
type Orchestrator struct {
	store      memory.Store
	composer   *memory.Composer
	engine     *decision.Engine
	generator  Generator
	publisher  Publisher
	dispatcher Dispatcher
	resolver   identity.Resolver
	self       identity.Self
	logger     *slog.Logger
}

// New creates an orchestrator.
func New(
	store memory.Store,
	composer *memory.Composer,
	engine *decision.Engine,
	generator Generator,
	publisher Publisher,
	dispatcher Dispatcher,
	self identity.Self,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		composer:   composer,
		engine:     engine,
		generator:  generator,
		publisher:  publisher,
		dispatcher: dispatcher,
		self:       self,
		logger:     logger,
	}
}

// Handle runs the state machine for one normalized event.
//
// The inbound entry is recorded before any decision logic so skipped mentions
// still enter conversation history. Publishing is not retried; a publish
// failure is fatal for the event while the already-recorded inbound entry
// remains valid. If the process dies between recording and publishing, a
// redelivery re-inserts idempotently but may publish again — the dedup key
// derived from the message id is handed to the publisher to let the
// downstream API suppress the duplicate when it supports idempotency keys.
func (o *Orchestrator) Handle(ctx context.Context, ev *event.NormalizedEvent) (*Outcome, error) {
	triple := o.resolver.ForEvent(ev, o.self)

	inbound := entryFromEvent(ev, triple)
	inserted, err := o.store.InsertIfAbsent(ctx, inbound)
	if err != nil {
		return nil, fmt.Errorf("record inbound memory: %w", err)
	}
	o.transition(triple.MessageID, StateMemoryRecorded, slog.Bool("inserted", inserted))

	state, err := o.composer.Compose(ctx, *inbound, map[string]string{
		"thread_title": ev.ThreadTitle,
		"profile_name": ev.ProfileName,
		"object_url":   ev.ObjectURL,
	})
	if err != nil {
		return nil, fmt.Errorf("compose conversation state: %w", err)
	}

	respond, err := o.engine.ShouldRespond(ctx, ev, o.self, state)
	if err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}
	o.transition(triple.MessageID, StateDecided, slog.Bool("respond", respond))

	if !respond {
		o.evaluate(ctx, state)
		o.transition(triple.MessageID, StateSkipped)
		return &Outcome{State: StateSkipped}, nil
	}

	o.transition(triple.MessageID, StateGenerating)
	gen, err := o.generator.Generate(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}
	if gen == nil || gen.Text == "" {
		// Soft failure: no reply is posted, the inbound record stands.
		o.logger.Warn("generator returned no usable result",
			slog.String("message_id", triple.MessageID),
		)
		return &Outcome{State: StateGenerating}, nil
	}
	o.transition(triple.MessageID, StateGenerated)

	reply, err := o.publisher.PostReply(ctx, community.ReplyRequest{
		ThreadID:        ev.ThreadID,
		Body:            gen.Text,
		ParentCommentID: parentCommentID(ev),
		DedupKey:        triple.MessageID,
	})
	if err != nil {
		return nil, fmt.Errorf("publish reply: %w", err)
	}
	o.transition(triple.MessageID, StatePublished, slog.Int64("reply_id", reply.ID))

	communityID := reply.CommunityID
	if communityID == "" {
		communityID = ev.CommunityID
	}
	replyTriple := o.resolver.ForReply(communityID, reply.ThreadID, reply.ID, o.self)
	outbound := &memory.Entry{
		MessageID:      replyTriple.MessageID,
		ConversationID: replyTriple.ConversationID,
		ActorID:        replyTriple.ActorID,
		ActorName:      o.self.Name,
		Text:           reply.Body,
		Source:         memory.SourceReply,
		RefURL:         reply.ContentURL,
		CreatedAt:      reply.CreatedAt,
	}
	if _, err := o.store.InsertIfAbsent(ctx, outbound); err != nil {
		return nil, fmt.Errorf("record reply memory: %w", err)
	}
	o.transition(triple.MessageID, StateReplyRecorded)

	if gen.Action != "" {
		if err := o.dispatcher.ProcessActions(ctx, gen.Action, state); err != nil {
			o.logger.Error("action dispatch failed",
				slog.String("message_id", triple.MessageID),
				slog.String("error", err.Error()),
			)
		}
	}
	o.evaluate(ctx, state)
	o.transition(triple.MessageID, StateEffected)

	return &Outcome{State: StateEffected, Replied: true, ReplyID: reply.ID}, nil
}

// evaluate runs the post-response evaluation hook. Evaluation observes
// non-responses too, so failures are logged rather than failing the event.
func (o *Orchestrator) evaluate(ctx context.Context, state *memory.State) {
	if err := o.dispatcher.Evaluate(ctx, state); err != nil {
		o.logger.Error("conversation evaluation failed",
			slog.String("conversation_id", state.Current.ConversationID),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Orchestrator) transition(messageID string, state StateName, attrs ...slog.Attr) {
	all := append([]slog.Attr{
		slog.String("message_id", messageID),
		slog.String("state", string(state)),
	}, attrs...)
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "pipeline transition", all...)
}

// entryFromEvent converts an inbound event into its conversation-memory
// record.
func entryFromEvent(ev *event.NormalizedEvent, triple identity.Triple) *memory.Entry {
	source := memory.SourceThread
	if ev.ContentType == event.ContentTypeComment {
		source = memory.SourceComment
	}
	return &memory.Entry{
		MessageID:      triple.MessageID,
		ConversationID: triple.ConversationID,
		ActorID:        triple.ActorID,
		ActorName:      ev.ProfileName,
		Text:           ev.FullText,
		Source:         source,
		RefURL:         ev.ObjectURL,
	}
}

// parentCommentID returns the comment to nest the reply under, or nil for a
// thread-level reply.
func parentCommentID(ev *event.NormalizedEvent) *int64 {
	if ev.ContentType == event.ContentTypeComment {
		return ev.CommentID
	}
	return nil
}
