// Package identity derives stable (conversation, actor, message) identifiers
// from heterogeneous event shapes so that repeated or out-of-order deliveries
// always map to the same records.
package identity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strconv"

	"github.com/forumkit/mentiond/internal/event"
)

// Triple is the deterministic identity key set for one message.
type Triple struct {
	ConversationID string
	ActorID        string
	MessageID      string
}

// Self is the agent's own canonical identity, resolved once at startup from
// the conversation API.
type Self struct {
	// UserID is the agent's numeric user id in the community.
	UserID int64
	// ActorID is the canonical actor identifier the agent's own messages are
	// attributed to, inbound and outbound alike.
	ActorID string
	// Name is the agent's display name, used for mention detection.
	Name string
}

// SelfActorID derives the canonical agent actor id for a numeric user id.
func SelfActorID(userID int64) string {
	return derive("actor", "agent", strconv.FormatInt(userID, 10))
}

// Resolver derives identity triples. It is stateless; derivation is a pure
// function of its inputs.
type Resolver struct{}

// ForEvent derives the triple for an inbound event.
//
// The conversation id covers (community, thread) so every message in a thread
// lands in one conversation regardless of comment nesting. The message id
// covers (content type, comment-or-thread id) so a thread-level event and a
// comment-level event can never collide, and a redelivered event always
// derives the same id. Events authored by the agent itself are attributed to
// the canonical self actor rather than a derived pseudo-actor, which is what
// makes the self-mention guard work.
func (Resolver) ForEvent(ev *event.NormalizedEvent, self Self) Triple {
	actorID := self.ActorID
	if ev.AuthorUserID != self.UserID {
		actorID = derive("actor", "user", strconv.FormatInt(ev.AuthorUserID, 10))
	}

	objectID := ev.ThreadID
	if ev.ContentType == event.ContentTypeComment && ev.CommentID != nil {
		objectID = *ev.CommentID
	}

	return Triple{
		ConversationID: conversationID(ev.CommunityID, ev.ThreadID),
		ActorID:        actorID,
		MessageID:      derive("message", string(ev.ContentType), strconv.FormatInt(objectID, 10)),
	}
}

// ForReply derives the triple for a reply the agent published. Replies are
// comments, keyed by their own comment id and attributed to the canonical
// self actor, so they are retrievable and dedupable by the same mechanism as
// inbound events.
func (Resolver) ForReply(communityID string, threadID, commentID int64, self Self) Triple {
	return Triple{
		ConversationID: conversationID(communityID, threadID),
		ActorID:        self.ActorID,
		MessageID:      derive("message", string(event.ContentTypeComment), strconv.FormatInt(commentID, 10)),
	}
}

func conversationID(communityID string, threadID int64) string {
	return derive("conversation", communityID, strconv.FormatInt(threadID, 10))
}

// derive hashes a labeled tuple into an opaque identifier. Fields are
// length-prefixed before hashing so no two distinct tuples can produce the
// same byte stream.
func derive(kind string, fields ...string) string {
	h := sha256.New()
	writeField(h, kind)
	for _, f := range fields {
		writeField(h, f)
	}
	sum := h.Sum(nil)
	return kind + "_" + hex.EncodeToString(sum[:16])
}

func writeField(h hash.Hash, field string) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(field)))
	h.Write(length[:])
	h.Write([]byte(field))
}
