// Package webhook exposes the inbound HTTP surface: the signed mention-event
// endpoint and its health probe.
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forumkit/mentiond/internal/domain"
	"github.com/forumkit/mentiond/internal/event"
	"github.com/forumkit/mentiond/internal/respond"
	"github.com/forumkit/mentiond/internal/server"
	"github.com/forumkit/mentiond/internal/signature"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "x-signature"

// maxBodyBytes bounds the inbound request body.
const maxBodyBytes = 1 << 20

// Handler serves the webhook endpoints.
type Handler struct {
	verifier     *signature.Verifier
	normalizer   *event.Normalizer
	orchestrator *respond.Orchestrator
	logger       *slog.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(verifier *signature.Verifier, normalizer *event.Normalizer, orchestrator *respond.Orchestrator, logger *slog.Logger) *Handler {
	return &Handler{
		verifier:     verifier,
		normalizer:   normalizer,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Routes mounts the webhook endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/webhook/{agentID}", h.Receive)
	r.Get("/webhook/{agentID}", h.Health)
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Success"})
}

// Receive processes one signed mention event. The body is decoded before the
// cryptographic check so the tenant key can be looked up, but the signature
// itself is computed over the raw body bytes as transmitted.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	server.AddLogField(ctx, "agent_id", chi.URLParam(r, "agentID"))

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, domain.ErrInvalidRequest("unreadable request body"))
		return
	}

	var raw event.RawEvent
	if err := json.Unmarshal(rawBody, &raw); err != nil {
		writeError(w, domain.ErrInvalidRequest("malformed event body"))
		return
	}
	if err := raw.Validate(); err != nil {
		server.AddError(ctx, err)
		writeError(w, domain.ErrInvalidRequest(err.Error()))
		return
	}
	server.AddLogField(ctx, "community_id", raw.CommunityID)

	if err := h.verifier.Verify(rawBody, r.Header.Get(SignatureHeader), raw.CommunityID); err != nil {
		server.AddError(ctx, err)
		// Unknown tenant and bad signature share a response shape; only the
		// log distinguishes them.
		writeError(w, domain.ErrAuthentication("unauthorized"))
		return
	}

	normalized, err := h.normalizer.Normalize(ctx, &raw)
	if err != nil {
		server.AddError(ctx, err)
		if errors.Is(err, event.ErrFetchFailed) {
			writeError(w, domain.ErrInvalidRequest("content fetch failed"))
			return
		}
		writeError(w, domain.ErrServer("internal error"))
		return
	}

	outcome, err := h.orchestrator.Handle(ctx, normalized)
	if err != nil {
		server.AddError(ctx, err)
		writeError(w, domain.ErrServer("internal error"))
		return
	}

	server.AddLogField(ctx, "outcome", string(outcome.State))
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, perr *domain.PipelineError) {
	writeJSON(w, perr.HTTPStatusCode(), map[string]string{"error": perr.Message})
}
