// File path: internal/api/compile_handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/fillora/fillora/internal/agent"
	"github.com/fillora/fillora/internal/common"
	"github.com/fillora/fillora/internal/compile"
	"github.com/fillora/fillora/internal/llm"
	"github.com/fillora/fillora/internal/store"
)

type compileRequest struct {
	Prompt string `json:"prompt"`
}

// handleCompile runs one synchronous compilation. Progress lines land on
// the status board for polling; the terminal state comes back in the
// response body. Upstream rate limiting maps to 429 and is never retried
// here.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	id := chi.URLParam(r, "id")
	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("prompt required"))
		return
	}
	conv, err := s.store.Conversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	history, err := s.store.History(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.store.AppendMessage(r.Context(), id, "user", req.Prompt); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.statuses.reset(id)

	result, err := s.controller.Compile(r.Context(), compile.Request{
		ConversationID: id,
		Prompt:         req.Prompt,
		History:        toLLMMessages(history),
		ContextText:    s.compileContext(r.Context(), conv),
		Status: func(line string) {
			s.statuses.push(id, line)
		},
	})
	switch {
	case errors.Is(err, compile.ErrCompileInProgress):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, llm.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err)
		return
	case errors.Is(err, context.Canceled):
		logger.Info("api: compile aborted", "conversation", id)
		writeJSON(w, http.StatusOK, map[string]interface{}{"state": compile.StateIdle, "aborted": true})
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if result.Body != "" {
		if err := s.store.AppendMessage(r.Context(), id, "assistant", result.Body); err != nil {
			logger.Warn("api: assistant message not recorded", "conversation", id, "error", err)
		}
	}
	s.mergeCache.Invalidate(id)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompileAbort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	aborted := s.controller.Abort(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"aborted": aborted})
}

func (s *Server) handleCompileStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running": s.controller.Running(id),
		"status":  s.statuses.recent(id),
	})
}

// compileContext assembles the opaque prompt context: the uploaded
// template followed by the entity registry.
func (s *Server) compileContext(ctx context.Context, conv store.Conversation) string {
	var parts []string
	if strings.TrimSpace(conv.Template) != "" {
		parts = append(parts, "Template to fill:\n"+conv.Template)
	}
	entities, err := s.store.EntitiesFor(ctx, conv.ID)
	if err != nil {
		common.Logger().Warn("api: entity registry load failed", "conversation", conv.ID, "error", err)
	} else if block := agent.FormatEntities(entities); block != "" {
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n\n")
}

func toLLMMessages(msgs []store.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}
