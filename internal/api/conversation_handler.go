// File path: internal/api/conversation_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/fillora/fillora/internal/common"
	"github.com/fillora/fillora/internal/store"
)

type createConversationRequest struct {
	Title string `json:"title"`
}

type templateUploadRequest struct {
	Template string `json:"template"`
}

func (s *Server) handleConversationCreate(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	conv, err := s.store.CreateConversation(r.Context(), req.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	common.Logger().Info("api: conversation created", "conversation", conv.ID)
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleConversationList(w http.ResponseWriter, r *http.Request) {
	convs, err := s.store.Conversations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": convs})
}

func (s *Server) handleConversationGet(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.Conversation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleTemplateUpload stores the template text and refreshes the entity
// registry. Extraction is best-effort: a provider failure leaves the
// template usable and only logs a warning.
func (s *Server) handleTemplateUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	id := chi.URLParam(r, "id")
	var req templateUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Template) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("template text required"))
		return
	}
	if err := s.store.SetTemplate(r.Context(), id, req.Template); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.mergeCache.Invalidate(id)
	entities, err := s.extractor.Extract(r.Context(), req.Template)
	if err != nil {
		logger.Warn("api: entity extraction failed", "conversation", id, "error", err)
	} else if len(entities) > 0 {
		if err := s.store.ReplaceEntities(r.Context(), id, entities); err != nil {
			logger.Warn("api: entity registry update failed", "conversation", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": id,
		"entities":     len(entities),
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}
