// File path: internal/api/edits_handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/fillora/fillora/internal/common"
	"github.com/fillora/fillora/internal/store"
)

type saveEditRequest struct {
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

// handleEditSave records a user edit against a field (or "Sheet:Ref" cell)
// of the current snapshot. Each save overwrites the edit whole.
func (s *Server) handleEditSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fieldID := chi.URLParam(r, "fieldID")
	var req saveEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.Conversation(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.store.SaveEdit(r.Context(), id, fieldID, req.Content, req.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.mergeCache.Invalidate(id)
	common.Logger().Info("api: edit saved", "conversation", id, "field", fieldID)
	writeJSON(w, http.StatusOK, map[string]string{"conversation": id, "field": fieldID})
}

func (s *Server) handleEditDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fieldID := chi.URLParam(r, "fieldID")
	if err := s.store.DeleteEdit(r.Context(), id, fieldID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.mergeCache.Invalidate(id)
	writeJSON(w, http.StatusOK, map[string]string{"conversation": id, "field": fieldID})
}

func (s *Server) handleEditClear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.ClearEdits(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.mergeCache.Invalidate(id)
	writeJSON(w, http.StatusOK, map[string]string{"conversation": id})
}

func (s *Server) handleEditList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	edits, err := s.store.EditsFor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"edits": edits})
}
