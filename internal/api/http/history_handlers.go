package httpapi

import (
	"net/http"

	"github.com/handlepay/handlepay/internal/domain/history"
)

type historyEntryResponse struct {
	*history.Entry
	Verified bool `json:"verified"`
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)
	entries, err := s.historySvc.List(r.Context(), s.session.Account, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) getHistoryEntry(w http.ResponseWriter, r *http.Request) {
	executionID, err := parseUUIDParam(r, "executionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid executionId")
		return
	}
	entry, err := s.historySvc.GetByExecutionID(r.Context(), executionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if entry == nil || !entry.Owner.Equal(s.session.Account) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "history entry not found")
		return
	}
	verified, err := s.historySvc.Verify(entry)
	if err != nil {
		s.logger.Warn().Err(err).Str("executionId", executionID.String()).Msg("history signature check failed")
	}
	respondJSON(w, http.StatusOK, historyEntryResponse{Entry: entry, Verified: verified})
}
