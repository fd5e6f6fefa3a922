package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stashgate/cdn/internal/source"
)

// ListHandler serves container listings.
type ListHandler struct {
	source source.Source
	log    zerolog.Logger
}

func NewListHandler(src source.Source, log zerolog.Logger) *ListHandler {
	return &ListHandler{source: src, log: log}
}

func (h *ListHandler) ListContainer(w http.ResponseWriter, r *http.Request) {
	containerID := mux.Vars(r)["container"]

	entries, err := h.source.List(r.Context(), containerID)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			writeError(w, http.StatusNotFound, "container not found")
			return
		}
		h.log.Error().Err(err).Str("container", containerID).Msg("listing failed")
		writeError(w, http.StatusBadGateway, "backend unavailable")
		return
	}

	if entries == nil {
		entries = []source.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
