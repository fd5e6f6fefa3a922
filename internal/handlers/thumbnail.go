package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stashgate/cdn/internal/source"
)

// ThumbnailHandler redirects thumbnail requests to the backend's
// external reference (a presigned URL for the MinIO source).
type ThumbnailHandler struct {
	source source.Source
	log    zerolog.Logger
}

func NewThumbnailHandler(src source.Source, log zerolog.Logger) *ThumbnailHandler {
	return &ThumbnailHandler{source: src, log: log}
}

func (h *ThumbnailHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	resourceID := mux.Vars(r)["resource"]

	ref, err := h.source.ThumbnailRef(r.Context(), resourceID)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			writeError(w, http.StatusNotFound, "thumbnail not found")
			return
		}
		h.log.Error().Err(err).Str("resource", resourceID).Msg("thumbnail lookup failed")
		writeError(w, http.StatusBadGateway, "backend unavailable")
		return
	}

	http.Redirect(w, r, ref, http.StatusFound)
}
