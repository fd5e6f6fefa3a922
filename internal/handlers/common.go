// Package handlers implements the HTTP surface of the gateway: the
// range-aware streaming proxy, container listing, thumbnail lookup, and
// the liveness endpoint.
package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"
)

// ErrAlreadyCommitted signals a second header commit on one response —
// a programmer error, surfaced by panic so it fails fast in tests
// instead of corrupting the wire protocol silently.
var ErrAlreadyCommitted = errors.New("response headers already committed")

// commitWriter enforces the headers-committed-exactly-once rule of the
// streaming state machine.
type commitWriter struct {
	http.ResponseWriter
	committed bool
}

func newCommitWriter(w http.ResponseWriter) *commitWriter {
	return &commitWriter{ResponseWriter: w}
}

func (cw *commitWriter) WriteHeader(status int) {
	if cw.committed {
		panic(ErrAlreadyCommitted)
	}
	cw.committed = true
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *commitWriter) Write(p []byte) (int, error) {
	if !cw.committed {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.ResponseWriter.Write(p)
}

// writeError emits the stable JSON error body. Backend error detail
// never goes through here; callers pass a generic message.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// inferContentType picks a media type from the resource extension when
// the backend does not report one.
func inferContentType(id string) string {
	ext := strings.ToLower(path.Ext(id))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/MP2T"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
