package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stashgate/cdn/internal/catalog"
	"github.com/stashgate/cdn/internal/httprange"
	"github.com/stashgate/cdn/internal/metrics"
	"github.com/stashgate/cdn/internal/source"
)

// StreamHandler is the streaming proxy: per request it fetches metadata,
// resolves the Range header, commits the response framing, then pipes
// the backend stream to the client.
type StreamHandler struct {
	source  source.Source
	catalog *catalog.Catalog // optional; nil streams by raw object key
	log     zerolog.Logger

	// bytesPerSec caps each stream's bandwidth; 0 means unlimited.
	bytesPerSec int64
}

func NewStreamHandler(src source.Source, cat *catalog.Catalog, bytesPerSec int64, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		source:      src,
		catalog:     cat,
		log:         log,
		bytesPerSec: bytesPerSec,
	}
}

func (h *StreamHandler) StreamResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resourceID := mux.Vars(r)["resource"]
	log := h.log.With().Str("resource", resourceID).Logger()

	objectKey := resourceID
	if h.catalog != nil {
		key, err := h.catalog.Resolve(ctx, resourceID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				writeError(w, http.StatusNotFound, "resource not found")
				return
			}
			log.Error().Err(err).Msg("catalog lookup failed")
			writeError(w, http.StatusBadGateway, "backend unavailable")
			return
		}
		objectKey = key
	}

	info, err := h.source.Stat(ctx, objectKey)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			writeError(w, http.StatusNotFound, "resource not found")
			return
		}
		log.Error().Err(err).Msg("metadata fetch failed")
		writeError(w, http.StatusBadGateway, "backend unavailable")
		return
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = inferContentType(objectKey)
	}

	rng, parseErr := httprange.Parse(r.Header.Get("Range"), info.Size)
	plan := httprange.Frame(info.Size, contentType, rng, parseErr)

	cw := newCommitWriter(w)
	for name, value := range plan.Headers {
		cw.Header().Set(name, value)
	}
	cw.WriteHeader(plan.Status)

	// A 416 carries no body and must never open a backend stream.
	if plan.Status == http.StatusRequestedRangeNotSatisfiable {
		return
	}

	stream, err := h.source.Open(ctx, objectKey, plan.Range)
	if err != nil {
		// Headers are committed; the status cannot change anymore.
		// Dropping the connection is the only honest signal left.
		log.Error().Err(err).Msg("failed to open backend stream")
		return
	}
	defer stream.Close()

	expected := info.Size
	if plan.Range != nil {
		expected = plan.Range.Len()
	}

	var body io.Reader = stream
	if h.bytesPerSec > 0 {
		body = newRateLimitedReader(ctx, stream, h.bytesPerSec)
	}

	// io.Copy's fixed buffer plus the blocking ResponseWriter provide
	// the backpressure: the backend read pauses while the client drains.
	// Client disconnect cancels ctx, tearing down the backend stream on
	// the next I/O step.
	written, err := io.Copy(cw, body)
	switch {
	case err == nil && written == expected:
		metrics.RecordStream(written, metrics.StreamCompleted)
	case errors.Is(err, source.ErrTruncated) || (err == nil && written != expected):
		log.Warn().Int64("written", written).Int64("expected", expected).
			Msg("backend stream truncated")
		metrics.RecordStream(written, metrics.StreamTruncated)
	case ctx.Err() != nil:
		log.Info().Int64("written", written).Int64("expected", expected).
			Msg("client disconnected mid-stream")
		metrics.RecordStream(written, metrics.StreamAborted)
	default:
		log.Warn().Err(err).Int64("written", written).Msg("stream aborted")
		metrics.RecordStream(written, metrics.StreamAborted)
	}
}

// rateLimitedReader throttles reads to the configured bandwidth. Waiting
// after the read keeps the token count equal to bytes actually consumed.
type rateLimitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func newRateLimitedReader(ctx context.Context, r io.Reader, bytesPerSec int64) *rateLimitedReader {
	burst := int(bytesPerSec)
	if burst < 64*1024 {
		burst = 64 * 1024
	}
	return &rateLimitedReader{
		ctx:     ctx,
		r:       r,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

func (r *rateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
