// Package source abstracts the backend object store behind a capability
// interface: metadata, ranged byte streams, container listing, and
// thumbnail references. The streaming handlers depend only on this
// package, never on a concrete backend.
package source

import (
	"context"
	"errors"
	"io"

	"github.com/stashgate/cdn/internal/httprange"
)

var (
	// ErrNotFound means the id does not resolve to a resource.
	ErrNotFound = errors.New("resource not found")

	// ErrUnavailable means the backend failed transiently.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrTruncated means a stream ended before delivering the bytes
	// its range contracted for.
	ErrTruncated = errors.New("backend stream truncated")
)

// ResourceInfo is a per-request metadata snapshot. It is never cached
// across requests.
type ResourceInfo struct {
	Size        int64
	ContentType string
}

// Entry describes one child of a container.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Source is implemented by every backend adapter. Implementations must
// be safe for concurrent use; all state beyond the shared authenticated
// client is request-scoped.
type Source interface {
	// Stat fetches metadata for a resource. Fails with ErrNotFound or
	// ErrUnavailable.
	Stat(ctx context.Context, id string) (ResourceInfo, error)

	// Open returns a stream over the resource. With a range, the stream
	// yields exactly rng.Len() bytes starting at rng.Start, surfacing
	// ErrTruncated on a short backend read; with nil it yields the whole
	// object. The caller owns the stream and must close it on every
	// exit path.
	Open(ctx context.Context, id string, rng *httprange.ByteRange) (io.ReadCloser, error)

	// List returns the children of a container, ordered by name
	// ascending in byte order.
	List(ctx context.Context, containerID string) ([]Entry, error)

	// ThumbnailRef returns an external URL for the resource's thumbnail,
	// or ErrNotFound when it has none.
	ThumbnailRef(ctx context.Context, id string) (string, error)
}

// exactReadCloser enforces the byte contract of a ranged stream: it
// reports ErrTruncated if the underlying stream ends short, and stops
// at the contracted length if the backend over-delivers.
type exactReadCloser struct {
	io.ReadCloser
	remaining int64
}

func newExactReadCloser(rc io.ReadCloser, length int64) io.ReadCloser {
	return &exactReadCloser{ReadCloser: rc, remaining: length}
}

func (e *exactReadCloser) Read(p []byte) (int, error) {
	if e.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > e.remaining {
		p = p[:e.remaining]
	}
	n, err := e.ReadCloser.Read(p)
	e.remaining -= int64(n)
	if err == io.EOF && e.remaining > 0 {
		return n, ErrTruncated
	}
	return n, err
}
