// Package httprange implements byte-range negotiation: parsing Range
// headers against a known resource size and deriving the response plan
// (status code and headers) for full, partial, and unsatisfiable requests.
package httprange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformed means the header could not be recognized as a byte
	// range at all. Callers serve full content in this case so that
	// lenient clients keep working.
	ErrMalformed = errors.New("malformed range header")

	// ErrUnsatisfiable means the header parsed but no byte of the
	// resource satisfies it. Maps to HTTP 416.
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is a validated, inclusive byte interval within a resource.
// Construct it only through Parse.
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

// Len returns the number of bytes the range covers.
func (r ByteRange) Len() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// Parse validates a Range header value against the resource size.
//
// An empty header returns (nil, nil): serve the whole resource. Only the
// single-range form "bytes=<start>-[<end>]" is accepted; an omitted end
// means end of resource, and an end past the last byte is clamped rather
// than rejected. A start at or past the end of the resource, an inverted
// range, or any range against an empty resource is ErrUnsatisfiable.
// Everything else (no "bytes=" prefix, multi-range lists, the suffix
// "-<n>" form) is ErrMalformed.
func Parse(header string, total int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrMalformed
	}
	if strings.Contains(spec, ",") {
		return nil, ErrMalformed
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrMalformed
	}
	if startStr == "" {
		// Suffix form "-<n>" is not supported.
		return nil, ErrMalformed
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, ErrUnsatisfiable
	}
	if total <= 0 {
		return nil, ErrUnsatisfiable
	}

	end := total - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, ErrUnsatisfiable
		}
	}
	if end > total-1 {
		end = total - 1
	}
	if start > end {
		return nil, ErrUnsatisfiable
	}

	return &ByteRange{Start: start, End: end, Total: total}, nil
}
