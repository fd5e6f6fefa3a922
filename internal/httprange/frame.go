package httprange

import (
	"errors"
	"strconv"
)

// Plan is the response framing derived from resource metadata and the
// outcome of Parse: the status code, the headers to commit, and the
// range to stream (nil for full content and for 416).
type Plan struct {
	Status  int
	Headers map[string]string
	Range   *ByteRange
}

// Frame decides how to answer a request for a resource of the given size
// and content type, given the Parse result. It is a pure function:
// identical inputs always produce identical plans.
//
// A nil range with no error, or a malformed header, frames a full 200
// response. A resolved range frames a 206. ErrUnsatisfiable frames a 416
// whose only header is "Content-Range: bytes */<size>"; callers must not
// open a backend stream for a 416 plan.
func Frame(size int64, contentType string, rng *ByteRange, parseErr error) Plan {
	if errors.Is(parseErr, ErrUnsatisfiable) {
		return Plan{
			Status: 416,
			Headers: map[string]string{
				"Content-Range": "bytes */" + strconv.FormatInt(size, 10),
			},
		}
	}

	if rng == nil || errors.Is(parseErr, ErrMalformed) {
		return Plan{
			Status: 200,
			Headers: map[string]string{
				"Content-Length": strconv.FormatInt(size, 10),
				"Content-Type":   contentType,
			},
		}
	}

	return Plan{
		Status: 206,
		Headers: map[string]string{
			"Content-Range":  rng.ContentRange(),
			"Accept-Ranges":  "bytes",
			"Content-Length": strconv.FormatInt(rng.Len(), 10),
			"Content-Type":   contentType,
		},
		Range: rng,
	}
}
