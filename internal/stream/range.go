package stream

import (
	"errors"
	"strconv"
	"strings"
)

// ByteRange is an inclusive byte window inside a file of known size.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ErrUnsatisfiable is returned for a syntactically valid range that overlaps
// no byte of the file; callers answer it with 416 and `Content-Range: bytes */size`.
var ErrUnsatisfiable = errors.New("requested range not satisfiable")

// ParseRange interprets a Range request header against the total file size.
//
// A missing, non-bytes, or wholly malformed header yields (nil, nil): the
// caller serves the full body with 200. Comma-separated multi-range requests
// are honoured for the first parseable segment only; the rest are ignored.
//
// Supported forms, per RFC 7233 single ranges:
//
//	bytes=a-b   inclusive window, end clamped to size-1
//	bytes=a-    from a to the end
//	bytes=-n    the final n bytes
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	unit, spec, found := strings.Cut(header, "=")
	if !found || strings.TrimSpace(unit) != "bytes" {
		return nil, nil
	}

	for _, segment := range strings.Split(spec, ",") {
		segment = strings.TrimSpace(segment)
		startRaw, endRaw, ok := strings.Cut(segment, "-")
		if !ok {
			continue
		}

		start, startErr := strconv.ParseInt(startRaw, 10, 64)
		end, endErr := strconv.ParseInt(endRaw, 10, 64)

		// Neither side parsed: malformed segment, skip it.
		if startErr != nil && endErr != nil {
			continue
		}
		if (startErr == nil && start < 0) || (endErr == nil && end < 0) {
			continue
		}

		switch {
		case startErr != nil:
			// bytes=-n, the final n bytes
			if end == 0 {
				return nil, ErrUnsatisfiable
			}
			start = size - end
			if start < 0 {
				start = 0
			}
			end = size - 1
		case endErr != nil:
			// bytes=a-, open-ended
			end = size - 1
		default:
			if start > end {
				continue
			}
			if end > size-1 {
				end = size - 1
			}
		}

		if start > size-1 {
			return nil, ErrUnsatisfiable
		}

		return &ByteRange{Start: start, End: end}, nil
	}

	return nil, nil
}
