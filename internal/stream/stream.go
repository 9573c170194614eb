package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"vaultlink-go/internal/storage"

	"github.com/rs/zerolog/log"
)

// ErrSourceUnavailable wraps failures to open the byte source. They happen
// before the response status is committed, so callers can still answer with a
// proper error response instead of aborting the connection.
var ErrSourceUnavailable = errors.New("byte source unavailable")

// Streamer serves validated files over HTTP with byte-range support. It never
// holds more than a copy buffer in memory; bytes come straight from the
// storage provider's bounded reader.
type Streamer struct {
	provider storage.Provider
}

func NewStreamer(provider storage.Provider) *Streamer {
	return &Streamer{provider: provider}
}

// ServeRequest describes one file delivery. The storage name locates the
// bytes; the original name only shows up in Content-Disposition.
type ServeRequest struct {
	StorageName  string
	OriginalName string
	MimeType     string
	Size         int64
	RangeHeader  string
}

// Serve writes either the whole file (200) or the requested window (206),
// or answers 416 when the range overlaps nothing. Headers are committed
// before the first byte is copied; a mid-stream read failure can only abort
// the connection, never retry.
func (s *Streamer) Serve(ctx context.Context, w http.ResponseWriter, req *ServeRequest) error {
	contentType := req.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	byteRange, err := ParseRange(req.RangeHeader, req.Size)
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", req.Size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	var (
		offset int64
		length = int64(-1)
		total  = req.Size
	)
	if byteRange != nil {
		offset = byteRange.Start
		length = byteRange.Length()
		total = length
	}

	// The source is opened before anything is written, so an open failure
	// leaves the response untouched for the caller to answer.
	source, err := s.provider.OpenRange(ctx, req.StorageName, offset, length)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Error().Err(err).Str("file", req.StorageName).Msg("error closing byte source")
		}
	}()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Disposition", contentDisposition(contentType, req.OriginalName))
	if byteRange != nil {
		w.Header().Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", byteRange.Start, byteRange.End, req.Size))
	}
	w.Header().Set("Content-Length", strconv.FormatInt(total, 10))

	if byteRange != nil {
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	written, err := io.Copy(w, source)
	if err != nil {
		// Client disconnects land here too; partially sent bytes are
		// not retried, the client must re-request.
		return fmt.Errorf("streaming after %d bytes: %w", written, err)
	}

	return nil
}

// contentDisposition picks inline rendering for media the browser can play
// or display and forces a download for everything else.
func contentDisposition(contentType, filename string) string {
	disposition := "attachment"
	for _, prefix := range []string{"image/", "video/", "audio/"} {
		if strings.HasPrefix(contentType, prefix) {
			disposition = "inline"
			break
		}
	}
	return fmt.Sprintf(`%s; filename="%s"`, disposition, filename)
}
