package middleware

import (
	"compress/gzip"
	"log/slog"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressionMinSize is the smallest response body worth compressing.
const compressionMinSize = 1024

// Compression wraps the handler with gzip/zstd compression. Event streams are
// never compressed so every event reaches the client as soon as it is flushed.
// A level outside gzip's range disables compression.
func Compression(level int, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if level < gzip.HuffmanOnly || level > gzip.BestCompression || level == gzip.NoCompression {
			return next
		}

		wrapper, err := gzhttp.NewWrapper(
			gzhttp.MinSize(compressionMinSize),
			gzhttp.CompressionLevel(level),
			gzhttp.ExceptContentTypes([]string{"text/event-stream"}),
		)
		if err != nil {
			logger.Warn("compression disabled", "level", level, "error", err)
			return next
		}
		return wrapper(next)
	}
}
