package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxDecompressedBody bounds decompressed request bodies. Combined with
// the ratio check below this prevents decompression bombs.
const (
	maxDecompressedBody  = 1 << 20 // 1MB
	maxCompressionRatio  = 100
	maxCompressedRequest = 256 << 10
)

// Decompress transparently decompresses gzip request bodies. Place it
// before BodyLimit so the limit applies to the decompressed size.
func Decompress() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead ||
				r.Method == http.MethodOptions || r.Method == http.MethodTrace {
				next.ServeHTTP(w, r)
				return
			}

			encoding := strings.ToLower(r.Header.Get("Content-Encoding"))
			if encoding == "" || encoding == "identity" {
				next.ServeHTTP(w, r)
				return
			}
			if encoding != "gzip" {
				http.Error(w, fmt.Sprintf("unsupported Content-Encoding: %s", encoding),
					http.StatusUnsupportedMediaType)
				return
			}

			decompressed, err := decompressBody(r.Body)
			if err != nil {
				http.Error(w, "invalid compressed request body", http.StatusBadRequest)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(decompressed))
			r.ContentLength = int64(len(decompressed))
			r.Header.Del("Content-Encoding")

			next.ServeHTTP(w, r)
		})
	}
}

func decompressBody(body io.ReadCloser) ([]byte, error) {
	defer body.Close()

	compressed, err := io.ReadAll(io.LimitReader(body, maxCompressedRequest+1))
	if err != nil {
		return nil, fmt.Errorf("read compressed body: %w", err)
	}
	if int64(len(compressed)) > maxCompressedRequest {
		return nil, fmt.Errorf("compressed size exceeds %d bytes", maxCompressedRequest)
	}
	if len(compressed) == 0 {
		return []byte{}, nil
	}

	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer gr.Close()

	decompressed, err := io.ReadAll(io.LimitReader(gr, maxDecompressedBody+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if int64(len(decompressed)) > maxDecompressedBody {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", maxDecompressedBody)
	}
	if ratio := float64(len(decompressed)) / float64(len(compressed)); ratio > maxCompressionRatio {
		return nil, fmt.Errorf("compression ratio %.1f exceeds %d", ratio, maxCompressionRatio)
	}

	return decompressed, nil
}
