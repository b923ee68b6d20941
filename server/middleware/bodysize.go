package middleware

import (
	"net/http"

	"github.com/kbukum/crosscribe/util"
)

const defaultMaxBodySize = 8 * 1024 * 1024 // 8MB

// BodySizeLimit returns middleware that restricts the request body to the given
// size string (e.g. "8MB", "512KB", "1GB").
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
