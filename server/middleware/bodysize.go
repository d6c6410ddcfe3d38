package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/util"
)

// DefaultMaxBodySize applies when the configured size cannot be parsed.
const DefaultMaxBodySize = 1 << 30

// BodySizeLimit caps request bodies at maxSize ("512MB", "1GB"). Reads past
// the limit fail with *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	limit := util.ParseSizeOr(maxSize, DefaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, apperrors.PayloadTooLarge(limit))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
