package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/vidscribe/logger"
)

var quietPaths = map[string]bool{
	"/health": true,
	"/alive":  true,
	"/ready":  true,
}

// RequestLogger logs every request with method, path, status and duration.
// Probe endpoints are skipped. 5xx responses log at error level, 4xx at warn.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := logger.DurationFields("http", time.Since(start))
			fields["method"] = r.Method
			fields[logger.FieldPath] = r.URL.Path
			fields[logger.FieldStatus] = sw.status
			fields["bytes"] = sw.bytes

			l := log.WithContext(r.Context())
			switch {
			case sw.status >= 500:
				l.Error("request completed", fields)
			case sw.status >= 400:
				l.Warn("request completed", fields)
			default:
				l.Debug("request completed", fields)
			}
		})
	}
}
