package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// logFields is filled in by inner middleware and read by the logger after
// the request completes.
type logFields struct {
	tenant string
}

const logFieldsKey contextKey = "logFields"

func setLogTenant(ctx context.Context, tenant string) {
	if f, ok := ctx.Value(logFieldsKey).(*logFields); ok {
		f.tenant = tenant
	}
}

// requestTenant prefers the authenticated tenant, then the {tenant} route param.
func requestTenant(r *http.Request, f *logFields) string {
	if f.tenant != "" {
		return f.tenant
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.URLParam("tenant")
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LoggingMiddleware logs one line per request. Bodies are never logged:
// they can carry passwords submitted for analysis.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		fields := &logFields{}
		r = r.WithContext(context.WithValue(r.Context(), logFieldsKey, fields))

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		log.Printf(
			"method=%s path=%s tenant=%s status=%d duration=%s bytes=%d ip=%s",
			r.Method,
			r.URL.Path,
			requestTenant(r, fields),
			wrapped.statusCode,
			time.Since(start),
			wrapped.written,
			r.RemoteAddr,
		)
	})
}
