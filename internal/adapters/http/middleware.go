package httpadapter

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// instrument assigns each request an id, emits one access-log line and
// feeds the request counters. Log line and metrics read the same response
// tap, so the logged status and the metric status can never disagree.
func (rt *Router) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		if rt.metrics != nil {
			done := rt.metrics.TrackRequest()
			defer done()
		}

		tap := &responseTap{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(tap, r)
		elapsed := time.Since(start)

		if rt.metrics != nil {
			rt.metrics.ObserveRequest(rt.service, r.Method, r.URL.Path, tap.status(), elapsed)
		}
		logRequest(r, tap, id, elapsed)
	})
}

func logRequest(r *http.Request, tap *responseTap, id string, elapsed time.Duration) {
	client := r.RemoteAddr
	if host, _, err := net.SplitHostPort(client); err == nil {
		client = host
	}

	attrs := []any{
		"request_id", id,
		"method", r.Method,
		"path", r.URL.Path,
		"status", tap.status(),
		"bytes", tap.written,
		"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
		"client", client,
		"user_agent", r.UserAgent(),
	}

	switch {
	case tap.status() >= http.StatusInternalServerError:
		slog.Error("http_request", attrs...)
	case tap.status() >= http.StatusBadRequest:
		slog.Warn("http_request", attrs...)
	default:
		slog.Info("http_request", attrs...)
	}
}

// responseTap records what the handler wrote. The API serves plain JSON,
// HTML and workbook bodies, so only Flush is passed through; there is no
// hijacking or push on this surface.
type responseTap struct {
	http.ResponseWriter
	code    int
	written int
}

func (t *responseTap) WriteHeader(code int) {
	if t.code == 0 {
		t.code = code
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(b []byte) (int, error) {
	if t.code == 0 {
		t.code = http.StatusOK
	}
	n, err := t.ResponseWriter.Write(b)
	t.written += n
	return n, err
}

// status treats an untouched tap as 200, matching net/http's implicit
// WriteHeader.
func (t *responseTap) status() int {
	if t.code == 0 {
		return http.StatusOK
	}
	return t.code
}

func (t *responseTap) Flush() {
	if flusher, ok := t.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
