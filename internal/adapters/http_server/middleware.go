package httpserver

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"heritage_hunter/internal/adapters/observability"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *srw) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// ---- access log + metrics ----

// requestUser is filled in by RequireSession so the access line can name the caller.
type requestUser struct{ id atomic.Int64 }

func noteUser(ctx context.Context, id int64) {
	if u, ok := ctx.Value(userKey).(*requestUser); ok {
		u.id.Store(id)
	}
}

// Access records one metrics sample and one log line per request. Health probes log at debug.
func Access(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			u := &requestUser{}
			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), userKey, u)))

			dur := time.Since(start)
			route := routeOf(r)
			status := sw.Status()
			observability.ObserveHTTP(route, r.Method, status, dur)

			ev := levelFor(l, route, status)
			if id := u.id.Load(); id != 0 {
				ev = ev.Int64("user_id", id)
			}
			ev.Str("req_id", chimw.GetReqID(r.Context())).
				Str("route", route).
				Str("method", r.Method).
				Int("status", status).
				Int("bytes", sw.bytes).
				Dur("duration", dur).
				Str("remote", remoteIP(r)).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func levelFor(l zerolog.Logger, route string, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return l.Error()
	case status >= 400:
		return l.Warn()
	case route == "/healthz":
		return l.Debug()
	default:
		return l.Info()
	}
}

// RealIP has already rewritten RemoteAddr from the forwarding headers.
func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
