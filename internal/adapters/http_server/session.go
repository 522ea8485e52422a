package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"heritage_hunter/internal/domain"
)

const (
	sessionCookie = "sessionid"
	csrfCookie    = "csrftoken"
	csrfHeader    = "X-CSRFToken"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	userKey
)

// SessionFrom returns the session resolved by RequireSession.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(domain.Session)
	return s, ok
}

// RequireSession resolves the sessionid cookie to a user. Responses behind it are never cached.
func RequireSession(store domain.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")

			c, err := r.Cookie(sessionCookie)
			if err != nil || c.Value == "" {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			sess, err := store.Lookup(r.Context(), c.Value)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					log.Error().Err(err).Msg("session lookup failed")
				}
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			noteUser(r.Context(), sess.UserID)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		})
	}
}

// RequireCSRF checks unsafe methods: the X-CSRFToken header must match both the
// csrftoken cookie and the token issued with the session.
func RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		sess, _ := SessionFrom(r.Context())
		header := r.Header.Get(csrfHeader)
		c, err := r.Cookie(csrfCookie)
		if err != nil || header == "" || !equalToken(header, c.Value) || !equalToken(header, sess.CSRF) {
			writeProblem(w, http.StatusForbidden, "Forbidden", "CSRF verification failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func equalToken(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
