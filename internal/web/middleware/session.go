package middleware

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/DataSweeper/internal/core"
	"github.com/JonMunkholm/DataSweeper/internal/logging"
)

type sessionKey struct{}

// SessionCookie configures the cookie carrying the session id.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Session attaches the caller's core.Session to the request context, creating
// one and setting the cookie when the request has no live session.
func Session(store *core.Store, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cookie.Name); err == nil {
				id = c.Value
			}

			sess, created := store.GetOrCreate(id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     cookie.Name,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   cookie.Secure,
					SameSite: http.SameSiteLaxMode,
				})
				logging.FromContext(r.Context()).Debug("session created", "session", sess.ID, "replaced", id != "")
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *core.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session set by Session, or nil.
func SessionFromContext(ctx context.Context) *core.Session {
	sess, _ := ctx.Value(sessionKey{}).(*core.Session)
	return sess
}
