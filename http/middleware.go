package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/sagarc03/r2gate"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "session_id"

type identityKey struct{}

// SessionMiddleware resolves the session cookie to an identity and stores it
// in the request context. Requests without the cookie get 401; requests whose
// session cannot be resolved get 403.
func SessionMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := sessionCookie(r)
			if !ok {
				HandleError(w, r2gate.ErrMissingSession)
				return
			}

			identity, err := auth.ResolveSession(r.Context(), sessionID)
			if err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity r2gate.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by SessionMiddleware, or the
// zero Identity when none is present.
func IdentityFromContext(ctx context.Context) r2gate.Identity {
	identity, _ := ctx.Value(identityKey{}).(r2gate.Identity)
	return identity
}

// sessionCookie returns the session id. A bare cookie name without "=" counts
// as no session cookie at all; "session_id=" is present with an empty id.
func sessionCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	if cookie.Value != "" {
		return cookie.Value, true
	}

	for _, line := range r.Header.Values("Cookie") {
		for part := range strings.SplitSeq(line, ";") {
			if strings.HasPrefix(strings.TrimSpace(part), SessionCookieName+"=") {
				return "", true
			}
		}
	}
	return "", false
}
