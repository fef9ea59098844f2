// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/carterperez-dev/templates/postboard/internal/authz"
	"github.com/carterperez-dev/templates/postboard/internal/core"
)

const (
	IdentityKey contextKey = "identity"
)

type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (authz.Identity, error)
}

func Authenticator(
	verifier SessionVerifier,
	cookieName string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cookieName)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing session"),
				)
				return
			}

			identity, err := verifier.VerifySession(r.Context(), token)
			if err != nil {
				core.JSONError(w, core.ToAppError(err, "session"))
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func OptionalAuth(
	verifier SessionVerifier,
	cookieName string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r, cookieName); token != "" {
				identity, err := verifier.VerifySession(r.Context(), token)
				if err == nil {
					r = r.WithContext(WithIdentity(r.Context(), identity))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := authz.RequireAdmin(GetIdentity(r.Context())); err != nil {
			core.JSONError(w, core.ToAppError(err, "user"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ExtractToken prefers an Authorization bearer token and falls back to the
// session cookie.
func ExtractToken(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookieName == "" {
		return ""
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}

	return cookie.Value
}

func WithIdentity(ctx context.Context, identity authz.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func GetIdentity(ctx context.Context) authz.Identity {
	if identity, ok := ctx.Value(IdentityKey).(authz.Identity); ok {
		return identity
	}
	return authz.Identity{}
}

func GetUserID(ctx context.Context) string {
	return GetIdentity(ctx).UserID
}
