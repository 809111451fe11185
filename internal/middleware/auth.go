package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nuvoor/careadmin/internal/ctxkeys"
	"github.com/nuvoor/careadmin/internal/model"
	"github.com/nuvoor/careadmin/internal/service"
)

// AuthTokenHeader is the header the admin frontend sends its session token in.
const AuthTokenHeader = "x-auth-token"

// Authenticator resolves a session token to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth rejects requests without a valid session token and puts the
// account on the request context otherwise.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthorized) {
					slog.Error("failed to authenticate request", "error", err, "path", r.URL.Path)
				}
				writeMsg(w, http.StatusUnauthorized, "Token is not valid")
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken reads x-auth-token, falling back to an Authorization bearer token.
func sessionToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get(AuthTokenHeader))
	if token != "" {
		return token
	}

	authz := r.Header.Get("Authorization")
	scheme, value, ok := strings.Cut(authz, " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(value)
	}
	return ""
}
