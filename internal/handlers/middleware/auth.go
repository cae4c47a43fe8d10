package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkiryanov/castbook/internal/handlers/render"
	"github.com/nkiryanov/castbook/internal/handlers/userctx"
	"github.com/nkiryanov/castbook/internal/models"
)

const (
	authHeaderName = "Authorization"
	authScheme     = "Bearer"
)

type authenticator interface {
	Authenticate(ctx context.Context, access string) (models.Principal, error)
}

// AccessToken reads bearer token from Authorization header
// Returns empty string if header absent or has other scheme
func AccessToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get(authHeaderName), " ")
	if !ok || !strings.EqualFold(scheme, authScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware puts authenticated principal to request context
// Any auth failure gives the same 401 response
func AuthMiddleware(as authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := as.Authenticate(r.Context(), AccessToken(r))
			if err != nil {
				render.ServiceError(w, "Unauthenticated", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
