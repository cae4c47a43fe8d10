package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/castbook/internal/apperrors"
	"github.com/nkiryanov/castbook/internal/handlers/userctx"
	"github.com/nkiryanov/castbook/internal/models"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, access string) (models.Principal, error)

func (f authFunc) Authenticate(ctx context.Context, access string) (models.Principal, error) {
	return f(ctx, access)
}

func TestAccessToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc.def", "abc.def"},
		{"scheme case insensitive", "bearer abc.def", "abc.def"},
		{"other scheme", "Basic dXNlcjpwd2Q=", ""},
		{"no token", "Bearer", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			require.Equal(t, tt.want, AccessToken(r))
		})
	}
}

func TestAuthMiddleware_Auth(t *testing.T) {
	userID := uuid.New()

	// Simple handler that try to get principal from context
	// If ok write user id to response
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set principal or write error to response
		p, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(p.UserID.String()))
		require.NoError(t, err, "should write user id to response")
	})

	t.Run("auth ok", func(t *testing.T) {
		var gotAccess string
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, access string) (models.Principal, error) {
			gotAccess = access
			return models.Principal{UserID: userID, Role: models.RoleGuest}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer access-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", string(body))
		require.Equal(t, userID.String(), string(body), "should return user id in response")
		require.Equal(t, "access-token", gotAccess)
	})

	t.Run("auth fail", func(t *testing.T) {
		// Middleware that always fails
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, access string) (models.Principal, error) {
			return models.Principal{}, errors.Join(apperrors.ErrUnauthenticated, errors.New("token is expired"))
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "should return status Unauthorized. Resp: %s", string(body))
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthenticated"
			}`,
			string(body),
			"no detail about failure in response",
		)
	})
}
