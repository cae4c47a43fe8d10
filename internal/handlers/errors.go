package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/castbook/internal/apperrors"
	"github.com/nkiryanov/castbook/internal/handlers/render"
	"github.com/nkiryanov/castbook/internal/logger"
)

// Render service error as response
// Unexpected errors are logged and rendered as 500 without details
func writeError(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	var verr *apperrors.ValidationError

	switch {
	case errors.As(err, &verr):
		render.ValidationError(w, verr)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrInvalidRefreshToken):
		render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUnauthenticated):
		render.ServiceError(w, "Unauthenticated", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User already exists", http.StatusConflict)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrCastNotFound):
		render.ServiceError(w, "Cast not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrCastAlreadyExists):
		render.ServiceError(w, "Cast already exists", http.StatusConflict)
	default:
		l.Error("request failed", "method", r.Method, "uri", r.RequestURI, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
