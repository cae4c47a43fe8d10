package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/handlers/middleware"
	"github.com/nkiryanov/castbook/internal/logger"
	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
	"github.com/nkiryanov/castbook/internal/service/auth"
	"github.com/nkiryanov/castbook/internal/service/review"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	castService castService,
	favoriteService favoriteService,
	reviewService reviewService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(authService, logger))
	api.Handle("POST /auth/login", handleLogin(authService, logger))
	api.Handle("POST /auth/refresh", handleTokenRefresh(authService, logger))
	api.Handle("POST /auth/logout", handleLogout(authService, logger))

	api.Handle("GET /me", withAuth(handleUserMe(authService, logger)))

	api.Handle("GET /casts", handleListCasts(castService, logger))
	api.Handle("GET /casts/{id}", handleGetCast(castService, logger))
	api.Handle("GET /casts/{id}/reviews", handleListReviews(reviewService, logger))
	api.Handle("POST /casts/{id}/reviews", withAuth(handleCreateReview(reviewService, logger)))

	api.Handle("GET /favorites", withAuth(handleListFavorites(favoriteService, logger)))
	api.Handle("PUT /favorites/{castID}", withAuth(handleAddFavorite(favoriteService, logger)))
	api.Handle("DELETE /favorites/{castID}", withAuth(handleRemoveFavorite(favoriteService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user; returns apperrors.ErrUserAlreadyExists if email or phone is taken
	Register(ctx context.Context, params auth.RegisterParams) (models.TokenPair, models.Profile, error)

	// Login by email or phone number
	// Has to return apperrors.ErrInvalidCredentials for any credentials mismatch
	Login(ctx context.Context, identifier string, password string, expectedRole *models.Role) (models.TokenPair, models.Profile, error)

	// Exchange refresh token for new pair
	// Has to return apperrors.ErrInvalidRefreshToken if token absent, used or expired
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	Logout(ctx context.Context, refresh string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	Authenticate(ctx context.Context, access string) (models.Principal, error)
}

type castService interface {
	ListCasts(ctx context.Context, limit int, cursor string) (pagination.Page[models.Cast], error)
	GetCast(ctx context.Context, castID uuid.UUID) (models.Cast, error)
}

type favoriteService interface {
	Add(ctx context.Context, userID uuid.UUID, castID uuid.UUID) (models.Favorite, error)
	Remove(ctx context.Context, userID uuid.UUID, castID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (pagination.Page[models.Favorite], error)
}

type reviewService interface {
	Create(ctx context.Context, params review.CreateParams) (models.Review, error)
	List(ctx context.Context, castID uuid.UUID, limit int, cursor string) (pagination.Page[models.Review], error)
}
