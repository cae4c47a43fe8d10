package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
)

type CreateUserParams struct {
	Email          *string
	PhoneNumber    *string
	DisplayName    string
	HashedPassword string
	Role           models.Role
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email or phone exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or identifier (email or phone number, normalized)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (models.User, error)
}

// RefreshToken repository interface
// Nobody except token manager should write there
type RefreshTokenRepo interface {
	// Save new token
	Create(ctx context.Context, token models.RefreshToken) error

	// Return token even it expired
	// If token not exists must return apperrors.ErrRefreshTokenNotFound
	Find(ctx context.Context, token string) (models.RefreshToken, error)

	// Delete token
	// If token not exists (already revoked) must return apperrors.ErrRefreshTokenNotFound
	Revoke(ctx context.Context, token string) error

	// Delete tokens expired before the time, return how many deleted
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Cast repository interface
// List methods return items ordered by (created_at DESC, id DESC) placed strictly after cursor
// Callers ask for one extra row to detect next page; repositories return up to limit rows as is
type CastRepo interface {
	// If cast for the user exists has to return apperrors.ErrCastAlreadyExists
	CreateCast(ctx context.Context, cast models.Cast) (models.Cast, error)

	// If cast not found must return apperrors.ErrCastNotFound
	GetCast(ctx context.Context, castID uuid.UUID) (models.Cast, error)

	ListCasts(ctx context.Context, limit int, after *pagination.Cursor) ([]models.Cast, error)
}

type FavoriteRepo interface {
	// Add cast to user favorites
	// Adding existed favorite is not an error: existed one returned
	// If cast not exists must return apperrors.ErrCastNotFound
	AddFavorite(ctx context.Context, userID uuid.UUID, castID uuid.UUID) (models.Favorite, error)

	// Remove favorite; removing absent favorite is not an error
	RemoveFavorite(ctx context.Context, userID uuid.UUID, castID uuid.UUID) error

	ListFavorites(ctx context.Context, userID uuid.UUID, limit int, after *pagination.Cursor) ([]models.Favorite, error)
}

type ReviewRepo interface {
	CreateReview(ctx context.Context, review models.Review) (models.Review, error)
	ListReviews(ctx context.Context, castID uuid.UUID, limit int, after *pagination.Cursor) ([]models.Review, error)
}

// Storage gives access to all repositories sharing one connection (or transaction)
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Cast() CastRepo
	Favorite() FavoriteRepo
	Review() ReviewRepo

	// Run fn in transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
