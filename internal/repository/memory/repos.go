package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/apperrors"
	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
	"github.com/nkiryanov/castbook/internal/repository"
)

type UserRepo struct{ s *Storage }

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.st.users {
		if sameOptional(u.Email, params.Email) || sameOptional(u.PhoneNumber, params.PhoneNumber) {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	user := models.User{
		ID:             uuid.New(),
		CreatedAt:      r.s.Now(),
		Email:          params.Email,
		PhoneNumber:    params.PhoneNumber,
		DisplayName:    params.DisplayName,
		HashedPassword: params.HashedPassword,
		Role:           params.Role,
	}
	r.s.st.users[user.ID] = user

	return user, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.st.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) GetUserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.st.users {
		if sameOptional(u.Email, &identifier) || sameOptional(u.PhoneNumber, &identifier) {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func sameOptional(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

type RefreshTokenRepo struct{ s *Storage }

func (r *RefreshTokenRepo) Create(ctx context.Context, token models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.tokens[token.Token]; ok {
		return fmt.Errorf("db error: duplicate refresh token")
	}
	r.s.st.tokens[token.Token] = token
	return nil
}

func (r *RefreshTokenRepo) Find(ctx context.Context, token string) (models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.st.tokens[token]
	if !ok {
		return t, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}
	return t, nil
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.tokens[token]; !ok {
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}
	delete(r.s.st.tokens, token)
	return nil
}

func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, t := range r.s.st.tokens {
		if !t.ExpiresAt.After(before) {
			delete(r.s.st.tokens, k)
			n++
		}
	}
	return n, nil
}

type CastRepo struct{ s *Storage }

func (r *CastRepo) CreateCast(ctx context.Context, c models.Cast) (models.Cast, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existed := range r.s.st.casts {
		if existed.UserID == c.UserID {
			return models.Cast{}, apperrors.ErrCastAlreadyExists
		}
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.Now()
	}
	r.s.st.casts[c.ID] = c

	return c, nil
}

func (r *CastRepo) GetCast(ctx context.Context, castID uuid.UUID) (models.Cast, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.st.casts[castID]
	if !ok {
		return c, apperrors.ErrCastNotFound
	}
	return c, nil
}

func (r *CastRepo) ListCasts(ctx context.Context, limit int, after *pagination.Cursor) ([]models.Cast, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := make([]models.Cast, 0, len(r.s.st.casts))
	for _, c := range r.s.st.casts {
		items = append(items, c)
	}

	return keyset(items, limit, after, func(c models.Cast) (time.Time, uuid.UUID) { return c.CreatedAt, c.ID }), nil
}

type FavoriteRepo struct{ s *Storage }

func (r *FavoriteRepo) AddFavorite(ctx context.Context, userID uuid.UUID, castID uuid.UUID) (models.Favorite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.casts[castID]; !ok {
		return models.Favorite{}, apperrors.ErrCastNotFound
	}

	for _, f := range r.s.st.favorites {
		if f.UserID == userID && f.CastID == castID {
			return f, nil
		}
	}

	f := models.Favorite{ID: uuid.New(), UserID: userID, CastID: castID, CreatedAt: r.s.Now()}
	r.s.st.favorites[f.ID] = f

	return f, nil
}

func (r *FavoriteRepo) RemoveFavorite(ctx context.Context, userID uuid.UUID, castID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, f := range r.s.st.favorites {
		if f.UserID == userID && f.CastID == castID {
			delete(r.s.st.favorites, id)
		}
	}
	return nil
}

func (r *FavoriteRepo) ListFavorites(ctx context.Context, userID uuid.UUID, limit int, after *pagination.Cursor) ([]models.Favorite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := make([]models.Favorite, 0)
	for _, f := range r.s.st.favorites {
		if f.UserID != userID {
			continue
		}
		f.Cast = r.s.st.casts[f.CastID]
		items = append(items, f)
	}

	return keyset(items, limit, after, func(f models.Favorite) (time.Time, uuid.UUID) { return f.CreatedAt, f.ID }), nil
}

type ReviewRepo struct{ s *Storage }

func (r *ReviewRepo) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.casts[review.CastID]; !ok {
		return models.Review{}, apperrors.ErrCastNotFound
	}

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = r.s.Now()
	}
	r.s.st.reviews[review.ID] = review

	return review, nil
}

func (r *ReviewRepo) ListReviews(ctx context.Context, castID uuid.UUID, limit int, after *pagination.Cursor) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := make([]models.Review, 0)
	for _, rv := range r.s.st.reviews {
		if rv.CastID == castID {
			items = append(items, rv)
		}
	}

	return keyset(items, limit, after, func(rv models.Review) (time.Time, uuid.UUID) { return rv.CreatedAt, rv.ID }), nil
}
