package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
)

type profileResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       *string   `json:"email"`
	PhoneNumber *string   `json:"phone_number"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func newProfileResponse(p models.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		Role:        p.Role.String(),
		CreatedAt:   p.CreatedAt,
	}
}

type tokensResponse struct {
	TokenType        string    `json:"token_type"`
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func newTokensResponse(pair models.TokenPair) tokensResponse {
	return tokensResponse{
		TokenType:        accessAuthScheme,
		AccessToken:      pair.Access.Value,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshToken:     pair.Refresh.Value,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	}
}

type authResponse struct {
	tokensResponse
	User profileResponse `json:"user"`
}

type castResponse struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Bio         string          `json:"bio"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newCastResponse(c models.Cast) castResponse {
	return castResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
		Bio:         c.Bio,
		HourlyRate:  c.HourlyRate,
		CreatedAt:   c.CreatedAt,
	}
}

type favoriteResponse struct {
	ID        uuid.UUID    `json:"id"`
	Cast      castResponse `json:"cast"`
	CreatedAt time.Time    `json:"created_at"`
}

func newFavoriteResponse(f models.Favorite) favoriteResponse {
	return favoriteResponse{
		ID:        f.ID,
		Cast:      newCastResponse(f.Cast),
		CreatedAt: f.CreatedAt,
	}
}

type reviewResponse struct {
	ID        uuid.UUID `json:"id"`
	CastID    uuid.UUID `json:"cast_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func newReviewResponse(r models.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		CastID:    r.CastID,
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// next_cursor is null on the last page, items never null
type pageResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

func newPageResponse[M any, T any](page pagination.Page[M], convert func(M) T) pageResponse[T] {
	resp := pageResponse[T]{
		Items:   make([]T, 0, len(page.Items)),
		HasMore: page.HasMore,
	}
	for _, item := range page.Items {
		resp.Items = append(resp.Items, convert(item))
	}
	if page.NextCursor != "" {
		resp.NextCursor = &page.NextCursor
	}
	return resp
}
