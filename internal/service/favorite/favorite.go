package favorite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
	"github.com/nkiryanov/castbook/internal/repository"
)

// Page size ceiling for favorites listing
const MaxLimit = 50

type FavoriteService struct {
	favoriteRepo repository.FavoriteRepo
}

func NewService(favoriteRepo repository.FavoriteRepo) *FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
	}
}

// Add cast to user favorites
// Adding the same cast twice returns existing favorite
func (s *FavoriteService) Add(ctx context.Context, userID uuid.UUID, castID uuid.UUID) (models.Favorite, error) {
	return s.favoriteRepo.AddFavorite(ctx, userID, castID)
}

func (s *FavoriteService) Remove(ctx context.Context, userID uuid.UUID, castID uuid.UUID) error {
	return s.favoriteRepo.RemoveFavorite(ctx, userID, castID)
}

// List user favorites, most recently added first
func (s *FavoriteService) List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (pagination.Page[models.Favorite], error) {
	limit = pagination.ClampLimit(limit, MaxLimit)

	favorites, err := s.favoriteRepo.ListFavorites(ctx, userID, pagination.FetchLimit(limit), pagination.DecodeCursor(cursor))
	if err != nil {
		return pagination.Page[models.Favorite]{}, fmt.Errorf("can't list favorites. Err: %w", err)
	}

	return pagination.BuildPage(favorites, limit, func(f models.Favorite) pagination.Cursor {
		return pagination.Cursor{CreatedAt: f.CreatedAt, ID: f.ID.String()}
	}), nil
}
