package cast

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
	"github.com/nkiryanov/castbook/internal/repository"
)

// Page size ceiling for cast listing
const MaxLimit = 200

type CastService struct {
	castRepo repository.CastRepo
}

func NewService(castRepo repository.CastRepo) *CastService {
	return &CastService{
		castRepo: castRepo,
	}
}

// List casts newest first
// limit is clamped to [1, MaxLimit]; malformed cursor starts from the first page
func (s *CastService) ListCasts(ctx context.Context, limit int, cursor string) (pagination.Page[models.Cast], error) {
	limit = pagination.ClampLimit(limit, MaxLimit)

	casts, err := s.castRepo.ListCasts(ctx, pagination.FetchLimit(limit), pagination.DecodeCursor(cursor))
	if err != nil {
		return pagination.Page[models.Cast]{}, fmt.Errorf("can't list casts. Err: %w", err)
	}

	return pagination.BuildPage(casts, limit, Key), nil
}

// Returns apperrors.ErrCastNotFound if cast not exists
func (s *CastService) GetCast(ctx context.Context, castID uuid.UUID) (models.Cast, error) {
	return s.castRepo.GetCast(ctx, castID)
}

// Key is the cursor of a cast in list order
func Key(c models.Cast) pagination.Cursor {
	return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID.String()}
}
