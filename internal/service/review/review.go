package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
	"github.com/nkiryanov/castbook/internal/repository"
	"github.com/nkiryanov/castbook/internal/service/validate"
)

// Page size ceiling for reviews listing
const MaxLimit = 100

type ReviewService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ReviewService {
	return &ReviewService{
		storage: storage,
	}
}

type CreateParams struct {
	AuthorID uuid.UUID `validate:"required" name:"author_id"`
	CastID   uuid.UUID `validate:"required" name:"cast_id"`
	Rating   int       `validate:"gte=1,lte=5" name:"rating"`
	Comment  string    `validate:"max=2000" name:"comment"`
}

// Create review for the cast
// Returns apperrors.ErrCastNotFound if cast not exists
func (s *ReviewService) Create(ctx context.Context, params CreateParams) (models.Review, error) {
	var review models.Review

	params.Comment = strings.TrimSpace(params.Comment)
	if err := validate.Struct(params); err != nil {
		return review, err
	}

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		_, err := tx.Cast().GetCast(ctx, params.CastID)
		if err != nil {
			return err
		}

		review, err = tx.Review().CreateReview(ctx, models.Review{
			CastID:   params.CastID,
			AuthorID: params.AuthorID,
			Rating:   params.Rating,
			Comment:  params.Comment,
		})
		return err
	})
	if err != nil {
		return models.Review{}, err
	}

	return review, nil
}

// List cast reviews newest first
func (s *ReviewService) List(ctx context.Context, castID uuid.UUID, limit int, cursor string) (pagination.Page[models.Review], error) {
	limit = pagination.ClampLimit(limit, MaxLimit)

	reviews, err := s.storage.Review().ListReviews(ctx, castID, pagination.FetchLimit(limit), pagination.DecodeCursor(cursor))
	if err != nil {
		return pagination.Page[models.Review]{}, fmt.Errorf("can't list reviews. Err: %w", err)
	}

	return pagination.BuildPage(reviews, limit, func(r models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID.String()}
	}), nil
}
