package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/castbook/internal/apperrors"
	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
)

type ReviewRepo struct {
	DB DBTX
}

const reviewColumns = `id, cast_id, author_id, created_at, rating, comment`

const createReview = `-- name: CreateReview
INSERT INTO reviews (id, cast_id, author_id, created_at, rating, comment)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + reviewColumns

// Create review. Empty ID and CreatedAt are generated
func (r *ReviewRepo) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now()
	}

	rows, _ := r.DB.Query(ctx, createReview,
		review.ID, review.CastID, review.AuthorID, review.CreatedAt, review.Rating, review.Comment,
	)
	created, err := pgx.CollectOneRow(rows, rowToReview)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation && pgErr.ConstraintName == "reviews_cast_id_fkey" {
			return created, apperrors.ErrCastNotFound
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listReviews = `-- name: ListReviews
SELECT ` + reviewColumns + ` FROM reviews
WHERE cast_id = $1
	AND ($2::timestamptz IS NULL OR (created_at, id) < ($2::timestamptz, $3::uuid))
ORDER BY created_at DESC, id DESC
LIMIT $4
`

func (r *ReviewRepo) ListReviews(ctx context.Context, castID uuid.UUID, limit int, after *pagination.Cursor) ([]models.Review, error) {
	createdAt, id := keysetArgs(after)

	rows, _ := r.DB.Query(ctx, listReviews, castID, createdAt, id, limit)
	reviews, err := pgx.CollectRows(rows, rowToReview)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return reviews, nil
}

func rowToReview(row pgx.CollectableRow) (models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.CastID, &r.AuthorID, &r.CreatedAt, &r.Rating, &r.Comment)
	return r, err
}
