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

type CastRepo struct {
	DB DBTX
}

const castColumns = `id, user_id, created_at, display_name, bio, hourly_rate`

const createCast = `-- name: CreateCast
INSERT INTO casts (id, user_id, created_at, display_name, bio, hourly_rate)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + castColumns

// Create cast. Empty ID and CreatedAt are generated
func (r *CastRepo) CreateCast(ctx context.Context, c models.Cast) (models.Cast, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}

	rows, _ := r.DB.Query(ctx, createCast, c.ID, c.UserID, c.CreatedAt, c.DisplayName, c.Bio, c.HourlyRate)
	cast, err := pgx.CollectOneRow(rows, rowToCast)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return cast, apperrors.ErrCastAlreadyExists
		}

		return cast, fmt.Errorf("db error: %w", err)
	}

	return cast, nil
}

const getCast = `-- name: GetCast
SELECT ` + castColumns + ` FROM casts
WHERE id = $1
`

func (r *CastRepo) GetCast(ctx context.Context, castID uuid.UUID) (models.Cast, error) {
	rows, _ := r.DB.Query(ctx, getCast, castID)
	cast, err := pgx.CollectOneRow(rows, rowToCast)

	switch {
	case err == nil:
		return cast, nil
	case errors.Is(err, pgx.ErrNoRows):
		return cast, apperrors.ErrCastNotFound
	default:
		return cast, fmt.Errorf("db error: %w", err)
	}
}

const listCasts = `-- name: ListCasts
SELECT ` + castColumns + ` FROM casts
WHERE ($1::timestamptz IS NULL OR (created_at, id) < ($1::timestamptz, $2::uuid))
ORDER BY created_at DESC, id DESC
LIMIT $3
`

func (r *CastRepo) ListCasts(ctx context.Context, limit int, after *pagination.Cursor) ([]models.Cast, error) {
	createdAt, id := keysetArgs(after)

	rows, _ := r.DB.Query(ctx, listCasts, createdAt, id, limit)
	casts, err := pgx.CollectRows(rows, rowToCast)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return casts, nil
}

func rowToCast(row pgx.CollectableRow) (models.Cast, error) {
	var c models.Cast
	err := row.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.DisplayName, &c.Bio, &c.HourlyRate)
	return c, err
}
