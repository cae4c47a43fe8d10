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

type FavoriteRepo struct {
	DB DBTX
}

// Insert favorite or return the existed one
// Second select doesn't see the row inserted by the same statement, so exactly one row returned
const addFavorite = `-- name: AddFavorite
WITH inserted AS (
	INSERT INTO favorites (id, user_id, cast_id, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, cast_id) DO NOTHING
	RETURNING id, user_id, cast_id, created_at
)
SELECT id, user_id, cast_id, created_at FROM inserted
UNION ALL
SELECT id, user_id, cast_id, created_at FROM favorites WHERE user_id = $2 AND cast_id = $3
LIMIT 1
`

func (r *FavoriteRepo) AddFavorite(ctx context.Context, userID uuid.UUID, castID uuid.UUID) (models.Favorite, error) {
	rows, _ := r.DB.Query(ctx, addFavorite, uuid.New(), userID, castID, now())
	fav, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Favorite, error) {
		var f models.Favorite
		err := row.Scan(&f.ID, &f.UserID, &f.CastID, &f.CreatedAt)
		return f, err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fav, apperrors.ErrCastNotFound
		}

		return fav, fmt.Errorf("db error: %w", err)
	}

	return fav, nil
}

const removeFavorite = `-- name: RemoveFavorite
DELETE FROM favorites
WHERE user_id = $1 AND cast_id = $2
`

func (r *FavoriteRepo) RemoveFavorite(ctx context.Context, userID uuid.UUID, castID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, removeFavorite, userID, castID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const listFavorites = `-- name: ListFavorites
SELECT f.id, f.user_id, f.cast_id, f.created_at,
	c.id, c.user_id, c.created_at, c.display_name, c.bio, c.hourly_rate
FROM favorites f
JOIN casts c ON c.id = f.cast_id
WHERE f.user_id = $1
	AND ($2::timestamptz IS NULL OR (f.created_at, f.id) < ($2::timestamptz, $3::uuid))
ORDER BY f.created_at DESC, f.id DESC
LIMIT $4
`

func (r *FavoriteRepo) ListFavorites(ctx context.Context, userID uuid.UUID, limit int, after *pagination.Cursor) ([]models.Favorite, error) {
	createdAt, id := keysetArgs(after)

	rows, _ := r.DB.Query(ctx, listFavorites, userID, createdAt, id, limit)
	favs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Favorite, error) {
		var f models.Favorite
		err := row.Scan(
			&f.ID, &f.UserID, &f.CastID, &f.CreatedAt,
			&f.Cast.ID, &f.Cast.UserID, &f.Cast.CreatedAt, &f.Cast.DisplayName, &f.Cast.Bio, &f.Cast.HourlyRate,
		)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return favs, nil
}
