package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cast struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CreatedAt   time.Time
	DisplayName string
	Bio         string
	HourlyRate  decimal.Decimal
}

type Favorite struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CastID    uuid.UUID
	CreatedAt time.Time

	// Cast the favorite points to, filled by list queries
	Cast Cast
}

type Review struct {
	ID        uuid.UUID
	CastID    uuid.UUID
	AuthorID  uuid.UUID
	CreatedAt time.Time
	Rating    int
	Comment   string
}
