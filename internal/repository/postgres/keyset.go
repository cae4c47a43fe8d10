package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/pagination"
)

// Arguments for '($n::timestamptz IS NULL OR (created_at, id) < ($n::timestamptz, $m::uuid))' predicate
// Cursor with id that is not uuid can't come from us, so it is ignored like any other broken cursor
func keysetArgs(after *pagination.Cursor) (createdAt any, id any) {
	if after == nil {
		return nil, nil
	}

	parsed, err := uuid.Parse(after.ID)
	if err != nil {
		return nil, nil
	}

	return after.CreatedAt, parsed
}

// Postgres keeps microseconds only; rows created by us must compare equal after reading back
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
