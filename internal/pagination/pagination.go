// Package pagination implements keyset (cursor) pagination shared by list endpoints.
//
// A list endpoint clamps the client limit, decodes the client cursor, asks its
// repository for FetchLimit(limit) rows ordered by (created_at DESC, id DESC) and
// starting after the cursor, then turns the result into a Page with BuildPage.
// The package never touches storage itself.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Cursor points to the last row of the previous page
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Wire form of the cursor. Pointers let decoding tell a missing key from an empty one
type cursorPayload struct {
	CreatedAt *string `json:"created_at"`
	ID        *string `json:"id"`
}

type Page[T any] struct {
	Items      []T
	NextCursor string // empty when there is nothing more to read
	HasMore    bool
}

// NormalizeLimit converts untrusted client limit to value in [1, maxLimit]
// Empty or non-numeric value gives defaultLimit, out of int range number gives the nearest bound
func NormalizeLimit(requested string, maxLimit int, defaultLimit int) int {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	// On range error Atoi returns the max magnitude int of the right sign
	n, err := strconv.Atoi(strings.TrimSpace(requested))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return ClampLimit(defaultLimit, maxLimit)
	}

	return ClampLimit(n, maxLimit)
}

// ClampLimit bounds n to [1, maxLimit]
func ClampLimit(n int, maxLimit int) int {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}

	switch {
	case n < 1:
		return 1
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}

// FetchLimit is how many rows the repository has to be asked for.
// The extra row tells whether another page exists
func FetchLimit(limit int) int {
	return limit + 1
}

// EncodeCursor serializes cursor as unpadded base64url JSON
func EncodeCursor(c Cursor) string {
	createdAt := c.CreatedAt.UTC().Format(time.RFC3339Nano)
	id := c.ID

	// Marshaling of two strings can't fail
	b, _ := json.Marshal(cursorPayload{CreatedAt: &createdAt, ID: &id})

	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses cursor produced by EncodeCursor
// Any malformed input gives nil, so pagination starts from the beginning
func DecodeCursor(token string) *Cursor {
	token = strings.TrimRight(strings.TrimSpace(token), "=")
	if token == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}

	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}

	if p.CreatedAt == nil || p.ID == nil || *p.ID == "" {
		return nil
	}

	createdAt, err := time.Parse(time.RFC3339Nano, *p.CreatedAt)
	if err != nil {
		return nil
	}

	return &Cursor{CreatedAt: createdAt, ID: *p.ID}
}

// BuildPage trims result fetched with FetchLimit(limit) to a page
// key extracts sort key of an item; it is called for the last kept item only
func BuildPage[T any](items []T, limit int, key func(T) Cursor) Page[T] {
	if limit < 1 {
		limit = 1
	}

	page := Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
		page.NextCursor = EncodeCursor(key(page.Items[limit-1]))
	}

	if page.Items == nil {
		page.Items = make([]T, 0)
	}

	return page
}
