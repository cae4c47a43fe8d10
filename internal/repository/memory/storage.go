// Package memory keeps all repositories in process memory.
// It is used by tests and by the server when no database is configured.
package memory

import (
	"bytes"
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
	"github.com/nkiryanov/castbook/internal/repository"
)

type state struct {
	users     map[uuid.UUID]models.User
	tokens    map[string]models.RefreshToken
	casts     map[uuid.UUID]models.Cast
	favorites map[uuid.UUID]models.Favorite
	reviews   map[uuid.UUID]models.Review
}

func (s state) clone() state {
	return state{
		users:     maps.Clone(s.users),
		tokens:    maps.Clone(s.tokens),
		casts:     maps.Clone(s.casts),
		favorites: maps.Clone(s.favorites),
		reviews:   maps.Clone(s.reviews),
	}
}

type Storage struct {
	// Real mutex for the root storage. Storage given to InTx callback holds
	// the root lock already, so its own lock is a no-op
	mu sync.Locker
	st *state

	// Clock used for generated timestamps
	Now func() time.Time
}

func NewStorage() *Storage {
	return &Storage{
		mu: &sync.Mutex{},
		st: &state{
			users:     make(map[uuid.UUID]models.User),
			tokens:    make(map[string]models.RefreshToken),
			casts:     make(map[uuid.UUID]models.Cast),
			favorites: make(map[uuid.UUID]models.Favorite),
			reviews:   make(map[uuid.UUID]models.Review),
		},
		Now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Storage) User() repository.UserRepo { return &UserRepo{s} }
func (s *Storage) Refresh() repository.RefreshTokenRepo { return &RefreshTokenRepo{s} }
func (s *Storage) Cast() repository.CastRepo { return &CastRepo{s} }
func (s *Storage) Favorite() repository.FavoriteRepo { return &FavoriteRepo{s} }
func (s *Storage) Review() repository.ReviewRepo { return &ReviewRepo{s} }

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// InTx runs fn against a copy of the state and publishes the copy only if fn succeeds
// The storage lock is held for the whole fn: other callers wait until the transaction ends
// fn must use the storage it is given, calling the outer storage from fn deadlocks
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	tx := &Storage{mu: noLock{}, st: &working, Now: s.Now}

	if err := fn(tx); err != nil {
		return err
	}

	*s.st = working
	return nil
}

// Keep items placed strictly after cursor in (created_at DESC, id DESC) order, up to limit
func keyset[T any](items []T, limit int, after *pagination.Cursor, key func(T) (time.Time, uuid.UUID)) []T {
	less := func(at time.Time, aid uuid.UUID, bt time.Time, bid uuid.UUID) bool {
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		return bytes.Compare(aid[:], bid[:]) < 0
	}

	sort.Slice(items, func(i, j int) bool {
		it, iid := key(items[i])
		jt, jid := key(items[j])
		return less(jt, jid, it, iid)
	})

	var afterID uuid.UUID
	useCursor := false
	if after != nil {
		if parsed, err := uuid.Parse(after.ID); err == nil {
			afterID = parsed
			useCursor = true
		}
	}

	res := make([]T, 0, min(limit, len(items)))
	for _, item := range items {
		if len(res) >= limit {
			break
		}
		t, id := key(item)
		if useCursor && !less(t, id, after.CreatedAt, afterID) {
			continue
		}
		res = append(res, item)
	}

	return res
}
