package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/castbook/internal/apperrors"
	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/repository"
	"github.com/nkiryanov/castbook/internal/repository/memory"
	"github.com/nkiryanov/castbook/internal/service/auth/tokenmanager"
)

// Counts hasher calls to check login does the same work for every failure
type countingHasher struct {
	BcryptHasher
	mu       sync.Mutex
	compares int
}

func (h *countingHasher) Compare(hashedPassword string, password string) error {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()
	return h.BcryptHasher.Compare(hashedPassword, password)
}

type testEnv struct {
	s       *AuthService
	storage *memory.Storage
	hasher  *countingHasher
	now     time.Time
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		storage: memory.NewStorage(),
		hasher:  &countingHasher{BcryptHasher: BcryptHasher{Cost: bcrypt.MinCost}},
		now:     time.Now().UTC(),
	}

	tokens, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  "test-secret-key",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Now:        func() time.Time { return env.now },
	}, env.storage.Refresh())
	require.NoError(t, err, "token manager should be created without errors")

	env.s, err = NewService(Config{Hasher: env.hasher}, tokens, env.storage)
	require.NoError(t, err, "auth service could't be started")

	return env
}

func guestParams() RegisterParams {
	return RegisterParams{
		Email:       "Guest@Example.com",
		Password:    "password-1",
		DisplayName: "Guest",
		Role:        models.RoleGuest,
	}
}

func rolePtr(r models.Role) *models.Role { return &r }

func Test_Auth(t *testing.T) {
	t.Parallel()

	t.Run("new auth service defaults", func(t *testing.T) {
		s, err := NewService(Config{}, &tokenmanager.TokenManager{}, memory.NewStorage())
		require.NoError(t, err, "auth service should be created without errors")

		require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
		require.NotNil(t, s.logger)
	})

	t.Run("new auth service requires deps", func(t *testing.T) {
		_, err := NewService(Config{}, nil, nil)
		require.Error(t, err)
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new guest ok", func(t *testing.T) {
			env := newTestEnv(t)

			pair, profile, err := env.s.Register(t.Context(), guestParams())

			require.NoError(t, err, "registering new user should be ok")
			require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			require.Equal(t, "guest@example.com", *profile.Email, "email stored lowercased")
			require.Nil(t, profile.PhoneNumber)
			require.Equal(t, models.RoleGuest, profile.Role)
		})

		t.Run("cast gets listing", func(t *testing.T) {
			env := newTestEnv(t)

			_, profile, err := env.s.Register(t.Context(), RegisterParams{
				PhoneNumber: "+81 (90) 1234-5678",
				Password:    "password-1",
				DisplayName: "Aoi",
				Role:        models.RoleCast,
				Bio:         "hello",
				HourlyRate:  decimal.RequireFromString("120.50"),
			})
			require.NoError(t, err)
			require.Equal(t, "+819012345678", *profile.PhoneNumber, "phone stored normalized")

			casts, err := env.storage.Cast().ListCasts(t.Context(), 10, nil)
			require.NoError(t, err)
			require.Len(t, casts, 1)
			require.Equal(t, profile.ID, casts[0].UserID)
			require.Equal(t, "Aoi", casts[0].DisplayName)
			require.True(t, decimal.RequireFromString("120.5").Equal(casts[0].HourlyRate))
		})

		t.Run("fail if user exists", func(t *testing.T) {
			env := newTestEnv(t)
			_, _, err := env.s.Register(t.Context(), guestParams())
			require.NoError(t, err, "no error has should happen if user not exists")

			params := guestParams()
			params.Email = "guest@example.com"
			_, _, err = env.s.Register(t.Context(), params)

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})

		t.Run("validation", func(t *testing.T) {
			tests := []struct {
				name   string
				modify func(p *RegisterParams)
				field  string
			}{
				{"no identifier", func(p *RegisterParams) { p.Email = "" }, "email"},
				{"bad email", func(p *RegisterParams) { p.Email = "not-an-email" }, "email"},
				{"bad phone", func(p *RegisterParams) { p.Email, p.PhoneNumber = "", "12ab" }, "phone_number"},
				{"short password", func(p *RegisterParams) { p.Password = "short" }, "password"},
				{"no display name", func(p *RegisterParams) { p.DisplayName = "" }, "display_name"},
				{"unknown role", func(p *RegisterParams) { p.Role = 0 }, "role"},
				{"negative rate", func(p *RegisterParams) { p.HourlyRate = decimal.NewFromInt(-1) }, "hourly_rate"},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					env := newTestEnv(t)
					params := guestParams()
					tt.modify(&params)

					_, _, err := env.s.Register(t.Context(), params)

					var verr *apperrors.ValidationError
					require.ErrorAs(t, err, &verr)
					require.Contains(t, verr.Fields, tt.field)
				})
			}
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("existing user ok", func(t *testing.T) {
			env := newTestEnv(t)
			_, registered, err := env.s.Register(t.Context(), guestParams())
			require.NoError(t, err)

			pair, profile, err := env.s.Login(t.Context(), " GUEST@example.com ", "password-1", nil)

			require.NoError(t, err)
			require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			require.Equal(t, registered, profile)

			principal, err := env.s.Authenticate(t.Context(), pair.Access.Value)
			require.NoError(t, err)
			require.Equal(t, models.Principal{UserID: profile.ID, Role: models.RoleGuest}, principal)
		})

		t.Run("login by phone with expected role", func(t *testing.T) {
			env := newTestEnv(t)
			params := guestParams()
			params.Email, params.PhoneNumber = "", "+819012345678"
			_, _, err := env.s.Register(t.Context(), params)
			require.NoError(t, err)

			_, _, err = env.s.Login(t.Context(), "+81 80 1111 2222", "password-1", rolePtr(models.RoleGuest))
			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "other number")

			_, profile, err := env.s.Login(t.Context(), "81 90 1234 5678", "password-1", rolePtr(models.RoleGuest))
			require.NoError(t, err)
			require.Equal(t, "+819012345678", *profile.PhoneNumber)
		})

		tests := []struct {
			name     string
			login    string
			password string
			role     *models.Role
		}{
			{
				name:     "login fail if wrong password",
				login:    "guest@example.com",
				password: "wrong-password",
			},
			{
				name:     "login fail if user not exists",
				login:    "nobody@example.com",
				password: "password-1",
			},
			{
				name:     "login fail if role mismatch",
				login:    "guest@example.com",
				password: "password-1",
				role:     rolePtr(models.RoleCast),
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newTestEnv(t)
				_, _, err := env.s.Register(t.Context(), guestParams())
				require.NoError(t, err)
				compares := env.hasher.compares

				pair, profile, err := env.s.Login(t.Context(), tt.login, tt.password, tt.role)

				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
				require.Equal(t, "invalid credentials", err.Error(), "failure must not tell what went wrong")
				require.Empty(t, pair.Access.Value)
				require.Empty(t, profile.ID)
				require.Equal(t, compares+1, env.hasher.compares, "password hash compared exactly once")
			})
		}

		t.Run("validation before lookup", func(t *testing.T) {
			env := newTestEnv(t)

			_, _, err := env.s.Login(t.Context(), "not an identifier", "", nil)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, "Must be an email or a phone number", verr.Fields["identifier"])
			require.Equal(t, "This field is required", verr.Fields["password"])
			require.Zero(t, env.hasher.compares, "no lookup or compare on invalid input")
		})

		t.Run("unknown expected role", func(t *testing.T) {
			env := newTestEnv(t)

			_, _, err := env.s.Login(t.Context(), "guest@example.com", "password-1", rolePtr(models.Role(9)))

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, "role")
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("refresh once ok", func(t *testing.T) {
			env := newTestEnv(t)
			initialPair, _, err := env.s.Register(t.Context(), guestParams())
			require.NoError(t, err)

			newPair, err := env.s.Refresh(t.Context(), initialPair.Refresh.Value)

			require.NoError(t, err)
			require.NotEqual(t, initialPair.Access.Value, newPair.Access.Value, "new access token should be different")
			require.NotEqual(t, initialPair.Refresh.Value, newPair.Refresh.Value, "new refresh token should be different")
		})

		t.Run("fail if used once", func(t *testing.T) {
			env := newTestEnv(t)
			initialPair, _, err := env.s.Register(t.Context(), guestParams())
			require.NoError(t, err)

			_, err = env.s.Refresh(t.Context(), initialPair.Refresh.Value)
			require.NoError(t, err)

			_, err = env.s.Refresh(t.Context(), initialPair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken, "should return error if token already used")
		})

		t.Run("used token stays revoked when other tx rolls back", func(t *testing.T) {
			env := newTestEnv(t)
			initialPair, _, err := env.s.Register(t.Context(), guestParams())
			require.NoError(t, err)

			entered := make(chan struct{})
			release := make(chan struct{})
			txDone := make(chan error, 1)
			go func() {
				txDone <- env.storage.InTx(context.Background(), func(tx repository.Storage) error {
					close(entered)
					<-release
					return apperrors.ErrUserAlreadyExists
				})
			}()
			<-entered

			refreshed := make(chan error, 1)
			go func() {
				_, err := env.s.Refresh(context.Background(), initialPair.Refresh.Value)
				refreshed <- err
			}()

			time.Sleep(20 * time.Millisecond)
			close(release)
			require.ErrorIs(t, <-txDone, apperrors.ErrUserAlreadyExists)
			require.NoError(t, <-refreshed)

			_, err = env.s.Refresh(t.Context(), initialPair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken, "rollback must not bring revoked token back")
		})

		t.Run("fail if expired", func(t *testing.T) {
			env := newTestEnv(t)
			initialPair, _, err := env.s.Register(t.Context(), guestParams())
			require.NoError(t, err)

			env.advance(24 * time.Hour)

			_, err = env.s.Refresh(t.Context(), initialPair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken, "should return error if token expired")

			_, err = env.storage.Refresh().Find(t.Context(), initialPair.Refresh.Value)
			require.NoError(t, err, "expired token is not revoked on refresh")
		})

		t.Run("fail if unknown or empty", func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.s.Refresh(t.Context(), "not-issued")
			require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

			_, err = env.s.Refresh(t.Context(), "")
			require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
		})

		t.Run("concurrent refresh succeeds once", func(t *testing.T) {
			env := newTestEnv(t)
			initialPair, _, err := env.s.Register(t.Context(), guestParams())
			require.NoError(t, err)

			const workers = 8
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := env.s.Refresh(context.Background(), initialPair.Refresh.Value)
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			succeeded := 0
			for err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
			}
			require.Equal(t, 1, succeeded)
		})
	})

	t.Run("Logout", func(t *testing.T) {
		env := newTestEnv(t)
		pair, _, err := env.s.Register(t.Context(), guestParams())
		require.NoError(t, err)

		require.NoError(t, env.s.Logout(t.Context(), pair.Refresh.Value))
		require.NoError(t, env.s.Logout(t.Context(), pair.Refresh.Value), "logout is idempotent")

		_, err = env.s.Refresh(t.Context(), pair.Refresh.Value)
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken, "logged out token could not be used")
	})

	t.Run("GetProfile", func(t *testing.T) {
		env := newTestEnv(t)
		_, registered, err := env.s.Register(t.Context(), guestParams())
		require.NoError(t, err)

		profile, err := env.s.GetProfile(t.Context(), registered.ID)
		require.NoError(t, err)
		require.Equal(t, registered, profile)

		_, err = env.s.GetProfile(t.Context(), uuid.New())
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("Authenticate", func(t *testing.T) {
		env := newTestEnv(t)
		pair, _, err := env.s.Register(t.Context(), guestParams())
		require.NoError(t, err)

		_, err = env.s.Authenticate(t.Context(), "")
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

		env.advance(15 * time.Minute)
		_, err = env.s.Authenticate(t.Context(), pair.Access.Value)
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated, "expired access token")
	})
}
