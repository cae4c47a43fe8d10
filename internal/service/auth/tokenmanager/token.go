package tokenmanager

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/apperrors"
	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/repository"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	refreshTokenBytes = 32
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign access token
	// Required to be set: there is no fallback key
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	// Secret key to sign access token
	key []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time

	// Refresh token repo
	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("signing method %q is not supported, use one of HS256, HS384, HS512", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field <= 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		key:         []byte(cfg.SecretKey),
		alg:         alg,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		now:         cfg.Now,
		refreshRepo: refreshRepo,
	}, nil
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue new access token and new persisted refresh token for the user
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := m.now().UTC().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	// Generate JWT access token decoded as string
	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			Role: user.Role,
		},
	)
	access, err := accessToken.SignedString(m.key)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return pair, fmt.Errorf("error while generate refresh token. Err: %w", err)
	}

	err = m.refreshRepo.Create(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refresh,
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Random refresh token, hex encoded
func randomToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Find valid refresh token
// Absent and expired tokens both give apperrors.ErrInvalidRefreshToken
// Expired tokens are not touched: garbage collection removes them later
func (m *TokenManager) FindRefresh(ctx context.Context, refresh string) (models.RefreshToken, error) {
	token, err := m.refreshRepo.Find(ctx, refresh)

	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return token, apperrors.ErrInvalidRefreshToken
	case err != nil:
		return token, fmt.Errorf("error while searching refresh token. Err: %w", err)
	case token.Expired(m.now()):
		return token, apperrors.ErrInvalidRefreshToken
	default:
		return token, nil
	}
}

// Revoke (delete) refresh token
// Token revoked already gives apperrors.ErrInvalidRefreshToken
func (m *TokenManager) RevokeRefresh(ctx context.Context, refresh string) error {
	err := m.refreshRepo.Revoke(ctx, refresh)

	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return apperrors.ErrInvalidRefreshToken
	case err != nil:
		return fmt.Errorf("error while revoking refresh token. Err: %w", err)
	default:
		return nil
	}
}

// Delete refresh tokens expired by now
func (m *TokenManager) PruneExpired(ctx context.Context) (int64, error) {
	n, err := m.refreshRepo.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("error while deleting expired refresh tokens. Err: %w", err)
	}
	return n, nil
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(ctx context.Context, access string) (models.Principal, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("error while parsing or validating token. Err: %w", errors.Join(apperrors.ErrUnauthenticated, err))
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || !claims.Role.Valid() {
		return models.Principal{}, fmt.Errorf("token has invalid subject or role. Err: %w", apperrors.ErrUnauthenticated)
	}

	return models.Principal{UserID: userID, Role: claims.Role}, nil
}
