package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/castbook/internal/apperrors"
	"github.com/nkiryanov/castbook/internal/logger"
	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/repository"
	"github.com/nkiryanov/castbook/internal/service/validate"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type TokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	FindRefresh(ctx context.Context, refresh string) (models.RefreshToken, error)
	RevokeRefresh(ctx context.Context, refresh string) error
	ParseAccess(ctx context.Context, access string) (models.Principal, error)
}

type Config struct {
	// Hasher to use during user registration or login process
	// BcryptHasher if not set
	Hasher PasswordHasher

	// No-op logger if not set
	Logger logger.Logger
}

// Auth service
type AuthService struct {
	// Manager to issue token pairs (access and refresh)
	tokens TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repositories to access long term data
	storage repository.Storage

	logger logger.Logger

	// Hash compared against when user not found
	dummyHash func() string
}

func NewService(cfg Config, tokens TokenManager, storage repository.Storage) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	l := cfg.Logger
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AuthService{
		tokens:  tokens,
		hasher:  hasher,
		storage: storage,
		logger:  l.With("service", "auth"),
		dummyHash: sync.OnceValue(func() string {
			hash, _ := hasher.Hash(uuid.NewString())
			return hash
		}),
	}, nil
}

type RegisterParams struct {
	Email       string          `validate:"required_without=PhoneNumber,omitempty,email,max=254" name:"email"`
	PhoneNumber string          `validate:"required_without=Email,omitempty,phone" name:"phone_number"`
	Password    string          `validate:"required,min=8,max=72" name:"password"`
	DisplayName string          `validate:"required,max=64" name:"display_name"`
	Role        models.Role     `validate:"oneof=1 2" name:"role"`
	Bio         string          `validate:"max=2000" name:"bio"`
	HourlyRate  decimal.Decimal `validate:"-" name:"hourly_rate"`
}

// Register creates user and, for cast role, its cast listing
// Returns issued token pair like Login does
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.TokenPair, models.Profile, error) {
	var pair models.TokenPair

	if err := validate.Struct(params); err != nil {
		return pair, models.Profile{}, err
	}
	if params.HourlyRate.IsNegative() {
		return pair, models.Profile{}, apperrors.NewValidationError(map[string]string{
			"hourly_rate": "Value must be greater than or equal to 0",
		})
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return pair, models.Profile{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	create := repository.CreateUserParams{
		DisplayName:    strings.TrimSpace(params.DisplayName),
		HashedPassword: hash,
		Role:           params.Role,
	}
	if params.Email != "" {
		email := validate.NormalizeIdentifier(params.Email)
		create.Email = &email
	}
	if params.PhoneNumber != "" {
		phone := validate.NormalizePhone(params.PhoneNumber)
		create.PhoneNumber = &phone
	}

	var user models.User
	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error
		user, err = tx.User().CreateUser(ctx, create)
		if err != nil {
			return err
		}

		if user.Role != models.RoleCast {
			return nil
		}

		_, err = tx.Cast().CreateCast(ctx, models.Cast{
			UserID:      user.ID,
			DisplayName: user.DisplayName,
			Bio:         params.Bio,
			HourlyRate:  params.HourlyRate,
		})
		return err
	})
	if err != nil {
		return pair, models.Profile{}, err
	}

	pair, err = s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return pair, models.Profile{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return pair, user.Profile(), nil
}

type loginInput struct {
	Identifier string `validate:"required,identifier" name:"identifier"`
	Password   string `validate:"required" name:"password"`
}

// Login by email or phone number and password
// If expectedRole is set, user with other role could not log in
// Any auth failure is reported as apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, identifier string, password string, expectedRole *models.Role) (models.TokenPair, models.Profile, error) {
	var pair models.TokenPair

	if err := validate.Struct(loginInput{Identifier: strings.TrimSpace(identifier), Password: password}); err != nil {
		return pair, models.Profile{}, err
	}
	if expectedRole != nil && !expectedRole.Valid() {
		return pair, models.Profile{}, apperrors.NewValidationError(map[string]string{
			"role": "Must be one of: guest cast",
		})
	}

	user, err := s.storage.User().GetUserByIdentifier(ctx, validate.NormalizeIdentifier(identifier))
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Same work as for wrong password
		_ = s.hasher.Compare(s.dummyHash(), password)
		s.logger.Debug("login failed", "reason", "unknown identifier")
		return pair, models.Profile{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return pair, models.Profile{}, fmt.Errorf("error while searching user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("login failed", "reason", "wrong password", "user_id", user.ID)
		return pair, models.Profile{}, apperrors.ErrInvalidCredentials
	}

	if expectedRole != nil && user.Role != *expectedRole {
		s.logger.Debug("login failed", "reason", "role mismatch", "user_id", user.ID)
		return pair, models.Profile{}, apperrors.ErrInvalidCredentials
	}

	pair, err = s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return pair, models.Profile{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, user.Profile(), nil
}

// Refresh exchanges refresh token to a new pair
// The token is revoked before new pair issued, so only one of concurrent calls succeeds
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	if refresh == "" {
		return pair, apperrors.ErrInvalidRefreshToken
	}

	token, err := s.tokens.FindRefresh(ctx, refresh)
	if err != nil {
		return pair, err
	}

	err = s.tokens.RevokeRefresh(ctx, refresh)
	if err != nil {
		return pair, err
	}

	user, err := s.storage.User().GetUserByID(ctx, token.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return pair, apperrors.ErrInvalidRefreshToken
	case err != nil:
		return pair, fmt.Errorf("error while loading token owner. Err: %w", err)
	}

	pair, err = s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return pair, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

// Logout revokes refresh token; unknown token is not an error
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	if refresh == "" {
		return nil
	}

	err := s.tokens.RevokeRefresh(ctx, refresh)
	if errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		return nil
	}
	return err
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	return user.Profile(), nil
}

// Authenticate parses access token
// Returns apperrors.ErrUnauthenticated for any invalid token
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.Principal, error) {
	if access == "" {
		return models.Principal{}, apperrors.ErrUnauthenticated
	}
	return s.tokens.ParseAccess(ctx, access)
}
