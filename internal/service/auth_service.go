package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/kvitok/internal/auth"
	"github.com/prn-tf/kvitok/internal/domain"
	"github.com/prn-tf/kvitok/internal/metrics"
	"github.com/prn-tf/kvitok/internal/repository"
)

// AuthService handles user registration and login.
type AuthService struct {
	userRepo      repository.UserRepository
	authenticator *auth.Authenticator
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, authenticator *auth.Authenticator, m *metrics.Metrics, logger zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		authenticator: authenticator,
		metrics:       m,
		logger:        logger.With().Str("service", "auth").Logger(),
	}
}

// RegisterInput contains the data needed to register a new user.
type RegisterInput struct {
	Name     string
	Nickname string
	Password string
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Register creates a new user account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Name, input.Nickname, string(passwordHash))
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return err
		}
		s.logger.Error().Err(err).Str("nickname", input.Nickname).Msg("failed to create user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.metrics.UserRegistered()
	s.logger.Info().
		Int64("user_id", user.ID).
		Str("nickname", user.Nickname).
		Msg("user registered")

	return nil
}

// Login verifies the nickname and password and issues a token pair.
// An unknown nickname and a wrong password are reported separately.
func (s *AuthService) Login(ctx context.Context, nickname, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidNickname
		}
		s.logger.Error().Err(err).Str("nickname", nickname).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrIncorrectPassword
	}

	accessToken, err := s.authenticator.CreateAccessToken(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue access token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	refreshToken, err := s.authenticator.CreateRefreshToken(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue refresh token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
