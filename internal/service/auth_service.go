package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
)

// RegisterInput carries the public registration form.
type RegisterInput struct {
	Name     string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users             repository.UserRepository
	tokenMgr          *auth.TokenManager
	hasher            *auth.Hasher
	allowRegistration bool
	logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, appName string, users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:             users,
		tokenMgr:          auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes, appName),
		hasher:            auth.NewHasher(cfg.BcryptCost),
		allowRegistration: cfg.AllowRegistration,
		logger:            logger,
	}
}

// Register creates an operator account. Email uniqueness is left to the
// store's unique constraint, so concurrent registrations for one email
// produce exactly one account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if !s.allowRegistration {
		return nil, ErrRegistrationClosed
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.hasher.CompareDummy(password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.CompareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user.Identity(), nil
}

// Login authenticates and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Identity, *domain.Token, error) {
	identity, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	token, err := s.tokenMgr.GenerateToken(identity)
	if err != nil {
		return nil, nil, fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user logged in", zap.String("user_id", identity.ID))
	return identity, token, nil
}

// Me resolves the identity behind a session.
func (s *AuthService) Me(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user.Identity(), nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
