package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tastebookapp/tastebook-server/internal/auth"
	"github.com/tastebookapp/tastebook-server/internal/domain"
	domainerrors "github.com/tastebookapp/tastebook-server/internal/errors"
	"github.com/tastebookapp/tastebook-server/internal/id"
	"github.com/tastebookapp/tastebook-server/internal/normalize"
	"github.com/tastebookapp/tastebook-server/internal/store"
	"github.com/tastebookapp/tastebook-server/internal/store/sqlite"
)

// AuthService handles registration, credential exchange, and profile management.
type AuthService struct {
	store        *sqlite.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *sqlite.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// RegisterRequest contains new account data.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Name     string `json:"name"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UpdateProfileRequest carries a partial profile update. Nil fields are
// left untouched.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024"`
}

// Register creates a new user account. The email's domain part is
// lowercased before storage; a duplicate registration (case-insensitive)
// is rejected.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Email:        normalize.Email(req.Email),
		Name:         normalize.Name(req.Name),
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	user.Touch()
	user.CreatedAt = user.UpdatedAt

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user registered", "user_id", userID, "email", user.Email)
	}

	return user, nil
}

// Login exchanges credentials for an access token. Unknown emails and wrong
// passwords fail identically so the response does not leak which emails
// are registered.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if !user.IsActive {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user logged in", "user_id", user.ID)
	}

	return &TokenResponse{Token: token}, nil
}

// GetProfile returns the caller's account.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's account. A new
// password is re-hashed; email is never changed here.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = normalize.Name(*req.Name)
	}
	if req.Password != nil {
		passwordHash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = passwordHash
	}
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by the authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("invalid token")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, domainerrors.Unauthorized("account disabled")
	}

	return user, claims, nil
}
