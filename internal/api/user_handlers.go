package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/tastebookapp/tastebook-server/internal/domain"
	"github.com/tastebookapp/tastebook-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Register new user",
		Description:   "Creates a new user account.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "createToken",
		Method:      http.MethodPost,
		Path:        tokenPath,
		Summary:     "Obtain access token",
		Description: "Exchanges email and password for an access token.",
		Tags:        []string{"Users"},
	}, s.handleCreateToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Update current user",
		Description: "Updates the caller's name and/or password.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentUser)
}

// === DTOs ===

// CreateUserRequest is the request body for registration.
type CreateUserRequest struct {
	Email    string `json:"email" doc:"Email address (unique, case-insensitive)"`
	Password string `json:"password" doc:"Password, 8 to 1024 characters"`
	Name     string `json:"name,omitempty" doc:"Display name"`
}

// CreateUserInput wraps the registration request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// UserResponse contains account information in API responses.
type UserResponse struct {
	ID        string    `json:"id" doc:"User ID"`
	Email     string    `json:"email" doc:"Email address"`
	Name      string    `json:"name" doc:"Display name"`
	IsActive  bool      `json:"is_active" doc:"Whether the account can log in"`
	CreatedAt time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// CreateTokenRequest is the request body for credential exchange.
type CreateTokenRequest struct {
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password"`
}

// CreateTokenInput wraps the token request for Huma.
type CreateTokenInput struct {
	Body CreateTokenRequest
}

// TokenResponse contains an issued access token.
type TokenResponse struct {
	Token string `json:"token" doc:"PASETO access token, opaque to clients"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

// UpdateUserRequest is the request body for profile updates. Omitted fields
// are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" doc:"New display name"`
	Password *string `json:"password,omitempty" doc:"New password, 8 to 1024 characters"`
}

// UpdateUserInput wraps the profile update for Huma.
type UpdateUserInput struct {
	Body UpdateUserRequest
}

func mapUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleCreateToken(ctx context.Context, input *CreateTokenInput) (*TokenOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &TokenOutput{Body: TokenResponse{Token: resp.Token}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.UpdateProfile(ctx, userID, service.UpdateProfileRequest{
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}
