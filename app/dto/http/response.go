package http

import (
	"time"

	"github.com/codetrust-ai/codetrust-api/app/entity"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        *string   `json:"name"`
	Bio         *string   `json:"bio"`
	Providers   []string  `json:"providers,omitempty"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SignupResponse struct {
	User UserResponse `json:"user"`
}

type LoginResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
}

// SessionResponse is empty when the caller has no session.
type SessionResponse struct {
	User      *UserResponse `json:"user,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}

type PageResponse struct {
	Page   string `json:"page"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func NewUserResponse(user *entity.User) UserResponse {
	resp := UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		HasPassword: user.HasPassword(),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
	if user.Name.Valid {
		name := user.Name.String
		resp.Name = &name
	}
	if user.Bio.Valid {
		bio := user.Bio.String
		resp.Bio = &bio
	}
	for _, identity := range user.Identities {
		resp.Providers = append(resp.Providers, identity.Provider)
	}

	return resp
}
