package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	LoginID  string `json:"login_id" binding:"required,min=4,max=50"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Nickname string `json:"nickname" binding:"required,min=2,max=50"`
}

type LoginRequest struct {
	LoginID  string `json:"login_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	LoginID   string         `json:"login_id"`
	Nickname  string         `json:"nickname"`
	Role      model.UserRole `json:"role"`
	AvatarURL *string        `json:"avatar_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func ToUserResponse(u *model.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		LoginID:   u.LoginID,
		Nickname:  u.Nickname,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	Nickname  *string `json:"nickname" binding:"omitempty,min=2,max=50"`
	Email     *string `json:"email" binding:"omitempty,email,max=100"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

type SendResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type VerifyResetCodeResponse struct {
	ResetToken string `json:"reset_token"`
}

type ConfirmResetRequest struct {
	ResetToken string `json:"reset_token" binding:"required"`
}
