package dto

import "time"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type ResumeRequest struct {
	RememberToken string `json:"remember_token" validate:"required"`
}

type VerifyRequest struct {
	Token string `query:"token" validate:"required"`
}

type LinkTelegramRequest struct {
	ChatID int64 `json:"chat_id" validate:"required"`
}

type TokenResponse struct {
	AccessToken   string    `json:"access_token"`
	ExpiresAt     time.Time `json:"expires_at"`
	RememberToken string    `json:"remember_token,omitempty"`
}

// AuthResult is the outcome of guarding one request.
type AuthResult struct {
	Authenticated bool   `json:"authenticated"`
	UserID        uint   `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
	IsAdmin       bool   `json:"is_admin"`
	Reason        string `json:"reason,omitempty"`
}

type UserResponse struct {
	ID             uint       `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	EmailVerified  bool       `json:"email_verified"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	TelegramChatID *int64     `json:"telegram_chat_id,omitempty"`
	RiskProfile    string     `json:"risk_profile,omitempty"`
	RiskScore      *int       `json:"risk_score,omitempty"`
	Membership     string     `json:"membership,omitempty"`
}
