package auth

import (
	"time"

	"codeberg.org/avksport/server/avk/users"
)

// UserView is the public shape of an account
type UserView struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Picture       string    `json:"picture,omitempty"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	Providers     []string  `json:"providers"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewUserView lists "password" as a provider when the account has a local password
func NewUserView(u *users.User) UserView {
	providers := make([]string, 0, len(u.Identities)+1)
	if u.HasPassword() {
		providers = append(providers, users.ProviderPassword)
	}

	for _, id := range u.Identities {
		providers = append(providers, id.Provider)
	}

	return UserView{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Phone:         u.Phone,
		Address:       u.Address,
		City:          u.City,
		Picture:       u.Picture,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		Providers:     providers,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// TokenResponse returned after register and login
type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        UserView `json:"user"`
}

// SessionResponse returned after a cookie session is opened
type SessionResponse struct {
	Success bool     `json:"success"`
	User    UserView `json:"user"`
}

// MessageResponse for simple success messages
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest opens a local account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=72"`
	FullName string `json:"full_name" binding:"required,max=200"`
	Phone    string `json:"phone" binding:"max=50"`
}

// LoginRequest carries local credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest for updating user profile; omitted fields are unchanged
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=200"`
	Phone    *string `json:"phone" binding:"omitempty,max=50"`
	Address  *string `json:"address" binding:"omitempty,max=500"`
	City     *string `json:"city" binding:"omitempty,max=100"`
}

// ChangePasswordRequest replaces a local password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,max=72"`
}

// ForgotPasswordRequest asks for a reset link
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest sets a password from a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,max=72"`
}

// OAuthSessionRequest carries the external session id; the header or query may be used instead
type OAuthSessionRequest struct {
	ExternalSessionID string `json:"external_session_id"`
}

// CookieConfig describes the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

const forgotPasswordMessage = "Если аккаунт с таким email существует, мы отправили ссылку для сброса пароля"
