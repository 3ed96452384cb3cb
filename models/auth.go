package models

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the tokens issued at login
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenRequest is the body of POST /refresh-token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshTokenResponse carries the tokens issued by a refresh
type RefreshTokenResponse struct {
	AccessToken string `json:"accessToken"`
	IDToken     string `json:"idToken"`
}

// SignUpRequest is the body of POST /signup
type SignUpRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// VerifyRequest is the body of POST /verify
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// ForgotPasswordRequest is the body of POST /forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreatePasswordRequest is the body of POST /create-password
type CreatePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ResendCodeRequest is the body of POST /resend-code
type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AccountResponse acknowledges an account operation
type AccountResponse struct {
	UserSub string `json:"userSub,omitempty"`
	Message string `json:"message"`
}
