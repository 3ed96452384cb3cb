package services

import (
	"context"
	"net/http"

	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/models"
	"go.uber.org/zap"
)

// Account covers the unauthenticated sign-up and password flows
type Account struct {
	client *client.Client
	logger *zap.Logger
}

func (s *Account) post(ctx context.Context, path string, body any) (models.AccountResponse, error) {
	return send[models.AccountResponse](ctx, s.client, http.MethodPost, path, body, client.SkipAuth())
}

// SignUp registers a new account pending verification
func (s *Account) SignUp(ctx context.Context, req models.SignUpRequest) (models.AccountResponse, error) {
	resp, err := s.post(ctx, "/signup", &req)
	if err != nil {
		return resp, err
	}
	s.logger.Info("account registered", zap.String("user_sub", resp.UserSub))
	return resp, nil
}

// Verify confirms an account with the emailed code
func (s *Account) Verify(ctx context.Context, req models.VerifyRequest) (models.AccountResponse, error) {
	return s.post(ctx, "/verify", &req)
}

// ForgotPassword emails a password reset code
func (s *Account) ForgotPassword(ctx context.Context, email string) (models.AccountResponse, error) {
	return s.post(ctx, "/forgot-password", &models.ForgotPasswordRequest{Email: email})
}

// CreatePassword sets a new password using a reset code
func (s *Account) CreatePassword(ctx context.Context, req models.CreatePasswordRequest) (models.AccountResponse, error) {
	return s.post(ctx, "/create-password", &req)
}

// ResendCode emails a fresh verification code
func (s *Account) ResendCode(ctx context.Context, email string) (models.AccountResponse, error) {
	return s.post(ctx, "/resend-code", &models.ResendCodeRequest{Email: email})
}
