package mockapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
	"unicode"

	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
	"github.com/twy/backoffice/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// SignUpRole is the role of a self-registered account
	SignUpRole = rbac.RoleCarrier

	codeTTL = 24 * time.Hour
)

// Accounts implements sign-up, sign-in and the password flows
type Accounts struct {
	users       repositories.UserRepository
	credentials repositories.CredentialRepository
	issuer      *TokenIssuer
	logger      *zap.Logger
	now         func() time.Time
	bcryptCost  int

	// serializes check-then-create on sign-up
	mu sync.Mutex
}

// NewAccounts creates the account service
func NewAccounts(users repositories.UserRepository, credentials repositories.CredentialRepository, issuer *TokenIssuer, logger *zap.Logger) *Accounts {
	return &Accounts{
		users:       users,
		credentials: credentials,
		issuer:      issuer,
		logger:      logger,
		now:         time.Now,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// SetBcryptCost overrides the password hashing cost
func (a *Accounts) SetBcryptCost(cost int) {
	a.bcryptCost = cost
}

// SignUp registers an unconfirmed account and issues a verification code
func (a *Accounts) SignUp(ctx context.Context, req models.SignUpRequest) (models.AccountResponse, error) {
	if !strongPassword(req.Password) {
		return models.AccountResponse{}, ErrWeakPassword
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.credentials.Get(ctx, req.Email); err == nil {
		return models.AccountResponse{}, ErrEmailExists
	}

	user := models.NewUser(req.FirstName, req.LastName, req.Email, SignUpRole, nil)
	if err := a.provision(ctx, user, req.Password, false); err != nil {
		return models.AccountResponse{}, err
	}

	a.logger.Info("account registered",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email))
	return models.AccountResponse{
		UserSub: user.ID,
		Message: "User registered successfully. Please check your email for the verification code.",
	}, nil
}

// Provision creates a user with a credential. An empty password leaves the
// account waiting for create-password with a fresh code.
func (a *Accounts) Provision(ctx context.Context, user *models.User, password string, confirmed bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.provision(ctx, user, password, confirmed)
}

func (a *Accounts) provision(ctx context.Context, user *models.User, password string, confirmed bool) error {
	cred := &repositories.Credential{
		Email:     user.Email,
		UserID:    user.ID,
		Confirmed: confirmed,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
		if err != nil {
			return WrapInternal("failed to hash password", err)
		}
		cred.PasswordHash = hash
	}
	if !confirmed || password == "" {
		if err := a.issueCode(cred); err != nil {
			return err
		}
	}

	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrEmailExists
		}
		return WrapInternal("failed to create user", err)
	}
	if err := a.credentials.Create(ctx, cred); err != nil {
		_ = a.users.Delete(ctx, user.ID)
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrEmailExists
		}
		return WrapInternal("failed to create credential", err)
	}
	return nil
}

// Verify confirms an account with its code
func (a *Accounts) Verify(ctx context.Context, email, code string) (models.AccountResponse, error) {
	cred, err := a.credential(ctx, email)
	if err != nil {
		return models.AccountResponse{}, err
	}
	if cred.Confirmed {
		return models.AccountResponse{}, ErrAlreadyConfirmed
	}
	if err := a.checkCode(cred, code); err != nil {
		return models.AccountResponse{}, err
	}

	cred.Confirmed = true
	cred.Code = ""
	if err := a.credentials.Update(ctx, cred); err != nil {
		return models.AccountResponse{}, WrapInternal("failed to confirm account", err)
	}
	return models.AccountResponse{UserSub: cred.UserID, Message: "User verified successfully."}, nil
}

// ResendCode issues a new verification code to an unconfirmed account
func (a *Accounts) ResendCode(ctx context.Context, email string) (models.AccountResponse, error) {
	cred, err := a.credential(ctx, email)
	if err != nil {
		return models.AccountResponse{}, err
	}
	if cred.Confirmed {
		return models.AccountResponse{}, ErrAlreadyConfirmed
	}
	if err := a.storeCode(ctx, cred); err != nil {
		return models.AccountResponse{}, err
	}
	return models.AccountResponse{Message: "Verification code resent successfully."}, nil
}

// ForgotPassword issues a password reset code
func (a *Accounts) ForgotPassword(ctx context.Context, email string) (models.AccountResponse, error) {
	cred, err := a.credential(ctx, email)
	if err != nil {
		return models.AccountResponse{}, err
	}
	if err := a.storeCode(ctx, cred); err != nil {
		return models.AccountResponse{}, err
	}
	return models.AccountResponse{Message: "Password reset code sent successfully."}, nil
}

// CreatePassword sets a new password using a reset code. Completing it also
// confirms the account since the code proves the email address.
func (a *Accounts) CreatePassword(ctx context.Context, req models.CreatePasswordRequest) (models.AccountResponse, error) {
	if !strongPassword(req.NewPassword) {
		return models.AccountResponse{}, ErrWeakPassword
	}
	cred, err := a.credential(ctx, req.Email)
	if err != nil {
		return models.AccountResponse{}, err
	}
	if err := a.checkCode(cred, req.Code); err != nil {
		return models.AccountResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), a.bcryptCost)
	if err != nil {
		return models.AccountResponse{}, WrapInternal("failed to hash password", err)
	}
	cred.PasswordHash = hash
	cred.Confirmed = true
	cred.Code = ""
	if err := a.credentials.Update(ctx, cred); err != nil {
		return models.AccountResponse{}, WrapInternal("failed to update password", err)
	}
	return models.AccountResponse{Message: "Password updated successfully."}, nil
}

// Login checks a password and issues tokens
func (a *Accounts) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	cred, err := a.credentials.Get(ctx, email)
	if err != nil {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	if !cred.Confirmed {
		return models.LoginResponse{}, ErrNotConfirmed
	}

	user, err := a.activeUser(ctx, cred.UserID)
	if err != nil {
		return models.LoginResponse{}, err
	}
	tokens, err := a.issuer.Issue(user)
	if err != nil {
		return models.LoginResponse{}, WrapInternal("failed to issue tokens", err)
	}
	a.logger.Info("user signed in", zap.String("user_id", user.ID))
	return tokens, nil
}

// Refresh exchanges a refresh token for new access and id tokens
func (a *Accounts) Refresh(ctx context.Context, refreshToken string) (models.RefreshTokenResponse, error) {
	claims, err := a.issuer.ValidateRefreshToken(refreshToken)
	if err != nil {
		return models.RefreshTokenResponse{}, err
	}
	user, err := a.activeUser(ctx, claims.Subject)
	if err != nil {
		return models.RefreshTokenResponse{}, err
	}
	tokens, err := a.issuer.Reissue(user)
	if err != nil {
		return models.RefreshTokenResponse{}, WrapInternal("failed to issue tokens", err)
	}
	return tokens, nil
}

// PendingCode returns the outstanding code for email. It stands in for the
// verification email.
func (a *Accounts) PendingCode(ctx context.Context, email string) (string, bool) {
	cred, err := a.credentials.Get(ctx, email)
	if err != nil || cred.Code == "" {
		return "", false
	}
	return cred.Code, true
}

// Remove deletes the credential for email
func (a *Accounts) Remove(ctx context.Context, email string) error {
	if err := a.credentials.Delete(ctx, email); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return WrapInternal("failed to delete credential", err)
	}
	return nil
}

func (a *Accounts) activeUser(ctx context.Context, id string) (*models.User, error) {
	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, WrapInternal("failed to load user", err)
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	return user, nil
}

func (a *Accounts) credential(ctx context.Context, email string) (*repositories.Credential, error) {
	cred, err := a.credentials.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to load credential", err)
	}
	return cred, nil
}

func (a *Accounts) checkCode(cred *repositories.Credential, code string) error {
	if cred.Code == "" || cred.Code != code {
		return ErrInvalidCode
	}
	if !a.now().Before(cred.CodeExpires) {
		return ErrExpiredCode
	}
	return nil
}

func (a *Accounts) storeCode(ctx context.Context, cred *repositories.Credential) error {
	if err := a.issueCode(cred); err != nil {
		return err
	}
	if err := a.credentials.Update(ctx, cred); err != nil {
		return WrapInternal("failed to store code", err)
	}
	return nil
}

func (a *Accounts) issueCode(cred *repositories.Credential) error {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return WrapInternal("failed to generate code", err)
	}
	cred.Code = fmt.Sprintf("%06d", n.Int64())
	cred.CodeExpires = a.now().Add(codeTTL)
	a.logger.Info("verification code issued",
		zap.String("email", cred.Email),
		zap.String("code", cred.Code))
	return nil
}

// strongPassword requires eight characters with an uppercase letter, a
// digit and a symbol
func strongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var upper, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && digit && symbol
}
