// Package auth holds the session controller: login, logout and the one-time
// startup check of the stored tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/cognito"
	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
	"github.com/twy/backoffice/store"
	"github.com/twy/backoffice/utils"
	"go.uber.org/zap"
)

const (
	// LoginEndpoint is the unauthenticated login endpoint
	LoginEndpoint = "/login"
	// LogoutPath is where a logout lands
	LogoutPath = "/"
)

// Navigator performs a full navigation to an application route
type Navigator = client.Navigator

// ErrIncompleteLogin is returned when the login response lacks a token
var ErrIncompleteLogin = errors.New("login response is missing tokens")

// Session exposes login and logout to the rest of the application
type Session struct {
	client    *client.Client
	tokens    *store.TokenStore
	navigator Navigator
	logger    *zap.Logger
	loginPath string

	initOnce sync.Once
}

// NewSession creates a Session over c. The navigator may be nil.
func NewSession(c *client.Client, navigator Navigator, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		client:    c,
		tokens:    c.Tokens(),
		navigator: navigator,
		logger:    logger,
		loginPath: client.DefaultLoginPath,
	}
}

// Init refreshes an expired access token once at startup and clears the
// session if that fails. Later calls do nothing.
func (s *Session) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		access, ok := s.tokens.Get(ctx, store.KindAccess)
		if !ok || !s.client.IsExpired(access) {
			return
		}
		if _, ok := s.client.Refresh(ctx); ok {
			s.logger.Info("access token refreshed at startup")
			return
		}
		s.logger.Info("stored session could not be refreshed, clearing it")
		s.tokens.ClearTokens(ctx)
	})
}

// Login authenticates with email and password and stores the issued tokens
// with the local auth-method tag
func (s *Session) Login(ctx context.Context, email, password string) error {
	req := models.LoginRequest{Email: email, Password: password}
	if err := utils.ValidateStruct(&req); err != nil {
		return err
	}

	var resp models.APIResponse[models.LoginResponse]
	if err := s.client.Post(ctx, LoginEndpoint, req, &resp, client.SkipAuth()); err != nil {
		s.logger.Info("login failed", zap.Error(err))
		return err
	}

	tokens := resp.Data
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.IDToken == "" {
		return ErrIncompleteLogin
	}

	if err := s.tokens.SetAuthMethod(ctx, store.AuthMethodLocal); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	err := s.tokens.SetTokens(ctx, store.TokenSet{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		IDToken:      tokens.IDToken,
	})
	if err != nil {
		s.tokens.Clear(ctx)
		return fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("logged in", zap.String("request_id", resp.RequestID))
	return nil
}

// Logout clears the session and navigates to the root route
func (s *Session) Logout(ctx context.Context) {
	s.tokens.Clear(ctx)
	s.logger.Info("logged out")
	if s.navigator != nil {
		s.navigator.Navigate(LogoutPath)
	}
}

// IsAuthenticated reports whether an id token is stored
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.tokens.Get(ctx, store.KindID)
	return ok
}

// Identity decodes the stored id token
func (s *Session) Identity(ctx context.Context) (*cognito.Identity, bool) {
	idToken, ok := s.tokens.Get(ctx, store.KindID)
	if !ok {
		return nil, false
	}
	identity, err := cognito.ExtractIdentity(idToken)
	if err != nil {
		return nil, false
	}
	return identity, true
}

// Role returns the role claimed by the stored id token
func (s *Session) Role(ctx context.Context) (rbac.Role, bool) {
	identity, ok := s.Identity(ctx)
	if !ok {
		return "", false
	}
	role, err := rbac.ParseRole(identity.Role)
	if err != nil {
		return "", false
	}
	return role, true
}

// Menu returns the navigation entries for the signed-in user
func (s *Session) Menu(ctx context.Context) []rbac.MenuItem {
	role, ok := s.Role(ctx)
	if !ok {
		return nil
	}
	return rbac.Menu(role)
}

// Authorize decides whether the page at path renders. Without a session the
// answer is the login route; otherwise the role guard decides.
func (s *Session) Authorize(ctx context.Context, path string) rbac.Decision {
	if !s.IsAuthenticated(ctx) {
		return rbac.Decision{Redirect: s.loginPath}
	}
	feature, gated := rbac.FeatureForPath(path)
	if !gated {
		return rbac.Decision{Allowed: true}
	}
	role, _ := s.Role(ctx)
	decision := rbac.Guard(role, feature)
	if _, ok := rbac.Landing(role); !ok && !decision.Allowed {
		decision.Redirect = s.loginPath
	}
	return decision
}
