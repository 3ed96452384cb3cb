// Package store persists the session tokens. Every entry carries its own
// expiry, taken from the token's exp claim, so a token and its storage entry
// expire together.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twy/backoffice/cognito"
	"go.uber.org/zap"
)

// Kind identifies one of the three session tokens
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
	KindID
)

// Kinds lists every token kind
var Kinds = []Kind{KindAccess, KindRefresh, KindID}

// String returns the short name used in logs
func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	case KindID:
		return "id"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Key returns the persisted entry name
func (k Kind) Key() string {
	switch k {
	case KindAccess:
		return "accessToken"
	case KindRefresh:
		return "refreshToken"
	case KindID:
		return "idToken"
	default:
		return ""
	}
}

// AuthMethodKey is the entry name of the auth-method tag
const AuthMethodKey = "authMethod"

// AuthMethod records how the session was established
type AuthMethod string

// AuthMethodLocal is an email/password login against the API
const AuthMethodLocal AuthMethod = "local"

// ErrUnknownKind is returned for a Kind outside the three token kinds
var ErrUnknownKind = errors.New("unknown token kind")

// Clock returns the current time
type Clock func() time.Time

// Backend is an expiring key/value medium. A zero expiresAt means the entry
// lives until removed. Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiresAt time.Time) error
	Delete(ctx context.Context, keys ...string) error
}

// TokenSet is the group of tokens issued together at login
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
}

// TokenStore reads and writes session tokens through a Backend
type TokenStore struct {
	backend Backend
	logger  *zap.Logger
}

// New creates a TokenStore over backend
func New(backend Backend, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStore{
		backend: backend,
		logger:  logger,
	}
}

// Get returns the stored token of the given kind. Missing, expired and
// unreadable entries all report false.
func (s *TokenStore) Get(ctx context.Context, kind Kind) (string, bool) {
	key := kind.Key()
	if key == "" {
		return "", false
	}
	value, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("token read failed",
			zap.String("kind", kind.String()),
			zap.Error(err))
		return "", false
	}
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Set persists token with an expiry equal to its exp claim. Tokens that do
// not decode are stored without expiry.
func (s *TokenStore) Set(ctx context.Context, kind Kind, token string) error {
	key := kind.Key()
	if key == "" {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	expiresAt, _ := cognito.ExpiryDate(token)
	if err := s.backend.Set(ctx, key, token, expiresAt); err != nil {
		return fmt.Errorf("failed to store %s token: %w", kind, err)
	}
	return nil
}

// SetTokens stores all three tokens of a login response
func (s *TokenStore) SetTokens(ctx context.Context, tokens TokenSet) error {
	if err := s.Set(ctx, KindAccess, tokens.AccessToken); err != nil {
		return err
	}
	if err := s.Set(ctx, KindRefresh, tokens.RefreshToken); err != nil {
		return err
	}
	return s.Set(ctx, KindID, tokens.IDToken)
}

// Clear removes the three tokens and the auth-method tag. Safe to call any
// number of times; backend failures are logged.
func (s *TokenStore) Clear(ctx context.Context) {
	keys := []string{KindAccess.Key(), KindRefresh.Key(), KindID.Key(), AuthMethodKey}
	if err := s.backend.Delete(ctx, keys...); err != nil {
		s.logger.Warn("token clear failed", zap.Error(err))
	}
}

// ClearTokens removes the three tokens but keeps the auth-method tag
func (s *TokenStore) ClearTokens(ctx context.Context) {
	keys := []string{KindAccess.Key(), KindRefresh.Key(), KindID.Key()}
	if err := s.backend.Delete(ctx, keys...); err != nil {
		s.logger.Warn("token clear failed", zap.Error(err))
	}
}

// SetAuthMethod records the auth-method tag. It never expires.
func (s *TokenStore) SetAuthMethod(ctx context.Context, method AuthMethod) error {
	if err := s.backend.Set(ctx, AuthMethodKey, string(method), time.Time{}); err != nil {
		return fmt.Errorf("failed to store auth method: %w", err)
	}
	return nil
}

// ClearAuthMethod removes the auth-method tag
func (s *TokenStore) ClearAuthMethod(ctx context.Context) {
	if err := s.backend.Delete(ctx, AuthMethodKey); err != nil {
		s.logger.Warn("auth method clear failed", zap.Error(err))
	}
}

// AuthMethod returns the recorded auth-method tag
func (s *TokenStore) AuthMethod(ctx context.Context) (AuthMethod, bool) {
	value, ok, err := s.backend.Get(ctx, AuthMethodKey)
	if err != nil {
		s.logger.Warn("auth method read failed", zap.Error(err))
		return "", false
	}
	if !ok || value == "" {
		return "", false
	}
	return AuthMethod(value), true
}
