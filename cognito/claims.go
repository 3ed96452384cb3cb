// Package cognito decodes the JWTs issued by the back-office identity
// provider. Nothing here verifies signatures: the API does that on every
// request, the client only needs expiry and display claims.
package cognito

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims represents the claims carried by access, refresh and id tokens
type Claims struct {
	jwt.RegisteredClaims
	GivenName       string `json:"given_name,omitempty"`
	FamilyName      string `json:"family_name,omitempty"`
	Email           string `json:"email,omitempty"`
	TokenUse        string `json:"token_use,omitempty"`
	CognitoUsername string `json:"cognito:username,omitempty"`
	Role            string `json:"custom:userRole,omitempty"`
}

// Identity is the display identity derived from an id token. It is
// recomputed on every decode and never persisted.
type Identity struct {
	Subject    string
	GivenName  string
	FamilyName string
	Email      string
	Role       string
	ExpiresAt  time.Time
}

// DisplayName returns "Given Family", falling back to the email address
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.GivenName + " " + i.FamilyName)
	if name != "" {
		return name
	}
	return i.Email
}

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// ParseClaims decodes the token payload without verifying the signature
func ParseClaims(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// Decode returns the token claims, or nil when the token is malformed
func Decode(tokenString string) *Claims {
	if tokenString == "" {
		return nil
	}
	claims, err := ParseClaims(tokenString)
	if err != nil {
		return nil
	}
	return claims
}

// ExpiryDate returns the time encoded in the exp claim
func ExpiryDate(tokenString string) (time.Time, bool) {
	claims := Decode(tokenString)
	if claims == nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// IsExpired reports whether the token is expired at the current time.
// Undecodable tokens and tokens without exp count as expired.
func IsExpired(tokenString string) bool {
	return IsExpiredAt(tokenString, time.Now())
}

// IsExpiredAt reports whether the token is expired at now (exp <= now)
func IsExpiredAt(tokenString string, now time.Time) bool {
	exp, ok := ExpiryDate(tokenString)
	if !ok {
		return true
	}
	return !now.Before(exp)
}

// ExtractIdentity decodes an id token into an Identity
func ExtractIdentity(tokenString string) (*Identity, error) {
	claims, err := ParseClaims(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: exp", ErrMissingClaim)
	}
	return claims.Identity(), nil
}

// Identity converts the claims to an Identity
func (c *Claims) Identity() *Identity {
	id := &Identity{
		Subject:    c.Subject,
		GivenName:  c.GivenName,
		FamilyName: c.FamilyName,
		Email:      c.Email,
		Role:       c.Role,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// ExtractRole extracts only the role from a token (fast path)
func ExtractRole(tokenString string) (string, error) {
	claims, err := ParseClaims(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Role == "" {
		return "", fmt.Errorf("%w: custom:userRole", ErrMissingClaim)
	}
	return claims.Role, nil
}
