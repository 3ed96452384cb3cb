package mockapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/twy/backoffice/cognito"
	"github.com/twy/backoffice/models"
)

// Issuer is the token issuer claim on every minted token
const Issuer = "backoffice-mockapi"

const (
	tokenUseAccess  = "access"
	tokenUseID      = "id"
	tokenUseRefresh = "refresh"
)

// TokenTTLs are the lifetimes of the minted tokens
type TokenTTLs struct {
	Access  time.Duration
	ID      time.Duration
	Refresh time.Duration
}

// TokenIssuer mints and validates HS256 tokens shaped like the identity
// provider's: the role travels in custom:userRole.
type TokenIssuer struct {
	secret []byte
	ttls   TokenTTLs
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenIssuer creates an issuer signing with secret
func NewTokenIssuer(secret string, ttls TokenTTLs, clock func() time.Time) *TokenIssuer {
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttls:   ttls,
		now:    clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(Issuer),
			jwt.WithTimeFunc(clock),
		),
	}
}

// Issue mints access, id and refresh tokens for user
func (i *TokenIssuer) Issue(user *models.User) (models.LoginResponse, error) {
	access, err := i.sign(user, tokenUseAccess, i.ttls.Access)
	if err != nil {
		return models.LoginResponse{}, err
	}
	id, err := i.sign(user, tokenUseID, i.ttls.ID)
	if err != nil {
		return models.LoginResponse{}, err
	}
	refresh, err := i.sign(user, tokenUseRefresh, i.ttls.Refresh)
	if err != nil {
		return models.LoginResponse{}, err
	}
	return models.LoginResponse{AccessToken: access, IDToken: id, RefreshToken: refresh}, nil
}

// Reissue mints fresh access and id tokens
func (i *TokenIssuer) Reissue(user *models.User) (models.RefreshTokenResponse, error) {
	access, err := i.sign(user, tokenUseAccess, i.ttls.Access)
	if err != nil {
		return models.RefreshTokenResponse{}, err
	}
	id, err := i.sign(user, tokenUseID, i.ttls.ID)
	if err != nil {
		return models.RefreshTokenResponse{}, err
	}
	return models.RefreshTokenResponse{AccessToken: access, IDToken: id}, nil
}

func (i *TokenIssuer) sign(user *models.User, use string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &cognito.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenUse:        use,
		CognitoUsername: user.Email,
	}
	// refresh tokens carry no profile claims
	if use != tokenUseRefresh {
		claims.Email = user.Email
		claims.Role = string(user.Role)
	}
	if use == tokenUseID {
		claims.GivenName = user.FirstName
		claims.FamilyName = user.LastName
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", use, err)
	}
	return signed, nil
}

// ValidateToken verifies an access token
func (i *TokenIssuer) ValidateToken(_ context.Context, token string) (*cognito.Claims, error) {
	return i.verify(token, tokenUseAccess)
}

// ValidateRefreshToken verifies a refresh token
func (i *TokenIssuer) ValidateRefreshToken(token string) (*cognito.Claims, error) {
	return i.verify(token, tokenUseRefresh)
}

func (i *TokenIssuer) verify(token, use string) (*cognito.Claims, error) {
	claims := &cognito.Claims{}
	_, err := i.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, NewDomainError(ErrorTypeUnauthorized, ErrInvalidToken.Message, err)
	}
	if claims.TokenUse != use {
		return nil, NewDomainError(ErrorTypeUnauthorized, ErrInvalidToken.Message,
			errors.New("unexpected token_use "+claims.TokenUse))
	}
	return claims, nil
}
