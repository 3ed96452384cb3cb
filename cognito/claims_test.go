package cognito

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsignedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return tokenString
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	return unsignedToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
}

func TestDecode(t *testing.T) {
	sub := uuid.New().String()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	tokenString := unsignedToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		GivenName:       "Ada",
		FamilyName:      "Lovelace",
		Email:           "ada@example.com",
		TokenUse:        "id",
		CognitoUsername: "ada",
		Role:            "Head Owner",
	})

	claims := Decode(tokenString)
	require.NotNil(t, claims)
	assert.Equal(t, sub, claims.Subject)
	assert.Equal(t, "Ada", claims.GivenName)
	assert.Equal(t, "Lovelace", claims.FamilyName)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "id", claims.TokenUse)
	assert.Equal(t, "Head Owner", claims.Role)
	assert.True(t, exp.Equal(claims.ExpiresAt.Time))
}

func TestDecode_IgnoresSignature(t *testing.T) {
	signed := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Email: "signed@example.com"})
	tokenString, err := signed.SignedString([]byte("some-secret-we-do-not-know"))
	require.NoError(t, err)

	claims := Decode(tokenString)
	require.NotNil(t, claims)
	assert.Equal(t, "signed@example.com", claims.Email)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "two segments", token: "abc.def"},
		{name: "bad base64", token: "%%%.###.$$$"},
		{name: "payload not json", token: "eyJhbGciOiJub25lIn0.bm90LWpzb24."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Nil(t, Decode(tt.token))
			})
		})
	}
}

func TestDecode_Deterministic(t *testing.T) {
	tokenString := tokenExpiringAt(t, time.Now().Add(time.Minute))

	first := Decode(tokenString)
	second := Decode(tokenString)
	require.NotNil(t, first)
	assert.Equal(t, first, second)
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{name: "future exp", token: tokenExpiringAt(t, now.Add(time.Hour)), expired: false},
		{name: "past exp", token: tokenExpiringAt(t, now.Add(-time.Hour)), expired: true},
		{name: "no exp", token: unsignedToken(t, &Claims{Email: "x@example.com"}), expired: true},
		{name: "undecodable", token: "garbage", expired: true},
		{name: "empty", token: "", expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, IsExpired(tt.token))
		})
	}
}

func TestIsExpiredAt_Boundary(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	tokenString := tokenExpiringAt(t, exp)

	assert.False(t, IsExpiredAt(tokenString, exp.Add(-time.Millisecond)))
	assert.True(t, IsExpiredAt(tokenString, exp))
	assert.True(t, IsExpiredAt(tokenString, exp.Add(time.Second)))
}

func TestExpiryDate(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)

	got, ok := ExpiryDate(tokenExpiringAt(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = ExpiryDate(unsignedToken(t, &Claims{Email: "x@example.com"}))
	assert.False(t, ok)

	_, ok = ExpiryDate("garbage")
	assert.False(t, ok)
}

func TestExtractIdentity(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tokenString := unsignedToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		GivenName:        "Grace",
		FamilyName:       "Hopper",
		Email:            "grace@example.com",
		Role:             "Carrier",
	})

	identity, err := ExtractIdentity(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", identity.DisplayName())
	assert.Equal(t, "Carrier", identity.Role)
	assert.True(t, exp.Equal(identity.ExpiresAt))
}

func TestExtractIdentity_MissingExp(t *testing.T) {
	_, err := ExtractIdentity(unsignedToken(t, &Claims{Email: "x@example.com"}))
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestIdentity_DisplayNameFallsBackToEmail(t *testing.T) {
	assert.Equal(t, "only@example.com", Identity{Email: "only@example.com"}.DisplayName())
	assert.Equal(t, "Solo", Identity{GivenName: "Solo"}.DisplayName())
}

func TestExtractRole(t *testing.T) {
	role, err := ExtractRole(unsignedToken(t, &Claims{Role: "Agent"}))
	require.NoError(t, err)
	assert.Equal(t, "Agent", role)

	_, err = ExtractRole(unsignedToken(t, &Claims{Email: "x@example.com"}))
	assert.ErrorIs(t, err, ErrMissingClaim)

	_, err = ExtractRole("garbage")
	assert.Error(t, err)
}
