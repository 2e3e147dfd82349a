package services

import (
	"testing"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", "mindnest-api", "mindnest-client", time.Hour)
}

func TestTokenIssueAndParse(t *testing.T) {
	issuer := testIssuer()
	user := &models.User{ID: "u-1", Email: "alice@x.com"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenIDsAreUnique(t *testing.T) {
	issuer := testIssuer()
	user := &models.User{ID: "u-1"}

	a, err := issuer.Issue(user)
	require.NoError(t, err)
	b, err := issuer.Issue(user)
	require.NoError(t, err)

	ca, _ := issuer.Parse(a)
	cb, _ := issuer.Parse(b)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestTokenParseRejects(t *testing.T) {
	issuer := testIssuer()
	user := &models.User{ID: "u-1"}
	valid, err := issuer.Issue(user)
	require.NoError(t, err)

	expired := testIssuer()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue(user)
	require.NoError(t, err)

	otherAudience, err := NewTokenIssuer("test-secret", "mindnest-api", "someone-else", time.Hour).Issue(user)
	require.NoError(t, err)

	otherSecret, err := NewTokenIssuer("other-secret", "mindnest-api", "mindnest-client", time.Hour).Issue(user)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":   expiredToken,
		"audience":  otherAudience,
		"signature": otherSecret,
		"alg none":  none,
		"garbage":   "not.a.token",
		"truncated": valid[:len(valid)-4],
		"empty":     "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			assert.Error(t, err)
		})
	}
}
