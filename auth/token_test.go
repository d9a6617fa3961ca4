package auth

import (
	"kinder-chat/domain"
	"kinder-chat/errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var alice = domain.Identity{UserID: "alice", Role: domain.RoleParent, Username: "alice.m"}

func TestTokenService_RoundTrip(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenService("secret", "kinder-chat")

	token, err := tokens.GenerateToken(alice, time.Hour)
	req.NoError(err)

	identity, err := tokens.ValidateToken(token)
	req.NoError(err)
	req.Equal(alice, identity)
}

func TestTokenService_Rejects(t *testing.T) {
	tokens := NewTokenService("secret", "kinder-chat")

	expired, err := tokens.GenerateToken(alice, -time.Minute)
	require.NoError(t, err)

	wrongSecret, err := NewTokenService("other", "kinder-chat").GenerateToken(alice, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewTokenService("secret", "someone-else").GenerateToken(alice, time.Hour)
	require.NoError(t, err)

	colonID, err := tokens.GenerateToken(domain.Identity{UserID: "alice:x", Role: domain.RoleParent}, time.Hour)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{UserID: "alice"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", wrongSecret},
		{"wrong issuer", wrongIssuer},
		{"no expiration", noExp},
		{"malformed", "not-a-jwt"},
		{"user id with a key separator", colonID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			_, err := tokens.ValidateToken(tt.token)
			req.ErrorIs(err, errors.ErrInvalidToken)
			req.ErrorIs(err, errors.ErrAuthentication)
		})
	}
}

func TestExtractBearer(t *testing.T) {
	t.Run("header wins over query", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest("GET", "/ws?token=from-query", nil)
		r.Header.Set("Authorization", "Bearer from-header")
		token, err := ExtractBearer(r)
		req.NoError(err)
		req.Equal("from-header", token)
	})

	t.Run("query fallback", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest("GET", "/ws?token=from-query", nil)
		token, err := ExtractBearer(r)
		req.NoError(err)
		req.Equal("from-query", token)
	})

	t.Run("missing", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest("GET", "/ws", nil)
		_, err := ExtractBearer(r)
		req.ErrorIs(err, errors.ErrMissingToken)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest("GET", "/ws", nil)
		r.Header.Set("Authorization", "Basic abc")
		_, err := ExtractBearer(r)
		req.ErrorIs(err, errors.ErrInvalidToken)
	})
}
