package auth

import (
	"fmt"
	"kinder-chat/domain"
	"kinder-chat/errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID   string      `json:"user_id"`
	Role     domain.Role `json:"role"`
	Username string      `json:"username"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens with the configured secret.
type TokenService struct {
	secret []byte
	issuer string
}

func NewTokenService(secret, issuer string) TokenService {
	return TokenService{secret: []byte(secret), issuer: issuer}
}

// GenerateToken creates a signed JWT for a specific identity.
func (s TokenService) GenerateToken(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   identity.UserID,
		Role:     identity.Role,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken checks the signature, the expiration and the issuer,
// then returns the identity carried by the token.
func (s TokenService) ValidateToken(tokenString string) (domain.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %s", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	// user_id is a storage key segment
	if !ok || !token.Valid || claims.UserID == "" || strings.Contains(claims.UserID, ":") {
		return domain.Identity{}, errors.ErrInvalidToken
	}
	return domain.Identity{
		UserID:   claims.UserID,
		Role:     claims.Role,
		Username: claims.Username,
	}, nil
}
