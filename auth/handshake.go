package auth

import (
	"kinder-chat/domain"
	"kinder-chat/errors"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// ExtractBearer reads the token from the Authorization header first,
// then from the "token" query parameter.
func ExtractBearer(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, bearerPrefix) {
			return "", errors.ErrInvalidToken
		}
		if token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)); token != "" {
			return token, nil
		}
	}
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token, nil
	}
	return "", errors.ErrMissingToken
}

// Authenticate resolves the identity of a handshake request.
func (s TokenService) Authenticate(r *http.Request) (domain.Identity, error) {
	token, err := ExtractBearer(r)
	if err != nil {
		return domain.Identity{}, err
	}
	return s.ValidateToken(token)
}
