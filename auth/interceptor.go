package auth

import (
	"kinder-chat/domain"
	"kinder-chat/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

// AuthInterceptor rejects requests without a valid bearer token
// and injects the identity into the gin context for downstream handlers.
func AuthInterceptor(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := tokens.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// IdentityFromContext returns the identity set by AuthInterceptor.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}

// MustIdentity aborts with 401 when no identity is present.
func MustIdentity(c *gin.Context) (domain.Identity, bool) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrMissingToken.Error()})
	}
	return identity, ok
}
