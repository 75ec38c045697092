package middleware

import (
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const identityKey = "identity"

// Identity is the authenticated caller, resolved once at the request boundary
// and threaded explicitly into handlers.
type Identity struct {
	UserID string
}

// AuthMiddleware verifies identity-provider session tokens.
type AuthMiddleware struct {
	publicKey *rsa.PublicKey
	logger    *zap.Logger
}

// NewAuthMiddleware parses the provider's PEM public key used to verify
// session JWTs.
func NewAuthMiddleware(pemPublicKey string, logger *zap.Logger) (*AuthMiddleware, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemPublicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse session public key: %w", err)
	}
	return &AuthMiddleware{publicKey: key, logger: logger}, nil
}

// RequireIdentity aborts with 404 when no caller identity is resolvable,
// matching the identity provider's "user not found" contract. On success the
// identity is stored in the request context for IdentityFrom.
func (m *AuthMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if authHeader == "" || len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found."})
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.publicKey, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			m.logger.Warn("session token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found."})
			return
		}

		c.Set(identityKey, Identity{UserID: claims.Subject})
		c.Next()
	}
}

// IdentityFrom returns the identity resolved by RequireIdentity.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
