package security

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"stockatelier/pkg/models"
)

const principalKey = "principal"

// PrincipalResolver loads the current account state for a user id. The
// middleware resolves the principal on every request so deactivation
// and token revocation take effect immediately.
type PrincipalResolver interface {
	GetPrincipal(userID int) (*models.Principal, error)
}

// RequireAuth validates the bearer token and stores the resolved
// principal in the request context.
func RequireAuth(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		userID, ok := claimInt(claims, "userID")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		tokenVersion, _ := claimInt(claims, "tokenVersion")

		principal, err := resolver.GetPrincipal(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to resolve user"})
			return
		}
		if principal == nil || !principal.Active || principal.TokenVersion != tokenVersion {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(principalKey, *principal)
		c.Next()
	}
}

// PrincipalFromContext returns the principal stored by RequireAuth.
func PrincipalFromContext(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return models.Principal{}, false
	}

	principal, ok := value.(models.Principal)
	return principal, ok
}

// RequireAdmin gates user management endpoints.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
			return
		}
		if !principal.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Réservé aux administrateurs"})
			return
		}
		c.Next()
	}
}

// RequireWorkManager gates work board mutations reserved to admins and
// team leads.
func RequireWorkManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
			return
		}
		if !principal.IsWorkManager() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Réservé aux responsables d'atelier"})
			return
		}
		c.Next()
	}
}

// claimInt reads a numeric claim; JSON numbers arrive as float64.
func claimInt(claims jwt.MapClaims, key string) (int, bool) {
	raw, exists := claims[key]
	if !exists {
		return 0, false
	}

	switch value := raw.(type) {
	case float64:
		return int(value), true
	case int:
		return value, true
	default:
		return 0, false
	}
}
