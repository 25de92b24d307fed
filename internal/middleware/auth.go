package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/auth"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
)

// RoleReader looks up a user's current role.
type RoleReader interface {
	Role(ctx context.Context, userID string) (string, error)
}

// AuthMiddleware creates a gin.HandlerFunc that acts as our "security guard".
// A valid Bearer token puts the user ID and role into the context.
func AuthMiddleware(tokens *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			return
		}

		// 2. --- Validate Token ---
		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 3. --- Success ---
		c.Set(UserIDKey, claims.Subject)
		c.Set(UserRoleKey, claims.Role)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware. The role is re-read from the store
// so a demoted admin loses access before the token expires.
func AdminMiddleware(roles RoleReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userID := c.GetString(UserIDKey)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context (AuthMiddleware must run first)"})
			return
		}

		// 2. Query the store for the user's role
		role, err := roles.Role(c.Request.Context(), userID)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(apperrors.HTTPStatus(apperrors.KindOf(err)), gin.H{"error": apperrors.Message(err)})
			return
		}

		// 3. Check permission
		if role != models.RoleAdmin {
			denied := apperrors.Forbidden("Access denied: Admin role required")
			c.AbortWithStatusJSON(apperrors.HTTPStatus(denied.Kind), gin.H{"error": denied.Message})
			return
		}

		c.Set(UserRoleKey, role)
		c.Next()
	}
}
