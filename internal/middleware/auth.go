package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"anoa.com/civicreport/internal/policy"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/response"
	"anoa.com/civicreport/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const idKey = "resource_id"

type AuthMiddleware struct {
	tokens token.Service
}

func NewAuthMiddleware(tokens token.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth verifies the bearer token and stores its claims on the
// context. Claims are the only identity handlers ever see.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			response.Error(c, fmt.Errorf("access denied, no token provided: %w", apperror.ErrUnauthorized))
			return
		}

		claims, err := m.tokens.Verify(tokenString)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(response.ClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Authorize(response.GetClaims(c), policy.AdminOnly, uuid.Nil); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}

// ValidateID rejects a path parameter that is not a valid id before any
// authentication or lookup runs.
func ValidateID(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
			return
		}
		c.Set(idKey, id)
		c.Next()
	}
}

// ID returns the path id checked by ValidateID.
func ID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(idKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	id, _ := uuid.Parse(c.Param("id"))
	return id
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("not found - %s", c.Request.URL.Path)})
}
