package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/ratelimiter"
	"anoa.com/civicreport/pkg/token"
	"anoa.com/civicreport/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClaimsKey is the gin context key the auth middleware stores verified claims under.
const ClaimsKey = "claims"

// GetClaims returns the verified caller, or nil when the request is anonymous.
func GetClaims(c *gin.Context) *token.Claims {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := v.(*token.Claims)
	return claims
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	claims := GetClaims(c)
	if claims == nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	return claims.UserID, nil
}

// Error writes the standard {"message": ...} body with the mapped status.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}

	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
	}

	c.AbortWithStatusJSON(code, gin.H{"message": apperror.Message(err)})
}

// BindError answers 400 for a request body or query that failed binding.
func BindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": validator.FormatValidationError(err)})
}

func Message(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}
