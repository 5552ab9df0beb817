package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/osvaldoandrade/placebench/pkg/auth"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// AuthMiddleware requires a bearer token accepted by validator. A nil
// validator leaves the API open, which is only allowed in dev.
func AuthMiddleware(validator auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}
		claims, err := validateBearer(validator, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(claimsKey, claims)
		c.Set("subject", claims.Subject)
		c.Next()
	}
}

func validateBearer(validator auth.Validator, authHeader string) (*auth.Claims, error) {
	if strings.TrimSpace(authHeader) == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}
	token := bearerToken(authHeader)
	if token == "" {
		return nil, fmt.Errorf("invalid Authorization format")
	}
	return validator.Validate(token)
}

// RequireRole rejects authenticated callers that lack role. Requests that
// passed an open AuthMiddleware carry no claims and are let through.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(claimsKey)
		if !ok {
			c.Next()
			return
		}
		claims, _ := v.(*auth.Claims)
		if !claims.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing role " + role})
			return
		}
		c.Next()
	}
}
