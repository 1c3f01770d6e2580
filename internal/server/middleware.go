package server

import (
	"net/http"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// JWTAuthMiddleware verifies the bearer token and stores the caller id on
// the context. Websocket upgrades may carry the token in a "token" query
// parameter instead, since browser websocket clients cannot set headers.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			utils.JSONError(c, http.StatusUnauthorized, ErrMissingToken, "authentication required")
			c.Abort()
			return
		}

		claims, err := ParseValidate(secret, tok)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthenticated, "authentication required")
			utils.Warn("rejected request with invalid token", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(helpers.CallerIDKey, claims.Sub)
		c.Next()
	}
}

// CallerID returns the authenticated user id set by JWTAuthMiddleware
func CallerID(c *gin.Context) string {
	return helpers.CallerID(c)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}
