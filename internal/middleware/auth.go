package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

const (
	UserIDKey  = "user_id"
	IsAdminKey = "is_admin"
)

var ErrMissingToken = errors.New("missing bearer token")

// Identity is the caller as established by the token.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// TokenParser verifies a bearer token and returns its identity.
type TokenParser func(token string) (*Identity, error)

// CasdoorParser verifies tokens against the certificate given to
// casdoorsdk.InitConfig.
func CasdoorParser() TokenParser {
	return func(token string) (*Identity, error) {
		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			return nil, err
		}

		userID := claims.User.Id
		if userID == "" {
			userID = claims.User.Owner + "/" + claims.User.Name
		}
		return &Identity{UserID: userID, IsAdmin: claims.User.IsAdmin}, nil
	}
}

// Auth rejects requests without a valid bearer token and stores the caller
// under user_id and is_admin.
func Auth(parser TokenParser, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortUnauthorized(c, ErrMissingToken.Error())
			return
		}

		identity, err := parser(token)
		if err != nil || identity == nil || identity.UserID == "" {
			logger.Warn("Rejected bearer token",
				"path", c.Request.URL.Path,
				"error", err)
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(IsAdminKey, identity.IsAdmin)
		c.Next()
	}
}

// DevAuth trusts the X-User-ID and X-User-Admin headers. It is only
// installed when no identity provider is configured.
func DevAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			abortUnauthorized(c, "missing X-User-ID header")
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(IsAdminKey, strings.EqualFold(c.GetHeader("X-User-Admin"), "true"))
		c.Next()
	}
}

// RequireAdmin must run after Auth or DevAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(IsAdminKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Access denied",
				"code":    "forbidden",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, details string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message": "User not authenticated",
		"details": details,
		"code":    "unauthenticated",
	})
}

func extractBearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
