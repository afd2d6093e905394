package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/services"
	"github.com/gin-gonic/gin"
)

// ContextUserIDKey holds the authenticated user id on the gin context.
const ContextUserIDKey = "userID"

const bearerScheme = "Bearer"

var (
	errMissingCredentials = errors.New("authorization header required")
	errMalformedScheme    = errors.New("invalid authorization header format")
	errRejectedToken      = errors.New("invalid or expired token")
)

// bearerToken pulls the credential out of "Authorization: Bearer <jwt>".
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingCredentials
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !found || token == "" || strings.ContainsAny(token, " \t") || !strings.EqualFold(scheme, bearerScheme) {
		return "", errMalformedScheme
	}
	return token, nil
}

func unauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}

// AuthMiddleware rejects requests without a valid token for an existing user
// and stores the user id for downstream handlers.
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c, err)
			return
		}

		userID, err := tokens.ValidateToken(c.Request.Context(), raw)
		if err != nil {
			_ = c.Error(err)
			unauthorized(c, errRejectedToken)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextUserIDKey)
	return userID, userID != ""
}
