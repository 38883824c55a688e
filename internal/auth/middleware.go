package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	httpapi "github.com/taskhive/taskhive-backend/internal/api/http"
)

const ctxIdentity = "auth_identity"

// RequireAuth returns middleware that resolves the caller's identity from a
// bearer token. This is the only place tokens are validated; handlers read
// the result via CurrentUser and never inspect the header themselves. Any
// validation failure short-circuits with 401 before the handler runs.
func RequireAuth(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			unauthorized(c)
			return
		}

		id, ok := tokens.ValidateToken(token)
		if !ok {
			unauthorized(c)
			return
		}

		c.Set(ctxIdentity, id)
		c.Next()
	}
}

// CurrentUser returns the identity set by RequireAuth.
func CurrentUser(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func unauthorized(c *gin.Context) {
	httpapi.Error(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
	c.Abort()
}

// extractBearer pulls the token from the Authorization header. Header name
// matching is case-insensitive per net/http; the Bearer scheme match is too.
func extractBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
