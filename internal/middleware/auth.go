package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/collegeconnect/backend/internal/auth"
	"github.com/collegeconnect/backend/internal/models"
)

const (
	// CtxUser is the gin context key holding the authenticated *models.User
	CtxUser = "current_user"
)

// CurrentUser fetches the authenticated user from the gin context.
// Only valid behind Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// Authenticate validates the bearer token and loads the account.
// Bans are enforced here, so a banned user is cut off on their next
// request regardless of token lifetime.
func Authenticate(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := authService.UserFromToken(c.Request.Context(), token)
		if err != nil {
			if err == auth.ErrBanned {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is banned"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// RequireVerified blocks users whose college membership is not yet
// verified. Staff roles pass.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !user.Role.IsStaff() && user.Verification.Status != models.VerificationVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "college verification required"})
			return
		}
		c.Next()
	}
}

// RequireModerator restricts a route to moderators and admins
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !user.Role.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "moderator access required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a route to admins
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
