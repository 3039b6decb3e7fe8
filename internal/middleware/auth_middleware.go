package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spsports/sps-backend/internal/app/model"
	apperrors "github.com/spsports/sps-backend/internal/errors"
	"github.com/spsports/sps-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey       = "user_id"
	UserRoleKey     = "user_role"
	TokenIDKey      = "token_id"
	TokenExpiresKey = "token_expires"
)

// RevocationChecker reports whether a token id was revoked on logout.
type RevocationChecker interface {
	Contains(ctx context.Context, tokenID string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret  string
	cookieName string
	revoked    RevocationChecker
}

// NewAuthMiddleware builds the middleware. revoked may be nil when no
// revocation store is configured.
func NewAuthMiddleware(jwtSecret, cookieName string, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:  jwtSecret,
		cookieName: cookieName,
		revoked:    revoked,
	}
}

// tokenFromRequest prefers the session cookie and falls back to a bearer header.
func (m *AuthMiddleware) tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// rejectToken answers every token failure alike; the cause is only logged.
func rejectToken(c *gin.Context) {
	apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Not authorized, token failed")
	c.Abort()
}

// Authenticate validates the session token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token := m.tokenFromRequest(c)
		if token == "" {
			log.Warn("Missing session token", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "Not authorized, no token")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":    c.Request.URL.Path,
				"expired": errors.Is(err, util.ErrExpiredToken),
				"error":   err.Error(),
			})
			rejectToken(c)
			return
		}

		if m.revoked != nil && claims.ID != "" {
			revoked, err := m.revoked.Contains(c.Request.Context(), claims.ID)
			if err != nil {
				// fail open: the signature and expiry checks already passed
				log.Error("Token revocation check failed", err, map[string]interface{}{
					"user_id": claims.UserID,
				})
			} else if revoked {
				log.Warn("Revoked token used", map[string]interface{}{
					"user_id": claims.UserID,
				})
				rejectToken(c)
				return
			}
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, model.UserRole(claims.Role))
		c.Set(TokenIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(TokenExpiresKey, claims.ExpiresAt.Time)
		}

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})

		c.Next()
	}
}

// RequireCapability allows the request only when the caller's role grants cap.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireCapability(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, ok := GetUserRole(c)
		if !ok {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		userID, _ := GetUserID(c)
		if !role.Can(capability) {
			log.Warn("Insufficient permissions", map[string]interface{}{
				"user_id":    userID,
				"user_role":  role,
				"capability": capability,
				"path":       c.Request.URL.Path,
			})
			apperrors.Forbidden(c, "")
			c.Abort()
			return
		}

		log.Debug("Capability check passed", map[string]interface{}{
			"user_id":    userID,
			"capability": capability,
		})
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	r, ok := role.(model.UserRole)
	return r, ok
}

// GetTokenID returns the jti and expiry of the request's session token.
func GetTokenID(c *gin.Context) (string, time.Time, bool) {
	id := c.GetString(TokenIDKey)
	if id == "" {
		return "", time.Time{}, false
	}
	return id, c.GetTime(TokenExpiresKey), true
}
