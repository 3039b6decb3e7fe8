package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spsports/sps-backend/config"
	"github.com/spsports/sps-backend/internal/app/service"
	apperrors "github.com/spsports/sps-backend/internal/errors"
	"github.com/spsports/sps-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
	cookie      config.CookieConfig
}

func NewAuthController(authService service.AuthService, cookie config.CookieConfig) *AuthController {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AuthController{
		authService: authService,
		cookie:      cookie,
	}
}

func sameSiteMode(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteDefaultMode
}

func (ctrl *AuthController) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(sameSiteMode(ctrl.cookie.SameSite))
	c.SetCookie(ctrl.cookie.Name, value, maxAge, "/", ctrl.cookie.Domain, ctrl.cookie.Secure, true)
}

// Register creates an account
// POST /api/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, err := ctrl.authService.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email is already registered")
		case errors.Is(err, service.ErrUsernameExists):
			apperrors.Conflict(c, apperrors.AuthUsernameExists, "Username is already taken")
		case errors.Is(err, service.ErrWeakPassword):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Password must be between 6 and 72 characters")
		default:
			log.Error("Registration failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.RespondWithPersistenceError(c, apperrors.InternalDatabaseError, err, "user")
		}
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login verifies credentials and sets the session cookie
// POST /api/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, token, expiresAt, err := ctrl.authService.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.NotFound(c, apperrors.AuthUserNotFound, "No account exists for this email")
		case errors.Is(err, service.ErrInvalidCredentials):
			apperrors.BadRequest(c, apperrors.AuthInvalidCredentials, "Invalid email or password")
		default:
			log.Error("Login failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.setSessionCookie(c, token, int(time.Until(expiresAt).Seconds()))

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"token":     token,
		"expiresAt": expiresAt,
	})
}

// Logout clears the session cookie and revokes the token when a
// revocation store is configured
// POST /api/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if tokenID, expiresAt, ok := middleware.GetTokenID(c); ok {
		if err := ctrl.authService.Logout(c.Request.Context(), tokenID, expiresAt); err != nil {
			log.Error("Failed to revoke token on logout", err)
		}
	}

	ctrl.setSessionCookie(c, "", -1)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user
// GET /api/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.AuthUserNotFound, "User not found")
			return
		}
		log.Error("Failed to load user", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
