package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/internal/app/repository"
	"github.com/spsports/sps-backend/pkg/logger"
	"github.com/spsports/sps-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password does not meet length requirements")
)

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenRevoker remembers logged out tokens until they would have expired.
type TokenRevoker interface {
	Add(ctx context.Context, tokenID string, ttl time.Duration) error
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Login(ctx context.Context, input LoginInput) (*model.User, string, time.Time, error)
	Me(ctx context.Context, userID uint) (*model.User, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type authService struct {
	userRepo    repository.UserRepository
	jwtSecret   string
	tokenExpiry time.Duration
	defaultRole model.UserRole
	revoker     TokenRevoker
}

// NewAuthService wires authentication. revoker may be nil, in which case
// logout only clears the client cookie.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtSecret string,
	tokenExpiry time.Duration,
	defaultRole model.UserRole,
	revoker TokenRevoker,
) AuthService {
	if !defaultRole.Valid() {
		defaultRole = model.RoleAdmin
	}
	return &authService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		defaultRole: defaultRole,
		revoker:     revoker,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	logger.Info("Attempting user registration", map[string]interface{}{
		"email":    email,
		"username": username,
	})

	if n := len(input.Password); n < util.MinPasswordLength || n > util.MaxPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	taken, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if taken {
		logger.Warn("Registration failed: username already exists", map[string]interface{}{
			"username": username,
		})
		return nil, ErrUsernameExists
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: input.Password,
		Role:     s.defaultRole,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
		"role":    user.Role,
	})
	return user, nil
}

// Login returns the user with a signed session token and its expiry. An
// unknown email yields ErrUserNotFound, a wrong password ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, input LoginInput) (*model.User, string, time.Time, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, "", time.Time{}, ErrUserNotFound
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, "", time.Time{}, err
	}

	if !util.VerifyPassword(user.PasswordHash, input.Password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := util.GenerateToken(user.ID, string(user.Role), s.jwtSecret, s.tokenExpiry)
	if err != nil {
		logger.Error("Failed to generate token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, "", time.Time{}, fmt.Errorf("failed to issue token: %w", err)
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, token, expiresAt, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revoker == nil || tokenID == "" {
		return nil
	}
	if err := s.revoker.Add(ctx, tokenID, time.Until(expiresAt)); err != nil {
		logger.Error("Failed to revoke token", err)
		return err
	}
	logger.Info("Token revoked", map[string]interface{}{
		"expires_at": expiresAt,
	})
	return nil
}
