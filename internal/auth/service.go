// Package auth implements registration, login, and token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrBanned             = errors.New("account is banned")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters with a letter, a digit, and a special character")
	ErrInvalidName        = errors.New("name must be letters separated by single spaces")
	ErrUnknownCollege     = errors.New("college not found")
)

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)*$`)
	passwordPattern = regexp.MustCompile(`^[A-Za-z\d@$!%*#?&]{8,}$`)
)

// validPassword enforces length plus one letter, one digit, and one
// special character. Go's regexp has no lookahead, so the classes are
// checked separately.
func validPassword(pw string) bool {
	if !passwordPattern.MatchString(pw) {
		return false
	}
	return strings.ContainsAny(pw, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
		strings.ContainsAny(pw, "0123456789") &&
		strings.ContainsAny(pw, "@$!%*#?&")
}

// Mailer sends account lifecycle emails. A nil Mailer disables
// outbound mail; tokens are still issued and logged.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// Claims are the JWT claims carried by every session token and by the
// websocket handshake.
type Claims struct {
	UserID  string      `json:"id"`
	Email   string      `json:"email"`
	College string      `json:"college"`
	Role    models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service handles all authentication operations
type Service struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	users     *repository.Users
	colleges  *repository.Colleges
	mailer    Mailer
}

// NewService creates the authentication service
func NewService(jwtSecret []byte, users *repository.Users, colleges *repository.Colleges, mailer Mailer) *Service {
	return &Service{
		jwtSecret: jwtSecret,
		tokenTTL:  7 * 24 * time.Hour,
		users:     users,
		colleges:  colleges,
		mailer:    mailer,
	}
}

// AuthResponse is returned by login and verification endpoints
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest is the signup payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	College  string `json:"college" binding:"required"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account. When the email domain belongs to the
// chosen college the account is college-verified immediately;
// otherwise it starts unverified and may submit proof later. In both
// cases the address itself must be confirmed via the mailed token
// before login succeeds.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if !namePattern.MatchString(req.Name) {
		return nil, ErrInvalidName
	}
	if !validPassword(req.Password) {
		return nil, ErrWeakPassword
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.ByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	college, err := s.colleges.ByName(ctx, req.College)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnknownCollege
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verification := models.Verification{
		Status: models.VerificationUnverified,
		Proof:  []string{},
	}
	if college.MatchesEmail(email) {
		now := time.Now()
		verification.Status = models.VerificationVerified
		verification.Method = models.MethodCollegeEmail
		verification.VerifiedAt = &now
	}

	code := uuid.New().String()
	expires := time.Now().Add(24 * time.Hour)

	user := &models.User{
		Name:                req.Name,
		Email:               email,
		College:             college.Name,
		CollegeRef:          &college.ID,
		Role:                models.RoleUser,
		PasswordHash:        string(hashed),
		VerificationCode:    code,
		VerificationExpires: &expires,
		Verification:        verification,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerification(ctx, user.Email, user.Name, code); err != nil {
			logger.Log.Warn("verification email failed",
				logger.WithUserID(user.ID.Hex()),
				zap.Error(err),
			)
		}
	}

	return user, nil
}

// VerifyEmail consumes a mailed token and unlocks login
func (s *Service) VerifyEmail(ctx context.Context, code string) (*AuthResponse, error) {
	user, err := s.users.ByVerificationCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.users.Unset(ctx, user.ID, "verification_code", "verification_expires"); err != nil {
		return nil, fmt.Errorf("failed to clear token: %w", err)
	}
	user.VerificationCode = ""
	user.VerificationExpires = nil

	return s.issue(user)
}

// Login authenticates with email and password. Banned accounts and
// accounts that never confirmed their address are rejected.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBanned {
		return nil, ErrBanned
	}
	if user.VerificationCode != "" {
		return nil, ErrEmailNotVerified
	}

	return s.issue(user)
}

// RequestPasswordReset mails a reset token. Unknown addresses are
// silently ignored so the endpoint cannot be used to probe accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}

	token := uuid.New().String() + uuid.New().String()
	expires := time.Now().Add(1 * time.Hour)

	if err := s.users.Update(ctx, user.ID, bson.M{
		"reset_password_token":   token,
		"reset_password_expires": expires,
	}); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, token); err != nil {
			logger.Log.Warn("password reset email failed",
				logger.WithUserID(user.ID.Hex()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !validPassword(newPassword) {
		return ErrWeakPassword
	}

	user, err := s.users.ByResetToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidToken
		}
		return fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Update(ctx, user.ID, bson.M{"password_hash": string(hashed)}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return s.users.Unset(ctx, user.ID, "reset_password_token", "reset_password_expires")
}

// ChangePassword verifies the current password before replacing it
func (s *Service) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if !validPassword(next) {
		return ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.Update(ctx, user.ID, bson.M{"password_hash": string(hashed)})
}

// issue signs a session token for the user
func (s *Service) issue(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := Claims{
		UserID:  user.ID.Hex(),
		Email:   user.Email,
		College: user.College,
		Role:    user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     signed,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken validates a signed token and returns its claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// UserFromToken validates a token and loads the fresh account so ban
// and role checks always see current state.
func (s *Service) UserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.ByEmail(ctx, claims.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user.IsBanned {
		return nil, ErrBanned
	}
	return user, nil
}
