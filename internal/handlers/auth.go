package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/collegeconnect/backend/internal/auth"
	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
)

// Register creates an account and mails the confirmation link
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		switch err {
		case auth.ErrUserExists:
			respondError(c, apperrors.AlreadyExists("account"))
		case auth.ErrInvalidName:
			respondError(c, apperrors.ValidationError("name", err.Error()))
		case auth.ErrWeakPassword:
			respondError(c, apperrors.ValidationError("password", err.Error()))
		case auth.ErrUnknownCollege:
			respondError(c, apperrors.NotFound("college"))
		default:
			internalError(c, "registration failed", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "check your inbox to confirm your email",
	})
}

// VerifyEmail consumes the mailed token and returns a session
func (h *Handlers) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, apperrors.BadRequest("token is required"))
		return
	}

	resp, err := h.authService.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		if err == auth.ErrInvalidToken {
			respondError(c, apperrors.Unauthorized("invalid or expired verification link"))
			return
		}
		internalError(c, "email verification failed", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Login authenticates and returns a session token
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		switch err {
		case auth.ErrInvalidCredentials:
			respondError(c, apperrors.Unauthorized("invalid email or password"))
		case auth.ErrBanned:
			respondError(c, apperrors.Forbidden("account is banned"))
		case auth.ErrEmailNotVerified:
			respondError(c, apperrors.Forbidden("confirm your email before logging in"))
		default:
			internalError(c, "login failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ForgotPassword mails a reset link; the response never reveals
// whether the account exists.
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		internalError(c, "password reset request failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "if that account exists, a reset link is on its way",
	})
}

// ResetPassword consumes a reset token
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		switch err {
		case auth.ErrInvalidToken:
			respondError(c, apperrors.Unauthorized("invalid or expired reset link"))
		case auth.ErrWeakPassword:
			respondError(c, apperrors.ValidationError("password", err.Error()))
		default:
			internalError(c, "password reset failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// ChangePassword replaces the password of the logged-in user
func (h *Handlers) ChangePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		switch err {
		case auth.ErrInvalidCredentials:
			respondError(c, apperrors.Unauthorized("current password is incorrect"))
		case auth.ErrWeakPassword:
			respondError(c, apperrors.ValidationError("password", err.Error()))
		default:
			internalError(c, "password change failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
