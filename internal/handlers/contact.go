package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// SubmitContact stores a support inquiry and acknowledges it by mail
// when a mailer is configured.
func (h *Handlers) SubmitContact(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Subject string `json:"subject"`
		Body    string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := h.contacts.Create(c.Request.Context(), msg); err != nil {
		internalError(c, "contact create failed", err)
		return
	}

	if h.mailer != nil {
		if err := h.mailer.SendContactAck(c.Request.Context(), msg.Email, msg.Name); err != nil {
			logger.Log.Warn("contact ack not sent", zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "thanks, we will get back to you"})
}

// ListContactMessages shows moderators the unhandled inquiry queue
func (h *Handlers) ListContactMessages(c *gin.Context) {
	msgs, err := h.contacts.ListPending(c.Request.Context())
	if err != nil {
		internalError(c, "contact list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ReplyContactMessage mails an answer and closes the inquiry
func (h *Handlers) ReplyContactMessage(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reply string `json:"reply" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	target, err := h.contacts.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("contact message"))
		} else {
			internalError(c, "contact load failed", err)
		}
		return
	}
	if target.Handled {
		respondError(c, apperrors.BadRequest("inquiry already handled"))
		return
	}

	if h.mailer != nil {
		if err := h.mailer.SendContactReply(c.Request.Context(), target.Email, target.Name, req.Reply); err != nil {
			internalError(c, "contact reply failed", err)
			return
		}
	}

	if err := h.contacts.MarkHandled(c.Request.Context(), id, me.ID); err != nil {
		internalError(c, "contact update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reply sent"})
}

// DeleteContactMessage drops an inquiry without replying
func (h *Handlers) DeleteContactMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), id); err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("contact message"))
		} else {
			internalError(c, "contact delete failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}
