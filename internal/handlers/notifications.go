package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/repository"
)

// ListNotifications returns the caller's notifications, newest first
func (h *Handlers) ListNotifications(c *gin.Context) {
	me := middleware.CurrentUser(c)

	ns, err := h.notifications.ListByUser(c.Request.Context(), me.ID)
	if err != nil {
		internalError(c, "notification list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": ns})
}

// MarkNotificationRead flips one notification
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, me.ID); err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("notification"))
		} else {
			internalError(c, "notification update failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification read"})
}

// MarkAllNotificationsRead flips everything unread
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	me := middleware.CurrentUser(c)

	flipped, err := h.notifications.MarkAllRead(c.Request.Context(), me.ID)
	if err != nil {
		internalError(c, "notification update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": flipped})
}
