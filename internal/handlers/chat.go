package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/repository"
)

// ChatHistory returns the conversation with another user, oldest
// first, and marks their messages to the caller as read. Opening a
// chat over REST counts as reading it.
func (h *Handlers) ChatHistory(c *gin.Context) {
	me := middleware.CurrentUser(c)

	peer, err := h.users.ByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("user"))
		} else {
			internalError(c, "peer lookup failed", err)
		}
		return
	}
	if peer.HasBlocked(me.ID) {
		respondError(c, apperrors.NotFound("user"))
		return
	}

	msgs, err := h.messages.History(c.Request.Context(), me.ID, peer.ID, 500)
	if err != nil {
		internalError(c, "history load failed", err)
		return
	}

	if _, err := h.messages.MarkConversationRead(c.Request.Context(), peer.ID, me.ID); err != nil {
		internalError(c, "read flip failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// UnreadCount returns the caller's total unread message count
func (h *Handlers) UnreadCount(c *gin.Context) {
	me := middleware.CurrentUser(c)

	count, err := h.messages.UnreadCount(c.Request.Context(), me.ID)
	if err != nil {
		internalError(c, "unread count failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// ChatInbox returns one row per conversation: counterpart, latest
// message, and unread count, newest first.
func (h *Handlers) ChatInbox(c *gin.Context) {
	me := middleware.CurrentUser(c)

	previews, err := h.messages.Inbox(c.Request.Context(), me.ID)
	if err != nil {
		internalError(c, "inbox load failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": previews})
}

// ChatUnreadUsers lists the users who have unread messages waiting
// for the caller.
func (h *Handlers) ChatUnreadUsers(c *gin.Context) {
	me := middleware.CurrentUser(c)

	senders, err := h.messages.UnreadSenders(c.Request.Context(), me.ID)
	if err != nil {
		internalError(c, "unread senders failed", err)
		return
	}
	if senders == nil {
		senders = []primitive.ObjectID{}
	}

	refs, err := h.users.Refs(c.Request.Context(), senders)
	if err != nil {
		internalError(c, "unread senders failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": refs})
}
