package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// loadVisibleUser fetches the target account. A target who has
// blocked the caller looks like a missing user, so blocks are never
// revealed.
func (h *Handlers) loadVisibleUser(c *gin.Context, id primitive.ObjectID) (*models.User, bool) {
	me := middleware.CurrentUser(c)

	target, err := h.users.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("user"))
		} else {
			internalError(c, "user lookup failed", err)
		}
		return nil, false
	}
	if target.HasBlocked(me.ID) {
		respondError(c, apperrors.NotFound("user"))
		return nil, false
	}
	return target, true
}

// SendFriendRequest files a request toward another user
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	me := middleware.CurrentUser(c)
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if targetID == me.ID {
		respondError(c, apperrors.BadRequest("cannot friend yourself"))
		return
	}

	target, ok := h.loadVisibleUser(c, targetID)
	if !ok {
		return
	}
	if me.HasBlocked(target.ID) {
		respondError(c, apperrors.BadRequest("unblock this user first"))
		return
	}
	if me.IsFriend(target.ID) {
		respondError(c, apperrors.AlreadyExists("friendship"))
		return
	}
	for _, r := range me.FriendRequestsSent {
		if r == target.ID {
			respondError(c, apperrors.AlreadyExists("friend request"))
			return
		}
	}

	ctx := c.Request.Context()
	if err := h.users.AddToSet(ctx, me.ID, "friend_requests_sent", target.ID); err != nil {
		internalError(c, "friend request failed", err)
		return
	}
	if err := h.users.AddToSet(ctx, target.ID, "friend_requests_received", me.ID); err != nil {
		internalError(c, "friend request failed", err)
		return
	}

	h.notify(c, &models.Notification{
		User:  target.ID,
		Type:  models.NotifyFriendRequest,
		Text:  fmt.Sprintf("%s sent you a friend request", me.Name),
		Actor: &me.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "friend request sent"})
}

// AcceptFriendRequest turns a pending request into a friendship
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	me := middleware.CurrentUser(c)
	requesterID, ok := pathID(c, "id")
	if !ok {
		return
	}

	pending := false
	for _, r := range me.FriendRequestsReceived {
		if r == requesterID {
			pending = true
			break
		}
	}
	if !pending {
		respondError(c, apperrors.NotFound("friend request"))
		return
	}

	ctx := c.Request.Context()
	if err := h.users.Pull(ctx, me.ID, "friend_requests_received", requesterID); err != nil {
		internalError(c, "accept failed", err)
		return
	}
	if err := h.users.Pull(ctx, requesterID, "friend_requests_sent", me.ID); err != nil {
		internalError(c, "accept failed", err)
		return
	}
	if err := h.users.AddToSet(ctx, me.ID, "friends", requesterID); err != nil {
		internalError(c, "accept failed", err)
		return
	}
	if err := h.users.AddToSet(ctx, requesterID, "friends", me.ID); err != nil {
		internalError(c, "accept failed", err)
		return
	}

	h.notify(c, &models.Notification{
		User:  requesterID,
		Type:  models.NotifyFriendAccepted,
		Text:  fmt.Sprintf("%s accepted your friend request", me.Name),
		Actor: &me.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "friend request accepted"})
}

// DeclineFriendRequest drops a pending request
func (h *Handlers) DeclineFriendRequest(c *gin.Context) {
	me := middleware.CurrentUser(c)
	requesterID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.users.Pull(ctx, me.ID, "friend_requests_received", requesterID); err != nil {
		internalError(c, "decline failed", err)
		return
	}
	if err := h.users.Pull(ctx, requesterID, "friend_requests_sent", me.ID); err != nil {
		internalError(c, "decline failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend request declined"})
}

// Unfriend removes a friendship in both directions
func (h *Handlers) Unfriend(c *gin.Context) {
	me := middleware.CurrentUser(c)
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.users.Pull(ctx, me.ID, "friends", targetID); err != nil {
		internalError(c, "unfriend failed", err)
		return
	}
	if err := h.users.Pull(ctx, targetID, "friends", me.ID); err != nil {
		internalError(c, "unfriend failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "unfriended"})
}

// BlockUser blocks another user, dissolving any friendship and
// pending requests in both directions.
func (h *Handlers) BlockUser(c *gin.Context) {
	me := middleware.CurrentUser(c)
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if targetID == me.ID {
		respondError(c, apperrors.BadRequest("cannot block yourself"))
		return
	}

	ctx := c.Request.Context()
	if err := h.users.AddToSet(ctx, me.ID, "blocked_users", targetID); err != nil {
		internalError(c, "block failed", err)
		return
	}

	for _, field := range []string{"friends", "friend_requests_sent", "friend_requests_received"} {
		if err := h.users.Pull(ctx, me.ID, field, targetID); err != nil {
			internalError(c, "block failed", err)
			return
		}
		if err := h.users.Pull(ctx, targetID, field, me.ID); err != nil {
			internalError(c, "block failed", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "user blocked"})
}

// UnblockUser lifts a block
func (h *Handlers) UnblockUser(c *gin.Context) {
	me := middleware.CurrentUser(c)
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.Pull(c.Request.Context(), me.ID, "blocked_users", targetID); err != nil {
		internalError(c, "unblock failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user unblocked"})
}

// ListFriends returns the caller's friends
func (h *Handlers) ListFriends(c *gin.Context) {
	me := middleware.CurrentUser(c)

	refs, err := h.users.Refs(c.Request.Context(), me.Friends)
	if err != nil {
		internalError(c, "friend list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": refs})
}

// ListFriendRequests returns pending requests, both directions
func (h *Handlers) ListFriendRequests(c *gin.Context) {
	me := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	received, err := h.users.Refs(ctx, me.FriendRequestsReceived)
	if err != nil {
		internalError(c, "request list failed", err)
		return
	}
	sent, err := h.users.Refs(ctx, me.FriendRequestsSent)
	if err != nil {
		internalError(c, "request list failed", err)
		return
	}

	// Viewing the list reads the corresponding notifications
	if _, err := h.notifications.MarkTypeRead(ctx, me.ID, models.NotifyFriendRequest); err != nil {
		internalError(c, "request list failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": received, "sent": sent})
}

// ListBlockedUsers returns the caller's block list
func (h *Handlers) ListBlockedUsers(c *gin.Context) {
	me := middleware.CurrentUser(c)

	refs, err := h.users.Refs(c.Request.Context(), me.BlockedUsers)
	if err != nil {
		internalError(c, "block list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": refs})
}

// SearchUsers lists verified users of the caller's college by name
func (h *Handlers) SearchUsers(c *gin.Context) {
	me := middleware.CurrentUser(c)

	refs, err := h.users.SearchByCollege(c.Request.Context(), me.College, c.Query("q"), 50)
	if err != nil {
		internalError(c, "user search failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": refs})
}
