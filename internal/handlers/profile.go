package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
)

// GetMe returns the caller's own account
func (h *Handlers) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

// UpdateProfile changes the caller's display fields
func (h *Handlers) UpdateProfile(c *gin.Context) {
	me := middleware.CurrentUser(c)

	var req struct {
		Name       string `json:"name"`
		ProfilePic string `json:"profile_pic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	set := bson.M{}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.ProfilePic != "" {
		set["profile_pic"] = req.ProfilePic
	}
	if len(set) == 0 {
		respondError(c, apperrors.BadRequest("nothing to update"))
		return
	}

	if err := h.users.Update(c.Request.Context(), me.ID, set); err != nil {
		internalError(c, "profile update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// GetUser returns another user's public profile
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	target, ok := h.loadVisibleUser(c, id)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": gin.H{
		"id":          target.ID,
		"name":        target.Name,
		"email":       target.Email,
		"college":     target.College,
		"profile_pic": target.ProfilePic,
	}})
}
