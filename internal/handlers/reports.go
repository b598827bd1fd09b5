package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// CreateReport files a complaint against content or a user
func (h *Handlers) CreateReport(c *gin.Context) {
	me := middleware.CurrentUser(c)

	var req struct {
		Target   models.ReportTarget `json:"target" binding:"required"`
		TargetID string              `json:"target_id" binding:"required"`
		Reason   string              `json:"reason" binding:"required"`
		Details  string              `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	switch req.Target {
	case models.TargetUser, models.TargetItem, models.TargetPost, models.TargetMessage:
	default:
		respondError(c, apperrors.BadRequest("unknown report target"))
		return
	}

	targetID, err := primitive.ObjectIDFromHex(req.TargetID)
	if err != nil {
		respondError(c, apperrors.BadRequest("invalid target_id"))
		return
	}

	if req.Target == models.TargetUser {
		if targetID == me.ID {
			respondError(c, apperrors.BadRequest("cannot report yourself"))
			return
		}
		target, err := h.users.ByID(c.Request.Context(), targetID)
		if err != nil {
			if repository.IsNotFound(err) {
				respondError(c, apperrors.NotFound("user"))
			} else {
				internalError(c, "user lookup failed", err)
			}
			return
		}
		if target.Role.IsStaff() {
			respondError(c, apperrors.BadRequest("staff cannot be reported"))
			return
		}
	}

	report := &models.Report{
		Reporter: me.ID,
		Target:   req.Target,
		TargetID: targetID,
		Reason:   req.Reason,
		Details:  req.Details,
		College:  me.College,
	}
	if err := h.reports.Create(c.Request.Context(), report); err != nil {
		internalError(c, "report create failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"report": report})
}
