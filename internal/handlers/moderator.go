package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// ListReports returns open reports for the moderator's college.
// Admins see every college.
func (h *Handlers) ListReports(c *gin.Context) {
	me := middleware.CurrentUser(c)

	college := me.College
	if me.Role == models.RoleAdmin {
		college = c.Query("college")
	}

	reports, err := h.reports.ListOpen(c.Request.Context(), college)
	if err != nil {
		internalError(c, "report list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ResolveReport closes a report as resolved or dismissed
func (h *Handlers) ResolveReport(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.ReportStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if req.Status != models.ReportResolved && req.Status != models.ReportDismissed {
		respondError(c, apperrors.BadRequest("status must be resolved or dismissed"))
		return
	}

	if err := h.reports.Resolve(c.Request.Context(), id, req.Status, me.ID); err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("report"))
		} else {
			internalError(c, "report update failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report " + string(req.Status)})
}

// BanUser bans an account and purges everything it created. Staff
// cannot ban each other.
func (h *Handlers) BanUser(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	target, err := h.users.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("user"))
		} else {
			internalError(c, "user lookup failed", err)
		}
		return
	}
	if target.Role.IsStaff() {
		respondError(c, apperrors.Forbidden("cannot ban staff"))
		return
	}

	ctx := c.Request.Context()
	if err := h.users.Update(ctx, id, bson.M{"is_banned": true}); err != nil {
		internalError(c, "ban failed", err)
		return
	}

	// Content purge is best effort; a partial purge still leaves the
	// account locked out.
	purged := gin.H{}
	if n, err := h.messages.DeleteByUser(ctx, id); err == nil {
		purged["messages"] = n
	} else {
		logger.Log.Warn("message purge incomplete", logger.WithUserID(id.Hex()), zap.Error(err))
	}
	if n, err := h.items.DeleteBySeller(ctx, id); err == nil {
		purged["items"] = n
	} else {
		logger.Log.Warn("item purge incomplete", logger.WithUserID(id.Hex()), zap.Error(err))
	}
	if n, err := h.posts.DeleteByAuthor(ctx, id); err == nil {
		purged["posts"] = n
	} else {
		logger.Log.Warn("post purge incomplete", logger.WithUserID(id.Hex()), zap.Error(err))
	}
	if n, err := h.trips.DeleteByOrganizer(ctx, id); err == nil {
		purged["trips"] = n
	} else {
		logger.Log.Warn("trip purge incomplete", logger.WithUserID(id.Hex()), zap.Error(err))
	}
	if n, err := h.reports.ResolveByTarget(ctx, id, me.ID); err == nil {
		purged["reports_actioned"] = n
	} else {
		logger.Log.Warn("report sweep incomplete", logger.WithUserID(id.Hex()), zap.Error(err))
	}

	logger.Log.Info("user banned",
		logger.WithUserID(id.Hex()),
		zap.String("by", me.ID.Hex()),
	)

	c.JSON(http.StatusOK, gin.H{"message": "user banned", "purged": purged})
}

// UnbanUser lifts a ban
func (h *Handlers) UnbanUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.Update(c.Request.Context(), id, bson.M{"is_banned": false}); err != nil {
		internalError(c, "unban failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user unbanned"})
}

// SetUserRole grants or revokes moderator privileges. Admin only;
// the admin role itself is assigned out of band.
func (h *Handlers) SetUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if req.Role != models.RoleUser && req.Role != models.RoleModerator {
		respondError(c, apperrors.BadRequest("role must be user or moderator"))
		return
	}

	target, err := h.users.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("user"))
		} else {
			internalError(c, "user lookup failed", err)
		}
		return
	}
	if target.Role == models.RoleAdmin {
		respondError(c, apperrors.Forbidden("admin role cannot be changed here"))
		return
	}

	if err := h.users.Update(c.Request.Context(), id, bson.M{"role": req.Role}); err != nil {
		internalError(c, "role update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

// ListBannedUsers returns every banned account
func (h *Handlers) ListBannedUsers(c *gin.Context) {
	users, err := h.users.Banned(c.Request.Context())
	if err != nil {
		internalError(c, "banned list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
