package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// SubmitVerificationProof uploads proof of college membership for
// users whose email domain did not auto-verify.
func (h *Handlers) SubmitVerificationProof(c *gin.Context) {
	me := middleware.CurrentUser(c)

	if me.Verification.Status == models.VerificationVerified {
		respondError(c, apperrors.BadRequest("already verified"))
		return
	}

	var req struct {
		Proof []string `json:"proof" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	set := bson.M{
		"verification.status": models.VerificationPending,
		"verification.method": models.MethodIDUpload,
		"verification.proof":  req.Proof,
	}
	if err := h.users.Update(c.Request.Context(), me.ID, set); err != nil {
		internalError(c, "proof submit failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "proof submitted for review"})
}

// ListPendingVerifications shows moderators the review queue for
// their college.
func (h *Handlers) ListPendingVerifications(c *gin.Context) {
	me := middleware.CurrentUser(c)

	college := me.College
	if me.Role == models.RoleAdmin {
		college = c.Query("college")
	}

	users, err := h.users.PendingVerifications(c.Request.Context(), college)
	if err != nil {
		internalError(c, "verification queue failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": users})
}

// ReviewVerification approves or rejects a pending proof
func (h *Handlers) ReviewVerification(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
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
	if target.Verification.Status != models.VerificationPending {
		respondError(c, apperrors.BadRequest("no pending verification"))
		return
	}

	set := bson.M{
		"verification.reviewed_by_moderator": true,
	}
	text := "your college verification was rejected"
	if req.Approve {
		set["verification.status"] = models.VerificationVerified
		set["verification.verified_at"] = time.Now()
		text = "your college verification was approved"
	} else {
		set["verification.status"] = models.VerificationUnverified
		set["verification.proof"] = []string{}
	}

	if err := h.users.Update(c.Request.Context(), id, set); err != nil {
		internalError(c, "verification review failed", err)
		return
	}

	h.notify(c, &models.Notification{
		User:  id,
		Type:  models.NotifyVerification,
		Text:  text,
		Actor: &me.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "review recorded"})
}
