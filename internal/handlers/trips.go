package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// CreateTrip posts a shared ride
func (h *Handlers) CreateTrip(c *gin.Context) {
	me := middleware.CurrentUser(c)

	var req struct {
		From        string    `json:"from" binding:"required"`
		To          string    `json:"to" binding:"required"`
		DepartAt    time.Time `json:"depart_at" binding:"required"`
		Capacity    int       `json:"capacity" binding:"required,min=2"`
		Description string    `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if req.DepartAt.Before(time.Now()) {
		respondError(c, apperrors.ValidationError("depart_at", "departure must be in the future"))
		return
	}

	trip := &models.Trip{
		Organizer:   me.ID,
		College:     me.College,
		From:        req.From,
		To:          req.To,
		DepartAt:    req.DepartAt,
		Capacity:    req.Capacity,
		Description: req.Description,
		// Listings linger a day past departure
		ValidTill: req.DepartAt.Add(24 * time.Hour),
	}
	if err := h.trips.Create(c.Request.Context(), trip); err != nil {
		internalError(c, "trip create failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

// ListTrips returns the college's upcoming trips
func (h *Handlers) ListTrips(c *gin.Context) {
	me := middleware.CurrentUser(c)

	trips, err := h.trips.ListByCollege(c.Request.Context(), me.College)
	if err != nil {
		internalError(c, "trip list failed", err)
		return
	}

	hidden, err := h.hiddenAuthors(c, me)
	if err != nil {
		internalError(c, "trip list failed", err)
		return
	}
	visible := make([]models.Trip, 0, len(trips))
	for _, trip := range trips {
		if _, blocked := hidden[trip.Organizer]; !blocked {
			visible = append(visible, trip)
		}
	}
	visible = friendsFirst(visible, func(t models.Trip) bool { return me.IsFriend(t.Organizer) })

	c.JSON(http.StatusOK, gin.H{"trips": visible})
}

// JoinTrip files a join request toward the organizer
func (h *Handlers) JoinTrip(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	trip, err := h.trips.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("trip"))
		} else {
			internalError(c, "trip load failed", err)
		}
		return
	}

	switch {
	case trip.Organizer == me.ID:
		respondError(c, apperrors.BadRequest("you organize this trip"))
		return
	case trip.ValidTill.Before(time.Now()):
		respondError(c, apperrors.BadRequest("trip has expired"))
		return
	case trip.HasMember(me.ID):
		respondError(c, apperrors.AlreadyExists("membership"))
		return
	case trip.HasRequest(me.ID):
		respondError(c, apperrors.AlreadyExists("join request"))
		return
	case trip.IsFull():
		respondError(c, apperrors.BadRequest("trip is full"))
		return
	}

	if err := h.trips.AddRequest(c.Request.Context(), id, me.ID); err != nil {
		internalError(c, "join request failed", err)
		return
	}

	h.notify(c, &models.Notification{
		User:  trip.Organizer,
		Type:  models.NotifyTripRequest,
		Text:  fmt.Sprintf("%s wants to join your trip %s to %s", me.Name, trip.From, trip.To),
		Link:  "/trips/" + trip.ID.Hex(),
		Actor: &me.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "join request sent"})
}

// ApproveTripRequest lets the organizer admit a requester
func (h *Handlers) ApproveTripRequest(c *gin.Context) {
	me := middleware.CurrentUser(c)
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	trip, err := h.trips.ByID(c.Request.Context(), tripID)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("trip"))
		} else {
			internalError(c, "trip load failed", err)
		}
		return
	}
	if trip.Organizer != me.ID {
		respondError(c, apperrors.Forbidden("only the organizer can approve requests"))
		return
	}
	if !trip.HasRequest(userID) {
		respondError(c, apperrors.NotFound("join request"))
		return
	}
	if trip.IsFull() {
		respondError(c, apperrors.BadRequest("trip is full"))
		return
	}

	if err := h.trips.Approve(c.Request.Context(), tripID, userID); err != nil {
		internalError(c, "approve failed", err)
		return
	}

	h.notify(c, &models.Notification{
		User:  userID,
		Type:  models.NotifyTripApproved,
		Text:  fmt.Sprintf("you joined the trip %s to %s", trip.From, trip.To),
		Link:  "/trips/" + trip.ID.Hex(),
		Actor: &me.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "request approved"})
}

// DeclineTripRequest drops a pending join request
func (h *Handlers) DeclineTripRequest(c *gin.Context) {
	me := middleware.CurrentUser(c)
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	trip, err := h.trips.ByID(c.Request.Context(), tripID)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("trip"))
		} else {
			internalError(c, "trip load failed", err)
		}
		return
	}
	if trip.Organizer != me.ID && userID != me.ID {
		respondError(c, apperrors.Forbidden("not your request"))
		return
	}

	if err := h.trips.RemoveRequest(c.Request.Context(), tripID, userID); err != nil {
		internalError(c, "decline failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "request declined"})
}

// DeleteTrip removes a trip. Organizers delete their own; moderators
// delete anything.
func (h *Handlers) DeleteTrip(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	trip, err := h.trips.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("trip"))
		} else {
			internalError(c, "trip load failed", err)
		}
		return
	}
	if trip.Organizer != me.ID && !me.Role.IsStaff() {
		respondError(c, apperrors.Forbidden("not your trip"))
		return
	}

	if err := h.trips.Delete(c.Request.Context(), id); err != nil {
		internalError(c, "trip delete failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trip deleted"})
}
