// Package handlers implements the HTTP API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/collegeconnect/backend/internal/auth"
	"github.com/collegeconnect/backend/internal/email"
	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
	"github.com/collegeconnect/backend/internal/websocket"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	authService *auth.Service
	wsHandler   *websocket.Handler
	mailer      *email.EmailService

	users         *repository.Users
	messages      *repository.Messages
	items         *repository.Items
	posts         *repository.Posts
	trips         *repository.Trips
	notifications *repository.Notifications
	reports       *repository.Reports
	colleges      *repository.Colleges
	contacts      *repository.Contacts
}

// Repos groups the repositories the handlers depend on
type Repos struct {
	Users         *repository.Users
	Messages      *repository.Messages
	Items         *repository.Items
	Posts         *repository.Posts
	Trips         *repository.Trips
	Notifications *repository.Notifications
	Reports       *repository.Reports
	Colleges      *repository.Colleges
	Contacts      *repository.Contacts
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, repos Repos) *Handlers {
	return &Handlers{
		authService:   authService,
		users:         repos.Users,
		messages:      repos.Messages,
		items:         repos.Items,
		posts:         repos.Posts,
		trips:         repos.Trips,
		notifications: repos.Notifications,
		reports:       repos.Reports,
		colleges:      repos.Colleges,
		contacts:      repos.Contacts,
	}
}

// SetWebSocketHandler wires the realtime handler for route registration
func (h *Handlers) SetWebSocketHandler(ws *websocket.Handler) {
	h.wsHandler = ws
}

// SetMailer wires the outbound mail sender; nil disables mail
func (h *Handlers) SetMailer(m *email.EmailService) {
	h.mailer = m
}

// respondError writes a standardized error response
func respondError(c *gin.Context, err *apperrors.APIError) {
	c.JSON(err.Status, gin.H{"error": err})
}

// internalError logs the cause and responds with a generic 500
func internalError(c *gin.Context, msg string, err error) {
	logger.Log.Error(msg,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	respondError(c, apperrors.InternalError("something went wrong"))
}

// pathID parses an object id from a path parameter
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		respondError(c, apperrors.BadRequest("invalid "+name))
		return primitive.NilObjectID, false
	}
	return id, true
}

// hiddenAuthors collects the user ids whose content the caller must
// not see: users they blocked plus users who blocked them.
func (h *Handlers) hiddenAuthors(c *gin.Context, me *models.User) (map[primitive.ObjectID]struct{}, error) {
	hidden := make(map[primitive.ObjectID]struct{}, len(me.BlockedUsers))
	for _, id := range me.BlockedUsers {
		hidden[id] = struct{}{}
	}
	blockers, err := h.users.BlockersOf(c.Request.Context(), me.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range blockers {
		hidden[id] = struct{}{}
	}
	return hidden, nil
}

// friendsFirst stable-partitions rows so friends' content leads
func friendsFirst[T any](rows []T, isFriend func(T) bool) []T {
	out := make([]T, 0, len(rows))
	var rest []T
	for _, r := range rows {
		if isFriend(r) {
			out = append(out, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(out, rest...)
}

// notify records an in-app notification, best effort
func (h *Handlers) notify(c *gin.Context, n *models.Notification) {
	if err := h.notifications.Create(c.Request.Context(), n); err != nil {
		logger.Log.Warn("notification not recorded",
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}

// Health reports service liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
