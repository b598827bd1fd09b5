package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/collegeconnect/backend/internal/auth"
	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/repository"
)

// Handler upgrades HTTP requests to websocket connections
type Handler struct {
	hub         *Hub
	authService *auth.Service
	chat        *ChatService
	users       UserResolver
}

// NewHandler creates the websocket handler
func NewHandler(hub *Hub, authService *auth.Service, chat *ChatService, users UserResolver) *Handler {
	return &Handler{
		hub:         hub,
		authService: authService,
		chat:        chat,
		users:       users,
	}
}

// HandleWebSocket authenticates via JWT (query param ?token= or
// Authorization header) and upgrades. A bad token is rejected with
// 401 before the upgrade.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		if header := c.GetHeader("Authorization"); header != "" {
			tokenString = header
			if len(header) > 7 && header[:7] == "Bearer " {
				tokenString = header[7:]
			}
		}
	}

	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": apperrors.CodeInvalidCredential,
		})
		return
	}

	claims, err := h.authService.ParseToken(tokenString)
	if err != nil {
		logger.Log.Warn("websocket handshake rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": apperrors.CodeInvalidCredential,
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, claims.UserID, claims.Email, claims.College)
	client.RemoteAddr = c.ClientIP()

	h.hub.Register(client)

	_ = client.Send(NewMessage(EventSystem, SystemPayload{
		Event: "connected",
		Data: map[string]interface{}{
			"user_id":     claims.UserID,
			"email":       claims.Email,
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump()

	// Disconnect implies the conversation view is gone.
	if h.chat != nil {
		h.chat.Presence().ClearActive(client)
	}
}

// HandleStats reports channel counters and online users
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket":    h.hub.Snapshot(),
		"online_users": h.hub.OnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// HandleOnlineStatus reports whether the user behind an email address
// currently has a live websocket connection.
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))

	user, err := h.users.ByEmail(c.Request.Context(), email)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Log.Error("online status lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":     user.Email,
		"online":    h.hub.IsUserOnline(user.ID.Hex()),
		"timestamp": time.Now().UTC(),
	})
}
