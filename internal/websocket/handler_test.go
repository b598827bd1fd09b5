package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collegeconnect/backend/internal/models"
)

func onlineStatusRouter(t *testing.T, hub *Hub, users UserResolver) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(hub, nil, nil, users)
	r.GET("/ws/online/:email", h.HandleOnlineStatus)
	return r
}

func TestOnlineStatusAnswersFromEmailParam(t *testing.T) {
	alice := &models.User{
		ID:      primitive.NewObjectID(),
		Name:    "Alice",
		Email:   "alice@mit.edu",
		College: "MIT",
	}
	carol := &models.User{
		ID:      primitive.NewObjectID(),
		Name:    "Carol",
		Email:   "carol@mit.edu",
		College: "MIT",
	}

	hub := NewHub()
	hub.addClient(NewClient(hub, nil, alice.ID.Hex(), alice.Email, alice.College))

	r := onlineStatusRouter(t, hub, newFakeUsers(alice, carol))

	// A bare GET with no request body answers for the connected user.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/online/alice@mit.edu", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Email  string `json:"email"`
		Online bool   `json:"online"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alice@mit.edu", body.Email)
	assert.True(t, body.Online)

	// A known account without a live connection reads offline.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/online/carol@mit.edu", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "carol@mit.edu", body.Email)
	assert.False(t, body.Online)
}

func TestOnlineStatusUnknownEmail(t *testing.T) {
	r := onlineStatusRouter(t, NewHub(), newFakeUsers())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/online/ghost@nowhere.edu", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
