package websocket

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegeconnect/backend/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	assert.NotNil(t, hub)
	assert.NotNil(t, hub.rooms)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.unicast)
	assert.NotNil(t, hub.handlers)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow(), "request 11 should be denied")

	time.Sleep(300 * time.Millisecond)
	assert.True(t, rl.Allow(), "request after refill should be allowed")
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("some_code", "something went wrong")

	assert.Equal(t, EventError, msg.Type)
	payload, ok := msg.Payload.(ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, "some_code", payload.Code)
	assert.Equal(t, "something went wrong", payload.Message)
}

func TestMessageParsePayload(t *testing.T) {
	msg := NewMessage(EventSendMessage, map[string]interface{}{
		"toEmail": "bob@mit.edu",
		"text":    "hey",
	})

	var payload SendMessagePayload
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, "bob@mit.edu", payload.ToEmail)
	assert.Equal(t, "hey", payload.Text)
	assert.Nil(t, payload.Media)
}

func TestFlexibleTimeUnmarshal(t *testing.T) {
	var ft FlexibleTime
	require.NoError(t, json.Unmarshal([]byte(`1700000000000`), &ft))
	assert.Equal(t, int64(1700000000000), ft.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`"2026-01-02T15:04:05Z"`), &ft))
	assert.Equal(t, 2026, ft.Year())

	assert.Error(t, json.Unmarshal([]byte(`{"bad":1}`), &ft))
}

func TestEventTypesUnique(t *testing.T) {
	types := []string{
		EventSystem, EventPing, EventPong, EventError,
		EventChatOpened, EventChatClosed, EventMessageRead, EventSendMessage,
		EventReceiveMessage, EventMessagesSeen,
	}

	seen := make(map[string]bool)
	for _, typ := range types {
		assert.NotEmpty(t, typ)
		assert.False(t, seen[typ], "duplicate event type: %s", typ)
		seen[typ] = true
	}
}

func TestHubRegisterHandler(t *testing.T) {
	hub := NewHub()

	hub.RegisterHandler("test_event", func(client *Client, msg *Message) error {
		return nil
	})

	handler, ok := hub.GetHandler("test_event")
	assert.True(t, ok)
	assert.NotNil(t, handler)

	_, ok = hub.GetHandler("nonexistent")
	assert.False(t, ok)
}

func TestHubRoomMembership(t *testing.T) {
	hub := NewHub()

	assert.False(t, hub.IsUserOnline("user-1"))
	assert.Empty(t, hub.MembersOf("user-1"))
	assert.Empty(t, hub.OnlineUsers())

	a := NewClient(hub, nil, "user-1", "a@mit.edu", "MIT")
	b := NewClient(hub, nil, "user-1", "a@mit.edu", "MIT")
	hub.addClient(a)
	hub.addClient(b)

	assert.True(t, hub.IsUserOnline("user-1"))
	assert.Len(t, hub.MembersOf("user-1"), 2)
	assert.Equal(t, []string{"user-1"}, hub.OnlineUsers())

	hub.removeClient(a)
	assert.True(t, hub.IsUserOnline("user-1"))
	hub.removeClient(b)
	assert.False(t, hub.IsUserOnline("user-1"))
}

func TestHubDeliverToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.deliver("nobody", NewMessage(EventSystem, nil))
}

func TestPresenceRegistry(t *testing.T) {
	hub := NewHub()
	presence := NewPresenceRegistry()

	phone := NewClient(hub, nil, "user-1", "a@mit.edu", "MIT")
	laptop := NewClient(hub, nil, "user-1", "a@mit.edu", "MIT")
	hub.addClient(phone)
	hub.addClient(laptop)

	assert.False(t, presence.IsViewing(hub, "user-1", "b@mit.edu"))

	presence.SetActive(phone, "B@MIT.edu")
	assert.True(t, presence.IsViewing(hub, "user-1", "b@mit.edu"),
		"one viewing connection is enough")
	assert.Equal(t, "b@mit.edu", presence.ActiveChat(phone))
	assert.Empty(t, presence.ActiveChat(laptop))

	presence.SetActive(phone, "c@mit.edu")
	assert.False(t, presence.IsViewing(hub, "user-1", "b@mit.edu"),
		"switching chats drops the old one")
	assert.True(t, presence.IsViewing(hub, "user-1", "c@mit.edu"))

	presence.ClearActive(phone)
	assert.False(t, presence.IsViewing(hub, "user-1", "c@mit.edu"))

	// Blank email clears instead of recording an empty key.
	presence.SetActive(laptop, "  ")
	assert.False(t, presence.IsViewing(hub, "user-1", ""))
}

func TestPresenceIsPerConnection(t *testing.T) {
	hub := NewHub()
	presence := NewPresenceRegistry()

	alice := NewClient(hub, nil, "user-1", "a@mit.edu", "MIT")
	other := NewClient(hub, nil, "user-2", "b@mit.edu", "MIT")
	hub.addClient(alice)
	hub.addClient(other)

	presence.SetActive(other, "a@mit.edu")

	// user-2 viewing does not make user-1 a viewer.
	assert.False(t, presence.IsViewing(hub, "user-1", "a@mit.edu"))
	assert.True(t, presence.IsViewing(hub, "user-2", "a@mit.edu"))
}
