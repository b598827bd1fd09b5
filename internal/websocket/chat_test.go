package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/models"
)

type fakeUsers struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
	for _, u := range users {
		f.byID[u.ID.Hex()] = u
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) ByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f.byID[id.Hex()]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUsers) ByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

type fakeMessages struct {
	inserted   []*models.Message
	insertErr  error
	flipCounts []int64
	flipCalls  int
	flipErr    error
}

func (f *fakeMessages) Insert(_ context.Context, m *models.Message) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now()
	f.inserted = append(f.inserted, m)
	return nil
}

func (f *fakeMessages) MarkConversationRead(_ context.Context, _, _ primitive.ObjectID) (int64, error) {
	if f.flipErr != nil {
		return 0, f.flipErr
	}
	n := int64(0)
	if f.flipCalls < len(f.flipCounts) {
		n = f.flipCounts[f.flipCalls]
	}
	f.flipCalls++
	return n, nil
}

// readFrame pops the next queued frame off a client's send buffer
func readFrame(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no frame delivered within 1s")
		return nil
	}
}

// drainUntil reads frames until one of the wanted type arrives
func drainUntil(t *testing.T, c *Client, eventType string) *Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case data := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == eventType {
				return &msg
			}
		case <-deadline:
			t.Fatalf("no %s frame delivered within 1s", eventType)
			return nil
		}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected frame delivered: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

type chatFixture struct {
	hub      *Hub
	presence *PresenceRegistry
	svc      *ChatService
	users    *fakeUsers
	messages *fakeMessages

	alice *models.User
	bob   *models.User

	aliceConn *Client
	bobConn   *Client
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	alice := &models.User{
		ID:      primitive.NewObjectID(),
		Name:    "Alice",
		Email:   "alice@mit.edu",
		College: "MIT",
	}
	bob := &models.User{
		ID:      primitive.NewObjectID(),
		Name:    "Bob",
		Email:   "bob@mit.edu",
		College: "MIT",
	}

	hub := NewHub()
	go hub.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})

	users := newFakeUsers(alice, bob)
	messages := &fakeMessages{}
	presence := NewPresenceRegistry()
	svc := NewChatService(hub, presence, users, messages)

	aliceConn := NewClient(hub, nil, alice.ID.Hex(), alice.Email, alice.College)
	bobConn := NewClient(hub, nil, bob.ID.Hex(), bob.Email, bob.College)
	hub.Register(aliceConn)
	hub.Register(bobConn)

	require.Eventually(t, func() bool {
		return hub.IsUserOnline(alice.ID.Hex()) && hub.IsUserOnline(bob.ID.Hex())
	}, time.Second, 5*time.Millisecond)

	return &chatFixture{
		hub: hub, presence: presence, svc: svc,
		users: users, messages: messages,
		alice: alice, bob: bob,
		aliceConn: aliceConn, bobConn: bobConn,
	}
}

func TestSendDeliversToBothRooms(t *testing.T) {
	f := newChatFixture(t)

	f.svc.Send(context.Background(), f.aliceConn, SendMessagePayload{
		ToEmail: "bob@mit.edu",
		Text:    "hey bob",
	})

	toBob := drainUntil(t, f.bobConn, EventReceiveMessage)
	toAlice := drainUntil(t, f.aliceConn, EventReceiveMessage)

	var got ReceiveMessagePayload
	require.NoError(t, toBob.ParsePayload(&got))
	assert.Equal(t, "hey bob", got.Text)
	assert.Equal(t, "alice@mit.edu", got.Sender.Email)
	assert.Equal(t, "bob@mit.edu", got.Receiver.Email)
	assert.Equal(t, "MIT", got.College)
	assert.Nil(t, got.ReadAt, "receiver not viewing, message starts unread")

	var echo ReceiveMessagePayload
	require.NoError(t, toAlice.ParsePayload(&echo))
	assert.Equal(t, got.ID, echo.ID)

	require.Len(t, f.messages.inserted, 1)
	assert.Equal(t, f.alice.ID, f.messages.inserted[0].Sender)
	assert.Equal(t, f.bob.ID, f.messages.inserted[0].Receiver)
	assert.Nil(t, f.messages.inserted[0].ReadAt)
}

func TestSendToViewingReceiverStoresReadAndEmitsSeen(t *testing.T) {
	f := newChatFixture(t)

	// Bob has Alice's chat open.
	f.presence.SetActive(f.bobConn, "alice@mit.edu")

	f.svc.Send(context.Background(), f.aliceConn, SendMessagePayload{
		ToEmail: "bob@mit.edu",
		Text:    "hi",
	})

	drainUntil(t, f.bobConn, EventReceiveMessage)

	seen := drainUntil(t, f.aliceConn, EventMessagesSeen)
	var payload MessagesSeenPayload
	require.NoError(t, seen.ParsePayload(&payload))
	assert.Equal(t, "bob@mit.edu", payload.By)

	require.Len(t, f.messages.inserted, 1)
	assert.NotNil(t, f.messages.inserted[0].ReadAt, "message stored already read")
}

func TestSendValidation(t *testing.T) {
	f := newChatFixture(t)

	f.svc.Send(context.Background(), f.aliceConn, SendMessagePayload{})

	errMsg := readFrame(t, f.aliceConn)
	assert.Equal(t, EventError, errMsg.Type)
	var payload ErrorPayload
	require.NoError(t, errMsg.ParsePayload(&payload))
	assert.Equal(t, apperrors.CodeInvalidRequest, payload.Code)
	assert.Empty(t, f.messages.inserted)
}

func TestSendMediaOnlyIsValid(t *testing.T) {
	f := newChatFixture(t)

	f.svc.Send(context.Background(), f.aliceConn, SendMessagePayload{
		ToEmail: "bob@mit.edu",
		Media:   &models.Media{Kind: models.MediaImage, URL: "https://cdn.example/pic.png"},
	})

	msg := drainUntil(t, f.bobConn, EventReceiveMessage)
	var got ReceiveMessagePayload
	require.NoError(t, msg.ParsePayload(&got))
	require.NotNil(t, got.Media)
	assert.Equal(t, models.MediaImage, got.Media.Kind)

	f.svc.Send(context.Background(), f.aliceConn, SendMessagePayload{
		ToEmail: "bob@mit.edu",
		Media:   &models.Media{Kind: models.MediaVideo, URL: "https://cdn.example/clip.mp4"},
	})

	msg = drainUntil(t, f.bobConn, EventReceiveMessage)
	require.NoError(t, msg.ParsePayload(&got))
	require.NotNil(t, got.Media)
	assert.Equal(t, models.MediaVideo, got.Media.Kind)
}

func TestSendRejectsUnknownMediaKind(t *testing.T) {
	f := newChatFixture(t)

	f.svc.Send(context.Background(), f.aliceConn, SendMessagePayload{
		ToEmail: "bob@mit.edu",
		Media:   &models.Media{Kind: "spreadsheet", URL: "https://cdn.example/f.xlsx"},
	})

	errMsg := readFrame(t, f.aliceConn)
	assert.Equal(t, EventError, errMsg.Type)
	var payload ErrorPayload
	require.NoError(t, errMsg.ParsePayload(&payload))
	assert.Equal(t, apperrors.CodeInvalidRequest, payload.Code)

	assert.Empty(t, f.messages.inserted)
	assertNoFrame(t, f.bobConn)
}

func TestSendToUnknownRecipientDropsSilently(t *testing.T) {
	f := newChatFixture(t)

	f.svc.Send(context.Background(), f.aliceConn, SendMessagePayload{
		ToEmail: "stranger@nowhere.edu",
		Text:    "hello?",
	})

	assertNoFrame(t, f.aliceConn)
	assert.Empty(t, f.messages.inserted)
}

func TestSendPersistenceFailureEmitsTypedError(t *testing.T) {
	f := newChatFixture(t)
	f.messages.insertErr = errors.New("write concern failed")

	f.svc.Send(context.Background(), f.aliceConn, SendMessagePayload{
		ToEmail: "bob@mit.edu",
		Text:    "will not persist",
	})

	errMsg := drainUntil(t, f.aliceConn, EventError)
	var payload ErrorPayload
	require.NoError(t, errMsg.ParsePayload(&payload))
	assert.Equal(t, apperrors.CodePersistenceFailure, payload.Code)

	// Nothing reaches the receiver when persistence fails.
	assertNoFrame(t, f.bobConn)
}

func TestMarkReadEmitsSeenOnlyWhenFlipped(t *testing.T) {
	f := newChatFixture(t)
	f.messages.flipCounts = []int64{3, 0}

	// First read flips three messages, so Alice hears about it.
	f.svc.MarkRead(context.Background(), f.bobConn, "alice@mit.edu")

	seen := drainUntil(t, f.aliceConn, EventMessagesSeen)
	var payload MessagesSeenPayload
	require.NoError(t, seen.ParsePayload(&payload))
	assert.Equal(t, "bob@mit.edu", payload.By)

	// Replay flips nothing and stays silent.
	f.svc.MarkRead(context.Background(), f.bobConn, "alice@mit.edu")
	assertNoFrame(t, f.aliceConn)

	assert.Equal(t, 2, f.messages.flipCalls)
}

func TestMarkReadUnknownCounterpartIsSilent(t *testing.T) {
	f := newChatFixture(t)

	f.svc.MarkRead(context.Background(), f.bobConn, "ghost@nowhere.edu")

	assertNoFrame(t, f.bobConn)
	assert.Equal(t, 0, f.messages.flipCalls)
}

func TestMarkReadPersistenceFailure(t *testing.T) {
	f := newChatFixture(t)
	f.messages.flipErr = errors.New("connection reset")

	f.svc.MarkRead(context.Background(), f.bobConn, "alice@mit.edu")

	errMsg := drainUntil(t, f.bobConn, EventError)
	var payload ErrorPayload
	require.NoError(t, errMsg.ParsePayload(&payload))
	assert.Equal(t, apperrors.CodePersistenceFailure, payload.Code)
	assertNoFrame(t, f.aliceConn)
}

func TestChatOpenedHandlerTracksPresence(t *testing.T) {
	f := newChatFixture(t)
	f.svc.RegisterHandlers()

	handler, ok := f.hub.GetHandler(EventChatOpened)
	require.True(t, ok)

	require.NoError(t, handler(f.bobConn, NewMessage(EventChatOpened, ChatOpenedPayload{
		WithEmail: "alice@mit.edu",
	})))
	assert.True(t, f.presence.IsViewing(f.hub, f.bob.ID.Hex(), "alice@mit.edu"))

	closeHandler, ok := f.hub.GetHandler(EventChatClosed)
	require.True(t, ok)
	require.NoError(t, closeHandler(f.bobConn, NewMessage(EventChatClosed, nil)))
	assert.False(t, f.presence.IsViewing(f.hub, f.bob.ID.Hex(), "alice@mit.edu"))
}
