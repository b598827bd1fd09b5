package websocket

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/metrics"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// UserResolver resolves accounts during message ingest
type UserResolver interface {
	ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

// MessageStore persists direct messages
type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	MarkConversationRead(ctx context.Context, sender, reader primitive.ObjectID) (int64, error)
}

// ChatService wires the realtime chat events to persistence: ingest,
// presence-aware read stamping, and read-receipt propagation.
type ChatService struct {
	hub      *Hub
	presence *PresenceRegistry
	users    UserResolver
	messages MessageStore
}

// NewChatService creates the chat service
func NewChatService(hub *Hub, presence *PresenceRegistry, users UserResolver, messages MessageStore) *ChatService {
	return &ChatService{
		hub:      hub,
		presence: presence,
		users:    users,
		messages: messages,
	}
}

// RegisterHandlers binds the chat events on the hub
func (s *ChatService) RegisterHandlers() {
	s.hub.RegisterHandler(EventChatOpened, s.handleChatOpened)
	s.hub.RegisterHandler(EventChatClosed, s.handleChatClosed)
	s.hub.RegisterHandler(EventMessageRead, s.handleMessageRead)
	s.hub.RegisterHandler(EventSendMessage, s.handleSendMessage)
}

// Presence returns the registry, for disconnect cleanup
func (s *ChatService) Presence() *PresenceRegistry {
	return s.presence
}

func (s *ChatService) handleChatOpened(client *Client, msg *Message) error {
	var payload ChatOpenedPayload
	if err := msg.ParsePayload(&payload); err != nil {
		client.SendError(apperrors.CodeInvalidRequest, "malformed chat-opened payload")
		return nil
	}
	if payload.WithEmail == "" {
		client.SendError(apperrors.CodeInvalidRequest, "withEmail is required")
		return nil
	}

	s.presence.SetActive(client, payload.WithEmail)
	return nil
}

func (s *ChatService) handleChatClosed(client *Client, msg *Message) error {
	s.presence.ClearActive(client)
	return nil
}

func (s *ChatService) handleMessageRead(client *Client, msg *Message) error {
	var payload MessageReadPayload
	if err := msg.ParsePayload(&payload); err != nil {
		client.SendError(apperrors.CodeInvalidRequest, "malformed message-read payload")
		return nil
	}
	if payload.FromEmail == "" {
		client.SendError(apperrors.CodeInvalidRequest, "fromEmail is required")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.MarkRead(ctx, client, payload.FromEmail)
	return nil
}

func (s *ChatService) handleSendMessage(client *Client, msg *Message) error {
	var payload SendMessagePayload
	if err := msg.ParsePayload(&payload); err != nil {
		client.SendError(apperrors.CodeInvalidRequest, "malformed send-message payload")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Send(ctx, client, payload)
	return nil
}

// Send validates, persists, and fans out a direct message. When the
// receiver is already viewing the conversation the message is stored
// read and the sender gets an instant messages-seen.
func (s *ChatService) Send(ctx context.Context, client *Client, payload SendMessagePayload) {
	toEmail := strings.ToLower(strings.TrimSpace(payload.ToEmail))
	hasText := strings.TrimSpace(payload.Text) != ""

	if toEmail == "" || (!hasText && payload.Media == nil) {
		client.SendError(apperrors.CodeInvalidRequest, "toEmail and text or media are required")
		return
	}
	if payload.Media != nil && !payload.Media.Kind.Valid() {
		client.SendError(apperrors.CodeInvalidRequest, "unsupported media kind")
		return
	}

	senderID, err := primitive.ObjectIDFromHex(client.UserID)
	if err != nil {
		client.SendError(apperrors.CodeInvalidRequest, "invalid sender identity")
		return
	}

	sender, err := s.users.ByID(ctx, senderID)
	if err != nil {
		// A vanished sender means the account was deleted mid-session.
		logger.Log.Warn("send from unknown sender",
			logger.WithUserID(client.UserID),
			zap.Error(err),
		)
		return
	}

	receiver, err := s.users.ByEmail(ctx, toEmail)
	if err != nil {
		if repository.IsNotFound(err) {
			logger.Log.Debug("send to unknown recipient",
				logger.WithUserID(client.UserID),
				zap.String("to", toEmail),
			)
			return
		}
		logger.Log.Error("recipient lookup failed", zap.Error(err))
		client.SendError(apperrors.CodePersistenceFailure, "message could not be saved")
		return
	}

	receiverViewing := s.presence.IsViewing(s.hub, receiver.ID.Hex(), sender.Email)

	message := &models.Message{
		Sender:   sender.ID,
		Receiver: receiver.ID,
		College:  sender.College,
		Text:     payload.Text,
		Media:    payload.Media,
	}
	if receiverViewing {
		now := time.Now()
		message.ReadAt = &now
	}

	if err := s.messages.Insert(ctx, message); err != nil {
		logger.Log.Error("message persist failed",
			logger.WithUserID(client.UserID),
			zap.Error(err),
		)
		metrics.Get().ErrorsTotal.WithLabelValues("persistence", "chat").Inc()
		client.SendError(apperrors.CodePersistenceFailure, "message could not be saved")
		return
	}

	enriched := NewMessage(EventReceiveMessage, ReceiveMessagePayload{
		ID:        message.ID.Hex(),
		Sender:    sender.Ref(),
		Receiver:  receiver.Ref(),
		College:   message.College,
		Text:      message.Text,
		Media:     message.Media,
		ReadAt:    message.ReadAt,
		CreatedAt: message.CreatedAt,
	})

	s.hub.SendToUser(receiver.ID.Hex(), enriched)
	s.hub.SendToUser(sender.ID.Hex(), enriched)

	if receiverViewing {
		s.hub.SendToUser(sender.ID.Hex(), NewMessage(EventMessagesSeen, MessagesSeenPayload{
			By: receiver.Email,
		}))
	}
}

// MarkRead stamps every unread message from the counterpart to the
// reader, then tells the counterpart their messages were seen. The
// receipt is only emitted when something actually flipped, so replays
// are silent.
func (s *ChatService) MarkRead(ctx context.Context, client *Client, fromEmail string) {
	fromEmail = strings.ToLower(strings.TrimSpace(fromEmail))

	readerID, err := primitive.ObjectIDFromHex(client.UserID)
	if err != nil {
		client.SendError(apperrors.CodeInvalidRequest, "invalid reader identity")
		return
	}

	counterpart, err := s.users.ByEmail(ctx, fromEmail)
	if err != nil {
		if repository.IsNotFound(err) {
			return
		}
		logger.Log.Error("counterpart lookup failed", zap.Error(err))
		client.SendError(apperrors.CodePersistenceFailure, "read receipt could not be saved")
		return
	}

	flipped, err := s.messages.MarkConversationRead(ctx, counterpart.ID, readerID)
	if err != nil {
		logger.Log.Error("read flip failed",
			logger.WithUserID(client.UserID),
			zap.Error(err),
		)
		metrics.Get().ErrorsTotal.WithLabelValues("persistence", "chat").Inc()
		client.SendError(apperrors.CodePersistenceFailure, "read receipt could not be saved")
		return
	}

	if flipped > 0 {
		metrics.Get().WSReadReceiptsFlipped.Add(float64(flipped))
		s.hub.SendToUser(counterpart.ID.Hex(), NewMessage(EventMessagesSeen, MessagesSeenPayload{
			By: client.Email,
		}))
	}
}
