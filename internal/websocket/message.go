package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/collegeconnect/backend/internal/models"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON accepts Unix milliseconds or RFC3339
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON always outputs RFC3339
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Event types for the realtime chat channel
const (
	// System events
	EventSystem = "system"
	EventPing   = "ping"
	EventPong   = "pong"
	EventError  = "error"

	// Client to server
	EventChatOpened  = "chat-opened"
	EventChatClosed  = "chat-closed"
	EventMessageRead = "message-read"
	EventSendMessage = "send-message"

	// Server to client
	EventReceiveMessage = "receive-message"
	EventMessagesSeen   = "messages-seen"
)

// Message is the wire envelope for every websocket frame
type Message struct {
	// Type identifies the event for routing
	Type string `json:"type"`

	// Payload contains the event-specific data
	Payload interface{} `json:"payload,omitempty"`

	// ID is a unique message identifier for acknowledgment
	ID string `json:"id,omitempty"`

	// ReplyTo references the original message ID for responses
	ReplyTo string `json:"reply_to,omitempty"`

	// Timestamp when the message was created (accepts Unix ms or RFC3339)
	Timestamp FlexibleTime `json:"timestamp"`
}

// NewMessage creates a new envelope with the current timestamp
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorMessage creates an error event
func NewErrorMessage(code string, message string) *Message {
	return &Message{
		Type: EventError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// ParsePayload unmarshals the payload into a specific type
func (m *Message) ParsePayload(target interface{}) error {
	if m.Payload == nil {
		return nil
	}

	data, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// ErrorPayload is the payload of an error event
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PingPayload is the payload of a ping event
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload is the payload of a pong event
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// SystemPayload is the payload of a system event
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ChatOpenedPayload marks which conversation the client is viewing
type ChatOpenedPayload struct {
	WithEmail string `json:"withEmail"`
}

// MessageReadPayload asks the server to mark a counterpart's messages read
type MessageReadPayload struct {
	FromEmail string `json:"fromEmail"`
}

// SendMessagePayload is an outgoing direct message from the client
type SendMessagePayload struct {
	ToEmail string        `json:"toEmail"`
	Text    string        `json:"text,omitempty"`
	Media   *models.Media `json:"media,omitempty"`
}

// ReceiveMessagePayload is the identity-enriched message pushed to
// both conversation parties.
type ReceiveMessagePayload struct {
	ID        string         `json:"id"`
	Sender    models.UserRef `json:"sender"`
	Receiver  models.UserRef `json:"receiver"`
	College   string         `json:"college"`
	Text      string         `json:"text,omitempty"`
	Media     *models.Media  `json:"media,omitempty"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
}

// MessagesSeenPayload tells a sender their messages were read
type MessagesSeenPayload struct {
	By string `json:"by"`
}
