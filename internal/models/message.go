package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaKind constrains attachment types on direct messages
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Valid reports whether the kind is a supported attachment type
func (k MediaKind) Valid() bool {
	return k == MediaImage || k == MediaVideo
}

// Media is an optional attachment on a direct message
type Media struct {
	Kind     MediaKind `bson:"kind" json:"kind"`
	URL      string    `bson:"url" json:"url"`
	Filename string    `bson:"filename,omitempty" json:"filename,omitempty"`
}

// Message is a persisted direct message between two users.
// ReadAt is nil while unread; once set it is never cleared.
type Message struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender   primitive.ObjectID `bson:"sender" json:"sender"`
	Receiver primitive.ObjectID `bson:"receiver" json:"receiver"`
	College  string             `bson:"college" json:"college"`
	Text     string             `bson:"text,omitempty" json:"text,omitempty"`
	Media    *Media             `bson:"media,omitempty" json:"media,omitempty"`
	ReadAt   *time.Time         `bson:"read_at" json:"read_at"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsRead reports whether the receiver has seen the message
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// ChatPreview is one row of the inbox: the counterpart plus the latest
// message and the reader's unread count for that conversation.
type ChatPreview struct {
	User        UserRef   `bson:"user" json:"user"`
	LastMessage Message   `bson:"last_message" json:"last_message"`
	UnreadCount int64     `bson:"unread_count" json:"unread_count"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
