package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType distinguishes the event that produced a notification
type NotificationType string

const (
	NotifyFriendRequest  NotificationType = "friend_request"
	NotifyFriendAccepted NotificationType = "friend_accepted"
	NotifyForumReply     NotificationType = "forum_reply"
	NotifyItemComment    NotificationType = "item_comment"
	NotifyItemReply      NotificationType = "item_reply"
	NotifyTripRequest    NotificationType = "trip_request"
	NotifyTripApproved   NotificationType = "trip_approved"
	NotifyModeration     NotificationType = "moderation"
	NotifyVerification   NotificationType = "verification"
)

// Notification is delivered in-app and expires via a 30 day TTL index
// on CreatedAt.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID  `bson:"user" json:"user"`
	Type      NotificationType    `bson:"type" json:"type"`
	Text      string              `bson:"text" json:"text"`
	Link      string              `bson:"link,omitempty" json:"link,omitempty"`
	Actor     *primitive.ObjectID `bson:"actor,omitempty" json:"actor,omitempty"`
	IsRead    bool                `bson:"is_read" json:"is_read"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
