package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostReply is a reply under a forum post
type PostReply struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Post is a forum thread scoped to the author's college.
// Posts with a ValidTill in the past are swept by housekeeping.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	College   string             `bson:"college" json:"college"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Tags      []string           `bson:"tags" json:"tags"`
	ValidTill *time.Time         `bson:"valid_till,omitempty" json:"valid_till,omitempty"`
	Replies   []PostReply        `bson:"replies" json:"replies"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
