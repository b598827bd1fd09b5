package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactMessage is a support inquiry, kept 30 days via TTL index
type ContactMessage struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string              `bson:"name" json:"name"`
	Email     string              `bson:"email" json:"email"`
	Subject   string              `bson:"subject,omitempty" json:"subject,omitempty"`
	Body      string              `bson:"body" json:"body"`
	Handled   bool                `bson:"handled" json:"handled"`
	HandledBy *primitive.ObjectID `bson:"handled_by,omitempty" json:"handled_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
