package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripRequest is a pending join request on a trip
type TripRequest struct {
	User        primitive.ObjectID `bson:"user" json:"user"`
	RequestedAt time.Time          `bson:"requested_at" json:"requested_at"`
}

// Trip is a shared-ride posting. Organizer approves join requests
// until Capacity is reached; expired trips stop accepting requests.
type Trip struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Organizer   primitive.ObjectID   `bson:"organizer" json:"organizer"`
	College     string               `bson:"college" json:"college"`
	From        string               `bson:"from" json:"from"`
	To          string               `bson:"to" json:"to"`
	DepartAt    time.Time            `bson:"depart_at" json:"depart_at"`
	Capacity    int                  `bson:"capacity" json:"capacity"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Requests    []TripRequest        `bson:"requests" json:"requests"`
	ValidTill   time.Time            `bson:"valid_till" json:"valid_till"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsFull reports whether the trip has reached capacity. The organizer
// occupies one seat.
func (t *Trip) IsFull() bool {
	return len(t.Members)+1 >= t.Capacity
}

// HasMember reports whether the user already joined
func (t *Trip) HasMember(id primitive.ObjectID) bool {
	for _, m := range t.Members {
		if m == id {
			return true
		}
	}
	return false
}

// HasRequest reports whether the user has a pending join request
func (t *Trip) HasRequest(id primitive.ObjectID) bool {
	for _, r := range t.Requests {
		if r.User == id {
			return true
		}
	}
	return false
}
