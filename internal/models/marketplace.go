package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemStatus is the lifecycle state of a marketplace listing
type ItemStatus string

const (
	ItemAvailable ItemStatus = "AVAILABLE"
	ItemReserved  ItemStatus = "RESERVED"
	ItemSold      ItemStatus = "SOLD"
)

// ValidItemStatus reports whether s is a known lifecycle state
func ValidItemStatus(s ItemStatus) bool {
	return s == ItemAvailable || s == ItemReserved || s == ItemSold
}

// ItemComment is a buyer question on a listing, with threaded replies
type ItemComment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	Replies   []ItemReply        `bson:"replies" json:"replies"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// ItemReply is a reply under an item comment
type ItemReply struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Item is a marketplace listing scoped to the seller's college
type Item struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Seller      primitive.ObjectID  `bson:"seller" json:"seller"`
	College     string              `bson:"college" json:"college"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Price       float64             `bson:"price" json:"price"`
	Images      []string            `bson:"images" json:"images"`
	Status      ItemStatus          `bson:"status" json:"status"`
	ReservedAt  *time.Time          `bson:"reserved_at,omitempty" json:"reserved_at,omitempty"`
	ReservedFor *primitive.ObjectID `bson:"reserved_for,omitempty" json:"reserved_for,omitempty"`
	ValidTill   *time.Time          `bson:"valid_till,omitempty" json:"valid_till,omitempty"`
	Comments    []ItemComment       `bson:"comments" json:"comments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
