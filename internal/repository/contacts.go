package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/collegeconnect/backend/internal/database"
	"github.com/collegeconnect/backend/internal/models"
)

// Contacts persists support inquiries
type Contacts struct {
	col *mongo.Collection
}

// NewContacts creates the contacts repository
func NewContacts(db *database.MongoDB) *Contacts {
	return &Contacts{col: db.Collection(database.ColContacts)}
}

// Create stores an inquiry; the TTL index expires it after 30 days
func (r *Contacts) Create(ctx context.Context, c *models.ContactMessage) error {
	c.CreatedAt = time.Now()
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ByID fetches one inquiry
func (r *Contacts) ByID(ctx context.Context, id primitive.ObjectID) (*models.ContactMessage, error) {
	var m models.ContactMessage
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListPending returns unhandled inquiries, oldest first
func (r *Contacts) ListPending(ctx context.Context) ([]models.ContactMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"handled": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := []models.ContactMessage{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkHandled records which staff member dealt with the inquiry
func (r *Contacts) MarkHandled(ctx context.Context, id, by primitive.ObjectID) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"handled": true, "handled_by": by},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an inquiry before its TTL expiry
func (r *Contacts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
