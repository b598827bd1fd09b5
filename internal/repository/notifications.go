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

// Notifications persists in-app notifications
type Notifications struct {
	col *mongo.Collection
}

// NewNotifications creates the notifications repository
func NewNotifications(db *database.MongoDB) *Notifications {
	return &Notifications{col: db.Collection(database.ColNotifications)}
}

// Create inserts a notification for the user
func (r *Notifications) Create(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now()
	res, err := r.col.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	n.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListByUser returns the user's notifications, newest first
func (r *Notifications) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ns := []models.Notification{}
	if err := cur.All(ctx, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

// MarkRead flips one notification, scoped to the owner
func (r *Notifications) MarkRead(ctx context.Context, id, user primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "user": user},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkTypeRead flips every unread notification of one type. Viewing
// the pending friend-request list counts as reading those.
func (r *Notifications) MarkTypeRead(ctx context.Context, user primitive.ObjectID, t models.NotificationType) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"user": user, "type": t, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MarkAllRead flips every unread notification of the user
func (r *Notifications) MarkAllRead(ctx context.Context, user primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"user": user, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
