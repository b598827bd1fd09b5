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

// Items persists marketplace listings
type Items struct {
	col *mongo.Collection
}

// NewItems creates the items repository
func NewItems(db *database.MongoDB) *Items {
	return &Items{col: db.Collection(database.ColItems)}
}

// Create inserts a listing
func (r *Items) Create(ctx context.Context, item *models.Item) error {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Status = models.ItemAvailable
	if item.Comments == nil {
		item.Comments = []models.ItemComment{}
	}
	if item.Images == nil {
		item.Images = []string{}
	}
	res, err := r.col.InsertOne(ctx, item)
	if err != nil {
		return err
	}
	item.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ByID fetches a listing
func (r *Items) ByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	var item models.Item
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByCollege returns the college's listings, newest first.
// An empty status matches all states.
func (r *Items) ListByCollege(ctx context.Context, college string, status models.ItemStatus, query string) ([]models.Item, error) {
	filter := bson.M{"college": college}
	if status != "" {
		filter["status"] = status
	}
	if query != "" {
		filter["title"] = bson.M{"$regex": regexQuote(query), "$options": "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []models.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies a $set patch and bumps updated_at
func (r *Items) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now()
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// AddComment pushes a buyer question onto the listing
func (r *Items) AddComment(ctx context.Context, itemID primitive.ObjectID, c models.ItemComment) error {
	_, err := r.col.UpdateByID(ctx, itemID, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// AddReply pushes a reply under an existing comment
func (r *Items) AddReply(ctx context.Context, itemID, commentID primitive.ObjectID, reply models.ItemReply) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": itemID, "comments._id": commentID},
		bson.M{
			"$push": bson.M{"comments.$.replies": reply},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a listing
func (r *Items) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBySeller removes every listing of a purged account
func (r *Items) DeleteBySeller(ctx context.Context, seller primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"seller": seller})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ReleaseStaleReservations flips listings back to AVAILABLE when the
// reservation is older than the cutoff.
func (r *Items) ReleaseStaleReservations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{
			"status":      models.ItemReserved,
			"reserved_at": bson.M{"$lt": cutoff},
		},
		bson.M{
			"$set":   bson.M{"status": models.ItemAvailable, "updated_at": time.Now()},
			"$unset": bson.M{"reserved_at": "", "reserved_for": ""},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteExpired removes non-sold listings past their valid_till
func (r *Items) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{
		"valid_till": bson.M{"$lt": now},
		"status":     bson.M{"$ne": models.ItemSold},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
