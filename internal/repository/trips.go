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

// Trips persists shared-ride postings
type Trips struct {
	col *mongo.Collection
}

// NewTrips creates the trips repository
func NewTrips(db *database.MongoDB) *Trips {
	return &Trips{col: db.Collection(database.ColTrips)}
}

// Create inserts a trip
func (r *Trips) Create(ctx context.Context, t *models.Trip) error {
	t.CreatedAt = time.Now()
	if t.Members == nil {
		t.Members = []primitive.ObjectID{}
	}
	if t.Requests == nil {
		t.Requests = []models.TripRequest{}
	}
	res, err := r.col.InsertOne(ctx, t)
	if err != nil {
		return err
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ByID fetches a trip
func (r *Trips) ByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	var t models.Trip
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByCollege returns the college's live trips, soonest departure
// first. Expired trips are excluded.
func (r *Trips) ListByCollege(ctx context.Context, college string) ([]models.Trip, error) {
	filter := bson.M{
		"college":    college,
		"valid_till": bson.M{"$gt": time.Now()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "depart_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	trips := []models.Trip{}
	if err := cur.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// AddRequest records a pending join request, once per user
func (r *Trips) AddRequest(ctx context.Context, tripID, userID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": tripID, "requests.user": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"requests": models.TripRequest{
			User:        userID,
			RequestedAt: time.Now(),
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Approve moves a requester into members
func (r *Trips) Approve(ctx context.Context, tripID, userID primitive.ObjectID) error {
	res, err := r.col.UpdateByID(ctx, tripID, bson.M{
		"$pull":     bson.M{"requests": bson.M{"user": userID}},
		"$addToSet": bson.M{"members": userID},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveRequest drops a pending request without approving it
func (r *Trips) RemoveRequest(ctx context.Context, tripID, userID primitive.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, tripID, bson.M{
		"$pull": bson.M{"requests": bson.M{"user": userID}},
	})
	return err
}

// Delete removes a trip
func (r *Trips) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByOrganizer removes every trip of a purged account
func (r *Trips) DeleteByOrganizer(ctx context.Context, organizer primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"organizer": organizer})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
