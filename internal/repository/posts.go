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

// Posts persists forum threads
type Posts struct {
	col *mongo.Collection
}

// NewPosts creates the posts repository
func NewPosts(db *database.MongoDB) *Posts {
	return &Posts{col: db.Collection(database.ColPosts)}
}

// Create inserts a thread
func (r *Posts) Create(ctx context.Context, p *models.Post) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Replies == nil {
		p.Replies = []models.PostReply{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ByID fetches a thread
func (r *Posts) ByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByCollege returns the college's threads, newest first, with an
// optional case-insensitive title/body search.
func (r *Posts) ListByCollege(ctx context.Context, college, query string) ([]models.Post, error) {
	filter := bson.M{"college": college}
	if query != "" {
		pattern := regexQuote(query)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"body": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Update applies a $set patch and bumps updated_at
func (r *Posts) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now()
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReply pushes a reply under the thread
func (r *Posts) AddReply(ctx context.Context, postID primitive.ObjectID, reply models.PostReply) error {
	res, err := r.col.UpdateByID(ctx, postID, bson.M{
		"$push": bson.M{"replies": reply},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateReply edits the text of one reply, matched by id and author
func (r *Posts) UpdateReply(ctx context.Context, postID, replyID, author primitive.ObjectID, text string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id": postID,
			"replies": bson.M{"$elemMatch": bson.M{
				"_id":    replyID,
				"author": author,
			}},
		},
		bson.M{"$set": bson.M{
			"replies.$.text": text,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReply pulls one reply out of the thread
func (r *Posts) DeleteReply(ctx context.Context, postID, replyID primitive.ObjectID) error {
	res, err := r.col.UpdateByID(ctx, postID, bson.M{
		"$pull": bson.M{"replies": bson.M{"_id": replyID}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a thread
func (r *Posts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByAuthor removes every thread of a purged account
func (r *Posts) DeleteByAuthor(ctx context.Context, author primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"author": author})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteExpired removes threads past their valid_till
func (r *Posts) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{
		"valid_till": bson.M{"$lt": now},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
