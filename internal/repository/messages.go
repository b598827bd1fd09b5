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

// Messages persists direct messages
type Messages struct {
	col *mongo.Collection
}

// NewMessages creates the messages repository
func NewMessages(db *database.MongoDB) *Messages {
	return &Messages{col: db.Collection(database.ColMessages)}
}

// Insert stores a new message and returns it with id and timestamp set
func (r *Messages) Insert(ctx context.Context, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	res, err := r.col.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// History returns the conversation between two users, oldest first
func (r *Messages) History(ctx context.Context, a, b primitive.ObjectID, limit int64) ([]models.Message, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender": a, "receiver": b},
			{"sender": b, "receiver": a},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := []models.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkConversationRead stamps read_at on every unread message from
// sender to reader and returns how many were flipped. A second call
// with the same pair matches nothing, so repeats are harmless.
func (r *Messages) MarkConversationRead(ctx context.Context, sender, reader primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{
			"sender":   sender,
			"receiver": reader,
			"read_at":  nil,
		},
		bson.M{"$set": bson.M{"read_at": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// UnreadCount counts unread messages addressed to the user
func (r *Messages) UnreadCount(ctx context.Context, user primitive.ObjectID) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{
		"receiver": user,
		"read_at":  nil,
	})
}

// UnreadSenders returns the distinct senders with unread messages to
// the user, used to badge inbox rows.
func (r *Messages) UnreadSenders(ctx context.Context, user primitive.ObjectID) ([]primitive.ObjectID, error) {
	raw, err := r.col.Distinct(ctx, "sender", bson.M{
		"receiver": user,
		"read_at":  nil,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Inbox aggregates one row per conversation partner: the latest
// message, the partner's identity, and the unread count, newest first.
func (r *Messages) Inbox(ctx context.Context, user primitive.ObjectID) ([]models.ChatPreview, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$or": []bson.M{{"sender": user}, {"receiver": user}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$addFields", Value: bson.M{
			"counterpart": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$sender", user}},
				"$receiver",
				"$sender",
			}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$counterpart",
			"last_message": bson.M{"$first": "$$ROOT"},
			"unread_count": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$receiver", user}},
					bson.M{"$eq": bson.A{"$read_at", nil}},
				}},
				1,
				0,
			}}},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.ColUsers,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user_doc",
		}}},
		{{Key: "$unwind", Value: "$user_doc"}},
		{{Key: "$project", Value: bson.M{
			"user": bson.M{
				"_id":         "$user_doc._id",
				"name":        "$user_doc.name",
				"email":       "$user_doc.email",
				"profile_pic": "$user_doc.profile_pic",
			},
			"last_message": 1,
			"unread_count": 1,
			"updated_at":   "$last_message.created_at",
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "updated_at", Value: -1}}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	previews := []models.ChatPreview{}
	if err := cur.All(ctx, &previews); err != nil {
		return nil, err
	}
	return previews, nil
}

// DeleteByUser removes every message the user sent, used when a
// moderator purges a banned account.
func (r *Messages) DeleteByUser(ctx context.Context, user primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"sender": user})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
