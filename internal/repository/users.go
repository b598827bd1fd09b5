// Package repository implements MongoDB-backed persistence for every
// document collection.
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

// ErrNotFound is returned when a document does not exist
var ErrNotFound = mongo.ErrNoDocuments

// IsNotFound reports whether err is the missing-document sentinel
func IsNotFound(err error) bool {
	return err == mongo.ErrNoDocuments
}

// Users persists accounts and the friend graph
type Users struct {
	col *mongo.Collection
}

// NewUsers creates the users repository
func NewUsers(db *database.MongoDB) *Users {
	return &Users{col: db.Collection(database.ColUsers)}
}

// Create inserts a new account and returns its id
func (r *Users) Create(ctx context.Context, u *models.User) (primitive.ObjectID, error) {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Friends == nil {
		u.Friends = []primitive.ObjectID{}
	}
	if u.BlockedUsers == nil {
		u.BlockedUsers = []primitive.ObjectID{}
	}
	if u.FriendRequestsSent == nil {
		u.FriendRequestsSent = []primitive.ObjectID{}
	}
	if u.FriendRequestsReceived == nil {
		u.FriendRequestsReceived = []primitive.ObjectID{}
	}

	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	u.ID = id
	return id, nil
}

// ByID fetches a user by object id
func (r *Users) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByEmail fetches a user by email
func (r *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByVerificationCode fetches a user holding the given email token
func (r *Users) ByVerificationCode(ctx context.Context, code string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{
		"verification_code":    code,
		"verification_expires": bson.M{"$gt": time.Now()},
	}).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByResetToken fetches a user holding a live password-reset token
func (r *Users) ByResetToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{
		"reset_password_token":   token,
		"reset_password_expires": bson.M{"$gt": time.Now()},
	}).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies a $set patch and bumps updated_at
func (r *Users) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now()
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Unset removes fields, used to clear consumed tokens
func (r *Users) Unset(ctx context.Context, id primitive.ObjectID, fields ...string) error {
	unset := bson.M{}
	for _, f := range fields {
		unset[f] = ""
	}
	_, err := r.col.UpdateByID(ctx, id, bson.M{
		"$unset": unset,
		"$set":   bson.M{"updated_at": time.Now()},
	})
	return err
}

// graph mutations are $addToSet/$pull so repeats are harmless

// AddToSet pushes id into the named array field if absent
func (r *Users) AddToSet(ctx context.Context, userID primitive.ObjectID, field string, value primitive.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{field: value},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

// Pull removes id from the named array field
func (r *Users) Pull(ctx context.Context, userID primitive.ObjectID, field string, value primitive.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{field: value},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// Refs resolves a set of ids to embeddable summaries, preserving no
// particular order.
func (r *Users) Refs(ctx context.Context, ids []primitive.ObjectID) ([]models.UserRef, error) {
	if len(ids) == 0 {
		return []models.UserRef{}, nil
	}
	opts := options.Find().SetProjection(bson.M{
		"name": 1, "email": 1, "profile_pic": 1,
	})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	refs := []models.UserRef{}
	if err := cur.All(ctx, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// BlockersOf returns the ids of users who have blocked the given user
func (r *Users) BlockersOf(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"blocked_users": id},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// SearchByCollege lists verified, unbanned users of a college matching
// the name prefix.
func (r *Users) SearchByCollege(ctx context.Context, college, query string, limit int64) ([]models.UserRef, error) {
	filter := bson.M{
		"college":             college,
		"is_banned":           false,
		"verification.status": models.VerificationVerified,
	}
	if query != "" {
		filter["name"] = bson.M{"$regex": regexQuote(query), "$options": "i"}
	}
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "email": 1, "profile_pic": 1}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	refs := []models.UserRef{}
	if err := cur.All(ctx, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// PendingVerifications lists users awaiting moderator review
func (r *Users) PendingVerifications(ctx context.Context, college string) ([]models.User, error) {
	filter := bson.M{"verification.status": models.VerificationPending}
	if college != "" {
		filter["college"] = college
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Banned lists banned accounts
func (r *Users) Banned(ctx context.Context) ([]models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"is_banned": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
