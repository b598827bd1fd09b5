package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/collegeconnect/backend/internal/database"
	"github.com/collegeconnect/backend/internal/models"
)

// Colleges persists the college directory
type Colleges struct {
	col *mongo.Collection
}

// NewColleges creates the colleges repository
func NewColleges(db *database.MongoDB) *Colleges {
	return &Colleges{col: db.Collection(database.ColColleges)}
}

// Create inserts a directory entry
func (r *Colleges) Create(ctx context.Context, c *models.College) error {
	c.CreatedAt = time.Now()
	if c.EmailDomains == nil {
		c.EmailDomains = []string{}
	}
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ByName fetches a college by exact name
func (r *Colleges) ByName(ctx context.Context, name string) (*models.College, error) {
	var c models.College
	if err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ByEmailDomain resolves the college owning the address domain
func (r *Colleges) ByEmailDomain(ctx context.Context, email string) (*models.College, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return nil, mongo.ErrNoDocuments
	}
	domain := strings.ToLower(email[at+1:])

	var c models.College
	if err := r.col.FindOne(ctx, bson.M{"email_domains": domain}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Search lists colleges by name prefix, alphabetical
func (r *Colleges) Search(ctx context.Context, query string, limit int64) ([]models.College, error) {
	filter := bson.M{}
	if query != "" {
		filter["name"] = bson.M{"$regex": regexQuote(query), "$options": "i"}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	colleges := []models.College{}
	if err := cur.All(ctx, &colleges); err != nil {
		return nil, err
	}
	return colleges, nil
}

// Count returns the directory size, used to decide whether to seed
func (r *Colleges) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
