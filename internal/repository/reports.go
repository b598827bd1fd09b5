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

// Reports persists moderation reports
type Reports struct {
	col *mongo.Collection
}

// NewReports creates the reports repository
func NewReports(db *database.MongoDB) *Reports {
	return &Reports{col: db.Collection(database.ColReports)}
}

// Create files a report
func (r *Reports) Create(ctx context.Context, rep *models.Report) error {
	rep.CreatedAt = time.Now()
	rep.Status = models.ReportOpen
	res, err := r.col.InsertOne(ctx, rep)
	if err != nil {
		return err
	}
	rep.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ByID fetches a report
func (r *Reports) ByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var rep models.Report
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListOpen returns open reports for the moderator's college, newest
// first. An empty college matches all.
func (r *Reports) ListOpen(ctx context.Context, college string) ([]models.Report, error) {
	filter := bson.M{"status": models.ReportOpen}
	if college != "" {
		filter["college"] = college
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	reports := []models.Report{}
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ResolveByTarget closes every open report against the target, used
// when a ban actions them all at once.
func (r *Reports) ResolveByTarget(ctx context.Context, target primitive.ObjectID, reviewer primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"target_id": target, "status": models.ReportOpen},
		bson.M{"$set": bson.M{
			"status":      models.ReportResolved,
			"reviewed_by": reviewer,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Resolve closes a report with the given status and reviewer
func (r *Reports) Resolve(ctx context.Context, id primitive.ObjectID, status models.ReportStatus, reviewer primitive.ObjectID) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status":      status,
			"reviewed_by": reviewer,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
