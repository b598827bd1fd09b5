package housekeeping

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collegeconnect/backend/internal/database"
	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

func testDB(t *testing.T) *database.MongoDB {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, database.Config{
		URI:           uri,
		Name:          "collegeconnect_housekeeping_test",
		RetryCount:    1,
		RetryInterval: time.Second,
	})
	if err != nil {
		t.Skipf("Skipping housekeeping tests: database not available (%v)", err)
	}

	require.NoError(t, db.Database.Drop(ctx))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Database.Drop(ctx)
		db.Close(ctx)
	})
	return db
}

func TestSweep(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	items := repository.NewItems(db)
	posts := repository.NewPosts(db)
	seller := primitive.NewObjectID()

	staleReserved := &models.Item{Seller: seller, College: "Test U", Title: "stale reservation", Price: 10}
	freshReserved := &models.Item{Seller: seller, College: "Test U", Title: "fresh reservation", Price: 10}
	expired := &models.Item{Seller: seller, College: "Test U", Title: "expired listing", Price: 10}
	soldExpired := &models.Item{Seller: seller, College: "Test U", Title: "sold keeps history", Price: 10}
	for _, it := range []*models.Item{staleReserved, freshReserved, expired, soldExpired} {
		require.NoError(t, items.Create(ctx, it))
	}

	longAgo := time.Now().Add(-4 * 24 * time.Hour)
	recently := time.Now().Add(-time.Hour)
	yesterday := time.Now().Add(-24 * time.Hour)

	require.NoError(t, items.Update(ctx, staleReserved.ID, bson.M{"status": models.ItemReserved, "reserved_at": longAgo}))
	require.NoError(t, items.Update(ctx, freshReserved.ID, bson.M{"status": models.ItemReserved, "reserved_at": recently}))
	require.NoError(t, items.Update(ctx, expired.ID, bson.M{"valid_till": yesterday}))
	require.NoError(t, items.Update(ctx, soldExpired.ID, bson.M{"status": models.ItemSold, "valid_till": yesterday}))

	expiredPost := &models.Post{Author: seller, College: "Test U", Title: "old thread", Body: "x"}
	livePost := &models.Post{Author: seller, College: "Test U", Title: "live thread", Body: "x"}
	require.NoError(t, posts.Create(ctx, expiredPost))
	require.NoError(t, posts.Create(ctx, livePost))

	_, err := db.Collection(database.ColPosts).UpdateOne(ctx,
		bson.M{"_id": expiredPost.ID},
		bson.M{"$set": bson.M{"valid_till": yesterday}},
	)
	require.NoError(t, err)

	New(items, posts).Sweep(ctx)

	released, err := items.ByID(ctx, staleReserved.ID)
	require.NoError(t, err)
	require.Equal(t, models.ItemAvailable, released.Status)
	require.Nil(t, released.ReservedAt)

	stillReserved, err := items.ByID(ctx, freshReserved.ID)
	require.NoError(t, err)
	require.Equal(t, models.ItemReserved, stillReserved.Status)

	_, err = items.ByID(ctx, expired.ID)
	require.True(t, repository.IsNotFound(err))

	// Sold listings survive expiry for record keeping
	_, err = items.ByID(ctx, soldExpired.ID)
	require.NoError(t, err)

	_, err = posts.ByID(ctx, expiredPost.ID)
	require.True(t, repository.IsNotFound(err))
	_, err = posts.ByID(ctx, livePost.ID)
	require.NoError(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	db := testDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	cleaner := New(repository.NewItems(db), repository.NewPosts(db)).WithInterval(10 * time.Millisecond)
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleaner did not stop after cancel")
	}
}
