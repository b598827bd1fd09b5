// Package housekeeping sweeps expired marketplace and forum content
// on a timer. Notifications and contact inquiries age out through
// MongoDB TTL indexes instead.
package housekeeping

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/metrics"
	"github.com/collegeconnect/backend/internal/repository"
)

const (
	defaultInterval = time.Hour

	// Reservations older than this go back on the market.
	staleReservationAge = 72 * time.Hour
)

// Cleaner runs the periodic sweeps
type Cleaner struct {
	items    *repository.Items
	posts    *repository.Posts
	interval time.Duration
}

// New creates a cleaner with the default hourly interval
func New(items *repository.Items, posts *repository.Posts) *Cleaner {
	return &Cleaner{items: items, posts: posts, interval: defaultInterval}
}

// WithInterval overrides the sweep interval, mainly for tests
func (c *Cleaner) WithInterval(d time.Duration) *Cleaner {
	c.interval = d
	return c
}

// Run sweeps once immediately and then on every tick until the
// context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	logger.Log.Info("housekeeping started", zap.Duration("interval", c.interval))

	c.Sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("housekeeping stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep releases stale reservations and deletes expired listings and
// threads. Each step is independent so one failure does not stop the
// others.
func (c *Cleaner) Sweep(ctx context.Context) {
	m := metrics.Get()
	now := time.Now()
	failed := false

	released, err := c.items.ReleaseStaleReservations(ctx, now.Add(-staleReservationAge))
	if err != nil {
		failed = true
		logger.Log.Error("stale reservation release failed", zap.Error(err))
	} else if released > 0 {
		m.CleanupDocsProcessed.WithLabelValues("reservations_released").Add(float64(released))
		logger.Log.Info("stale reservations released", zap.Int64("count", released))
	}

	items, err := c.items.DeleteExpired(ctx, now)
	if err != nil {
		failed = true
		logger.Log.Error("expired item sweep failed", zap.Error(err))
	} else if items > 0 {
		m.CleanupDocsProcessed.WithLabelValues("items_deleted").Add(float64(items))
		logger.Log.Info("expired items deleted", zap.Int64("count", items))
	}

	posts, err := c.posts.DeleteExpired(ctx, now)
	if err != nil {
		failed = true
		logger.Log.Error("expired post sweep failed", zap.Error(err))
	} else if posts > 0 {
		m.CleanupDocsProcessed.WithLabelValues("posts_deleted").Add(float64(posts))
		logger.Log.Info("expired posts deleted", zap.Int64("count", posts))
	}

	status := "ok"
	if failed {
		status = "error"
	}
	m.CleanupRunsTotal.WithLabelValues(status).Inc()
}
