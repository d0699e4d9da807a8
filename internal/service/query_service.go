package service

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/spatial"
)

// QueryStore is the read side the analytical queries run against
type QueryStore interface {
	FindActivityIDs(ctx context.Context, filter models.DistanceFilter) ([]int64, error)
	GetUserIDs(ctx context.Context) ([]int64, error)
	GetActivities(ctx context.Context) ([]models.Activity, error)
	GetActivityPath(ctx context.Context, activityID int64) ([]spatial.Point, error)
	GetUserAltitudes(ctx context.Context, userID int64) ([]repository.AltitudeSample, error)
	ActivityTimestamps(ctx context.Context, activityID int64) iter.Seq2[time.Time, error]
	FindUsersInBox(ctx context.Context, box spatial.BoundingBox) ([]int64, error)
	UserPointsInBox(ctx context.Context, userID int64, box spatial.BoundingBox) iter.Seq2[spatial.Point, error]
}

// QueryService answers the four analytical queries. All of them are read
// only and may run concurrently.
type QueryService struct {
	store       QueryStore
	parallelism int
	log         *zap.Logger
}

// NewQueryService creates a new query service fanning out over at most
// parallelism concurrent reads
func NewQueryService(store QueryStore, parallelism int, log *zap.Logger) *QueryService {
	if parallelism < 1 {
		parallelism = 1
	}
	return &QueryService{store: store, parallelism: parallelism, log: log}
}

// shards splits items into at most n contiguous, non-empty parts
func shards[T any](items []T, n int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}
	size := (len(items) + n - 1) / n

	out := make([][]T, 0, n)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

// fanOut runs fn once per shard of items and returns the per-shard results
// in shard order
func fanOut[T, R any](ctx context.Context, parallelism int, items []T, fn func(ctx context.Context, shard []T) (R, error)) ([]R, error) {
	parts := shards(items, parallelism)
	results := make([]R, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			r, err := fn(gctx, part)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
