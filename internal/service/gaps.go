package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/stats"
)

// DefaultGapThreshold is the smallest gap that makes an activity invalid
const DefaultGapThreshold = 5 * time.Minute

// InvalidActivities counts, per user, the activities that contain at least
// one pair of consecutive samples threshold or more apart. Users without
// invalid activities are left out.
func (s *QueryService) InvalidActivities(ctx context.Context, threshold time.Duration) ([]models.UserCount, error) {
	if threshold <= 0 {
		threshold = DefaultGapThreshold
	}

	activities, err := s.store.GetActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	partials, err := fanOut(ctx, s.parallelism, activities, func(ctx context.Context, shard []models.Activity) (stats.Counts, error) {
		counts := stats.Counts{}
		for _, a := range shard {
			invalid, err := hasGap(s.store.ActivityTimestamps(ctx, a.ID), threshold)
			if err != nil {
				return nil, fmt.Errorf("failed to scan activity %d: %w", a.ID, err)
			}
			if invalid {
				counts.Inc(a.UserID)
			}
		}
		return counts, nil
	})
	if err != nil {
		return nil, err
	}

	counts := stats.Counts{}
	for _, p := range partials {
		counts.Merge(p)
	}

	return counts.NonZero(), nil
}

// hasGap stops reading at the first gap of at least threshold
func hasGap(timestamps iter.Seq2[time.Time, error], threshold time.Duration) (bool, error) {
	var prev time.Time
	first := true
	for ts, err := range timestamps {
		if err != nil {
			return false, err
		}
		if !first && ts.Sub(prev) >= threshold {
			return true, nil
		}
		prev, first = ts, false
	}
	return false, nil
}
