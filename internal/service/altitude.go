package service

import (
	"context"
	"fmt"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/stats"
)

// DefaultTopUsers is the conventional size of the altitude ranking
const DefaultTopUsers = 20

// AltitudeGain ranks users by the sum of positive altitude deltas between
// consecutive samples of the same activity. limit <= 0 returns every user.
func (s *QueryService) AltitudeGain(ctx context.Context, limit int) ([]models.UserTotal, error) {
	users, err := s.store.GetUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	partials, err := fanOut(ctx, s.parallelism, users, func(ctx context.Context, shard []int64) (*stats.Totals, error) {
		totals := stats.NewTotals()
		for _, id := range shard {
			samples, err := s.store.GetUserAltitudes(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load altitudes of user %d: %w", id, err)
			}
			totals.Add(id, altitudeGain(samples))
		}
		return totals, nil
	})
	if err != nil {
		return nil, err
	}

	totals := stats.NewTotals()
	for _, p := range partials {
		totals.Merge(p)
	}

	return totals.Ranked(limit), nil
}

// altitudeGain never compares samples of two different activities
func altitudeGain(samples []repository.AltitudeSample) float64 {
	var gain float64
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if prev.ActivityID != cur.ActivityID {
			continue
		}
		if cur.Altitude > prev.Altitude {
			gain += cur.Altitude - prev.Altitude
		}
	}
	return gain
}
