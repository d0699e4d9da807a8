package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/spatial"
)

// TotalDistance sums the Haversine length in kilometers of every activity
// matching filter. Track points are visited in timestamp order.
func (s *QueryService) TotalDistance(ctx context.Context, filter models.DistanceFilter) (*models.DistanceResult, error) {
	ids, err := s.store.FindActivityIDs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find activities: %w", err)
	}

	partials, err := fanOut(ctx, s.parallelism, ids, func(ctx context.Context, shard []int64) (float64, error) {
		var km float64
		for _, id := range shard {
			path, err := s.store.GetActivityPath(ctx, id)
			if err != nil {
				return 0, fmt.Errorf("failed to load activity %d: %w", id, err)
			}
			km += spatial.PathLengthKm(path)
		}
		return km, nil
	})
	if err != nil {
		return nil, err
	}

	result := &models.DistanceResult{DistanceFilter: filter, Activities: len(ids)}
	for _, km := range partials {
		result.TotalKm += km
	}

	s.log.Debug("distance computed",
		zap.Int64("user_id", filter.UserID),
		zap.String("mode", filter.Mode),
		zap.Int("year", filter.Year),
		zap.Int("activities", len(ids)),
		zap.Float64("km", result.TotalKm))

	return result, nil
}
