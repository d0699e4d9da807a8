package service

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/spatial"
)

// Radius search defaults: 100 m around the Forbidden City
const (
	DefaultCenterLat    = 39.916
	DefaultCenterLon    = 116.397
	DefaultRadiusMeters = 100.0
	DefaultBoxMargin    = 0.001 // degrees
)

// RadiusQuery describes a geofence
type RadiusQuery struct {
	Center       models.GeoPoint `json:"center"`
	RadiusMeters float64         `json:"radiusMeters"`
	Margin       float64         `json:"margin"` // prefilter half-width in degrees
}

// DefaultRadiusQuery returns the Forbidden City geofence
func DefaultRadiusQuery() RadiusQuery {
	return RadiusQuery{
		Center:       models.GeoPoint{Lat: DefaultCenterLat, Lon: DefaultCenterLon},
		RadiusMeters: DefaultRadiusMeters,
		Margin:       DefaultBoxMargin,
	}
}

// UsersNearby returns, in ascending order, the users with at least one
// track point within q.RadiusMeters of q.Center.
//
// A flat bounding box of ±q.Margin degrees narrows the candidate users; the
// Haversine distance of each candidate's points inside the box decides.
func (s *QueryService) UsersNearby(ctx context.Context, q RadiusQuery) ([]int64, error) {
	if q.Margin <= 0 {
		q.Margin = DefaultBoxMargin
	}
	center := spatial.Point{Lat: q.Center.Lat, Lon: q.Center.Lon}
	box := spatial.BoxAround(center, q.Margin)

	candidates, err := s.store.FindUsersInBox(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("failed to prefilter users: %w", err)
	}

	partials, err := fanOut(ctx, s.parallelism, candidates, func(ctx context.Context, shard []int64) ([]int64, error) {
		var hits []int64
		for _, id := range shard {
			ok, err := anyWithin(s.store.UserPointsInBox(ctx, id, box), box, center, q.RadiusMeters)
			if err != nil {
				return nil, fmt.Errorf("failed to scan points of user %d: %w", id, err)
			}
			if ok {
				hits = append(hits, id)
			}
		}
		return hits, nil
	})
	if err != nil {
		return nil, err
	}

	users := []int64{}
	for _, p := range partials {
		users = append(users, p...)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	return users, nil
}

// anyWithin stops reading at the first point inside both box and radius
func anyWithin(points iter.Seq2[spatial.Point, error], box spatial.BoundingBox, center spatial.Point, radiusMeters float64) (bool, error) {
	for p, err := range points {
		if err != nil {
			return false, err
		}
		if box.Contains(p) && spatial.HaversineDistance(p.Lat, p.Lon, center.Lat, center.Lon) <= radiusMeters {
			return true, nil
		}
	}
	return false, nil
}
