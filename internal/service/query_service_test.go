package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jengzang/geolife-backend-go/internal/config"
	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/spatial"
)

var t0 = time.Date(2008, 6, 1, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type sample struct {
	lat, lon float64
	alt      *float64
	offset   time.Duration
}

func activityOf(mode *string, start time.Time, samples ...sample) models.ActivityBatch {
	points := make([]models.TrackPoint, len(samples))
	for i, s := range samples {
		points[i] = models.TrackPoint{Lat: s.lat, Lon: s.lon, Altitude: s.alt, Timestamp: start.Add(s.offset)}
	}
	return models.ActivityBatch{
		Activity: models.Activity{
			TransportationMode: mode,
			StartTime:          points[0].Timestamp,
			EndTime:            points[len(points)-1].Timestamp,
		},
		Points: points,
	}
}

func newTestService(t *testing.T, batches ...models.UserBatch) *QueryService {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:   database.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "geolife_test.db"),
		MaxConns: 4,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	writer := repository.NewIngestRepository(db, false)
	for _, b := range batches {
		require.NoError(t, writer.SaveUserBatch(ctx, b))
	}

	return NewQueryService(repository.NewQueryRepository(db), 3, zap.NewNop())
}

func TestShards(t *testing.T) {
	assert.Nil(t, shards([]int{}, 4))
	assert.Equal(t, [][]int{{1}, {2}}, shards([]int{1, 2}, 8))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, shards([]int{1, 2, 3, 4, 5}, 3))
	assert.Equal(t, [][]int{{1, 2, 3}}, shards([]int{1, 2, 3}, 0))
}

func TestTotalDistance(t *testing.T) {
	svc := newTestService(t,
		models.UserBatch{
			User: models.User{ID: 112, HasLabels: true},
			Activities: []models.ActivityBatch{
				// stored out of time order on purpose: the query must sort by timestamp
				activityOf(ptr("walk"), t0,
					sample{lat: 0, lon: 0, offset: 0},
					sample{lat: 2, lon: 0, offset: 2 * time.Minute},
					sample{lat: 1, lon: 0, offset: time.Minute},
				),
				activityOf(ptr("walk"), t0.Add(time.Hour), sample{lat: 5, lon: 5}),
				activityOf(ptr("bus"), t0, sample{lat: 0, lon: 0}, sample{lat: 10, lon: 0, offset: time.Minute}),
				activityOf(ptr("walk"), t0.AddDate(1, 0, 0), sample{lat: 0, lon: 0}, sample{lat: 10, lon: 0, offset: time.Minute}),
			},
		},
		models.UserBatch{
			User:       models.User{ID: 113},
			Activities: []models.ActivityBatch{activityOf(ptr("walk"), t0, sample{lat: 0, lon: 0}, sample{lat: 10, lon: 0, offset: time.Minute})},
		},
	)

	result, err := svc.TotalDistance(context.Background(), models.DistanceFilter{UserID: 112, Mode: "walk", Year: 2008})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Activities)
	assert.InDelta(t, 2*111.195, result.TotalKm, 0.01)

	result, err = svc.TotalDistance(context.Background(), models.DistanceFilter{UserID: 112, Mode: "car", Year: 2008})
	require.NoError(t, err)
	assert.Zero(t, result.TotalKm)
}

func TestAltitudeGainOnlyPositiveDeltas(t *testing.T) {
	samples := []repository.AltitudeSample{
		{ActivityID: 1, Altitude: 100},
		{ActivityID: 1, Altitude: 90},
		{ActivityID: 1, Altitude: 120},
	}
	assert.Equal(t, 30.0, altitudeGain(samples))
	assert.Zero(t, altitudeGain(nil))
}

func TestAltitudeGainResetsBetweenActivities(t *testing.T) {
	samples := []repository.AltitudeSample{
		{ActivityID: 1, Altitude: 10},
		{ActivityID: 1, Altitude: 20},
		{ActivityID: 2, Altitude: 500},
		{ActivityID: 2, Altitude: 505},
	}
	assert.Equal(t, 15.0, altitudeGain(samples))
}

func TestAltitudeGainRanking(t *testing.T) {
	svc := newTestService(t,
		models.UserBatch{
			User: models.User{ID: 1},
			Activities: []models.ActivityBatch{
				activityOf(nil, t0,
					sample{alt: ptr(100.0)},
					sample{alt: ptr(90.0), offset: time.Second},
					sample{alt: nil, offset: 2 * time.Second},
					sample{alt: ptr(120.0), offset: 3 * time.Second},
				),
			},
		},
		models.UserBatch{
			User: models.User{ID: 2},
			Activities: []models.ActivityBatch{
				activityOf(nil, t0, sample{alt: ptr(10.0)}, sample{alt: ptr(60.0), offset: time.Second}),
				activityOf(nil, t0, sample{alt: ptr(1000.0)}, sample{alt: ptr(1010.0), offset: time.Second}),
			},
		},
		models.UserBatch{User: models.User{ID: 3}},
		models.UserBatch{
			User:       models.User{ID: 4},
			Activities: []models.ActivityBatch{activityOf(nil, t0, sample{alt: ptr(0.0)}, sample{alt: ptr(30.0), offset: time.Second})},
		},
	)

	ranked, err := svc.AltitudeGain(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []models.UserTotal{
		{UserID: 2, Total: 60},
		{UserID: 1, Total: 30},
		{UserID: 4, Total: 30},
		{UserID: 3, Total: 0},
	}, ranked)

	top, err := svc.AltitudeGain(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestHasGapThreshold(t *testing.T) {
	seq := func(offsets ...time.Duration) func(func(time.Time, error) bool) {
		return func(yield func(time.Time, error) bool) {
			for _, o := range offsets {
				if !yield(t0.Add(o), nil) {
					return
				}
			}
		}
	}

	invalid, err := hasGap(seq(0, time.Minute, 6*time.Minute), DefaultGapThreshold)
	require.NoError(t, err)
	assert.True(t, invalid, "exactly five minutes is a gap")

	invalid, err = hasGap(seq(0, 4*time.Minute+59*time.Second, 9*time.Minute+58*time.Second), DefaultGapThreshold)
	require.NoError(t, err)
	assert.False(t, invalid)

	invalid, err = hasGap(seq(), DefaultGapThreshold)
	require.NoError(t, err)
	assert.False(t, invalid)
}

func TestHasGapStopsAtFirstGap(t *testing.T) {
	read := 0
	seq := func(yield func(time.Time, error) bool) {
		for i := 0; i < 100; i++ {
			read++
			if !yield(t0.Add(time.Duration(i)*10*time.Minute), nil) {
				return
			}
		}
	}

	invalid, err := hasGap(seq, DefaultGapThreshold)
	require.NoError(t, err)
	assert.True(t, invalid)
	assert.Equal(t, 2, read)
}

func TestInvalidActivities(t *testing.T) {
	svc := newTestService(t,
		models.UserBatch{
			User: models.User{ID: 1},
			Activities: []models.ActivityBatch{
				// two gaps in one activity still count once
				activityOf(nil, t0, sample{}, sample{offset: 5 * time.Minute}, sample{offset: 20 * time.Minute}),
				activityOf(nil, t0, sample{}, sample{offset: 10 * time.Minute}),
				activityOf(nil, t0, sample{}, sample{offset: time.Minute}),
			},
		},
		models.UserBatch{
			User:       models.User{ID: 2},
			Activities: []models.ActivityBatch{activityOf(nil, t0, sample{}, sample{offset: 4 * time.Minute})},
		},
		models.UserBatch{
			User:       models.User{ID: 3},
			Activities: []models.ActivityBatch{activityOf(nil, t0, sample{}, sample{offset: time.Hour})},
		},
	)

	counts, err := svc.InvalidActivities(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []models.UserCount{
		{UserID: 1, Count: 2},
		{UserID: 3, Count: 1},
	}, counts)
}

func TestUsersNearby(t *testing.T) {
	svc := newTestService(t,
		models.UserBatch{
			User:       models.User{ID: 1},
			Activities: []models.ActivityBatch{activityOf(nil, t0, sample{lat: 39.916, lon: 116.397})},
		},
		models.UserBatch{
			// inside the prefilter box but about 125 m away
			User:       models.User{ID: 2},
			Activities: []models.ActivityBatch{activityOf(nil, t0, sample{lat: 39.9169, lon: 116.3979})},
		},
		models.UserBatch{
			User:       models.User{ID: 3},
			Activities: []models.ActivityBatch{activityOf(nil, t0, sample{lat: 39.9175, lon: 116.397})},
		},
		models.UserBatch{
			User: models.User{ID: 4},
			Activities: []models.ActivityBatch{
				activityOf(nil, t0, sample{lat: 39.9175, lon: 116.397}),
				activityOf(nil, t0, sample{lat: 39.9163, lon: 116.3972}),
			},
		},
	)

	users, err := svc.UsersNearby(context.Background(), DefaultRadiusQuery())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, users)
}

func TestAnyWithin(t *testing.T) {
	center := spatial.Point{Lat: DefaultCenterLat, Lon: DefaultCenterLon}
	points := func(ps ...spatial.Point) func(func(spatial.Point, error) bool) {
		return func(yield func(spatial.Point, error) bool) {
			for _, p := range ps {
				if !yield(p, nil) {
					return
				}
			}
		}
	}

	box := spatial.BoxAround(center, DefaultBoxMargin)

	ok, err := anyWithin(points(center), box, center, DefaultRadiusMeters)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = anyWithin(points(spatial.Point{Lat: 39.9175, Lon: 116.397}), box, center, DefaultRadiusMeters)
	require.NoError(t, err)
	assert.False(t, ok)

	// about 556 m north: inside a 1 km radius but outside the box
	far := spatial.Point{Lat: 39.921, Lon: 116.397}
	ok, err = anyWithin(points(far), box, center, 1000)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = anyWithin(points(far), spatial.BoxAround(center, 0.01), center, 1000)
	require.NoError(t, err)
	assert.True(t, ok)
}
