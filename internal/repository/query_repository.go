package repository

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/spatial"
)

// QueryRepository handles the read side of the analytical queries
type QueryRepository struct {
	db *database.DB
}

// NewQueryRepository creates a new query repository
func NewQueryRepository(db *database.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// AltitudeSample is one altitude reading tagged with its activity
type AltitudeSample struct {
	ActivityID int64
	Altitude   float64
}

// FindActivityIDs returns the activities of a user with the given mode
// that started in the filter's year
func (r *QueryRepository) FindActivityIDs(ctx context.Context, filter models.DistanceFilter) ([]int64, error) {
	from, to := filter.YearRange()
	query := `SELECT id FROM activities
		WHERE user_id = ? AND transportation_mode = ?
		  AND start_time >= ? AND start_time < ?
		ORDER BY id`

	return collectInt64(ctx, r.db, query, filter.UserID, filter.Mode, from.Unix(), to.Unix())
}

// GetUserIDs returns every user id in ascending order
func (r *QueryRepository) GetUserIDs(ctx context.Context) ([]int64, error) {
	return collectInt64(ctx, r.db, `SELECT id FROM users ORDER BY id`)
}

// GetActivities returns id and owner of every activity
func (r *QueryRepository) GetActivities(ctx context.Context) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id FROM activities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

// GetActivityPath returns the positions of an activity ordered by time
func (r *QueryRepository) GetActivityPath(ctx context.Context, activityID int64) ([]spatial.Point, error) {
	var path []spatial.Point
	for p, err := range r.points(ctx, `SELECT lat, lon FROM track_points
		WHERE activity_id = ?
		ORDER BY recorded_at, id`, activityID) {
		if err != nil {
			return nil, err
		}
		path = append(path, p)
	}
	return path, nil
}

// GetUserAltitudes returns the known altitudes of a user's track points,
// grouped by activity and ordered by time within each activity
func (r *QueryRepository) GetUserAltitudes(ctx context.Context, userID int64) ([]AltitudeSample, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`SELECT t.activity_id, t.altitude
		FROM track_points t
		JOIN activities a ON t.activity_id = a.id
		WHERE a.user_id = ? AND t.altitude IS NOT NULL
		ORDER BY t.activity_id, t.recorded_at, t.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query altitudes of user %d: %w", userID, err)
	}
	defer rows.Close()

	var samples []AltitudeSample
	for rows.Next() {
		var s AltitudeSample
		if err := rows.Scan(&s.ActivityID, &s.Altitude); err != nil {
			return nil, fmt.Errorf("failed to scan altitude: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate altitudes: %w", err)
	}

	return samples, nil
}

// ActivityTimestamps streams the timestamps of an activity in order.
// Breaking out of the loop releases the underlying rows.
func (r *QueryRepository) ActivityTimestamps(ctx context.Context, activityID int64) iter.Seq2[time.Time, error] {
	return stream(ctx, r.db, `SELECT recorded_at FROM track_points
		WHERE activity_id = ?
		ORDER BY recorded_at, id`,
		func(rows *sql.Rows) (time.Time, error) {
			var unix int64
			if err := rows.Scan(&unix); err != nil {
				return time.Time{}, err
			}
			return time.Unix(unix, 0).UTC(), nil
		}, activityID)
}

// FindUsersInBox returns the distinct users owning a track point inside box
func (r *QueryRepository) FindUsersInBox(ctx context.Context, box spatial.BoundingBox) ([]int64, error) {
	query := `SELECT DISTINCT a.user_id
		FROM track_points t
		JOIN activities a ON t.activity_id = a.id
		WHERE t.lat BETWEEN ? AND ? AND t.lon BETWEEN ? AND ?
		ORDER BY a.user_id`

	return collectInt64(ctx, r.db, query, box.MinLat(), box.MaxLat(), box.MinLon(), box.MaxLon())
}

// UserPointsInBox streams a user's track point positions inside box
func (r *QueryRepository) UserPointsInBox(ctx context.Context, userID int64, box spatial.BoundingBox) iter.Seq2[spatial.Point, error] {
	return r.points(ctx, `SELECT t.lat, t.lon
		FROM track_points t
		JOIN activities a ON t.activity_id = a.id
		WHERE a.user_id = ?
		  AND t.lat BETWEEN ? AND ? AND t.lon BETWEEN ? AND ?`,
		userID, box.MinLat(), box.MaxLat(), box.MinLon(), box.MaxLon())
}

func (r *QueryRepository) points(ctx context.Context, query string, args ...any) iter.Seq2[spatial.Point, error] {
	return stream(ctx, r.db, query, func(rows *sql.Rows) (spatial.Point, error) {
		var p spatial.Point
		err := rows.Scan(&p.Lat, &p.Lon)
		return p, err
	}, args...)
}

// stream runs query and yields one scanned value per row. A query or scan
// error is yielded once as the final element.
func stream[T any](ctx context.Context, db *database.DB, query string, scan func(*sql.Rows) (T, error), args ...any) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		rows, err := db.QueryContext(ctx, db.Rebind(query), args...)
		if err != nil {
			yield(zero, fmt.Errorf("failed to query: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				yield(zero, fmt.Errorf("failed to scan row: %w", err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, fmt.Errorf("failed to iterate rows: %w", err))
		}
	}
}

func collectInt64(ctx context.Context, db *database.DB, query string, args ...any) ([]int64, error) {
	var ids []int64
	for id, err := range stream(ctx, db, query, func(rows *sql.Rows) (int64, error) {
		var id int64
		err := rows.Scan(&id)
		return id, err
	}, args...) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
