package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/models"
)

// IngestRepository writes assembled users into the store
type IngestRepository struct {
	db      *database.DB
	replace bool
}

// NewIngestRepository creates a new ingest repository.
// With replace set, an existing user is deleted (cascading to its
// activities and track points) before its batch is written.
func NewIngestRepository(db *database.DB, replace bool) *IngestRepository {
	return &IngestRepository{db: db, replace: replace}
}

// SaveUserBatch writes a user, its activities and their track points in one
// transaction. On error nothing of the batch is visible.
func (r *IngestRepository) SaveUserBatch(ctx context.Context, batch models.UserBatch) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if r.replace {
			if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), batch.User.ID); err != nil {
				return fmt.Errorf("failed to delete user %d: %w", batch.User.ID, err)
			}
		}

		_, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO users (id, has_labels) VALUES (?, ?)`),
			batch.User.ID, batch.User.HasLabels)
		if err != nil {
			return fmt.Errorf("failed to insert user %d: %w", batch.User.ID, err)
		}

		if len(batch.Activities) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`INSERT INTO track_points
			(activity_id, lat, lon, altitude, elapsed_days, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, a := range batch.Activities {
			activityID, err := r.insertActivity(ctx, tx, batch.User.ID, a.Activity)
			if err != nil {
				return err
			}

			for _, p := range a.Points {
				_, err := stmt.ExecContext(ctx, activityID, p.Lat, p.Lon,
					nullFloat(p.Altitude), nullFloat(p.ElapsedDays), p.Timestamp.Unix())
				if err != nil {
					return fmt.Errorf("failed to insert track point of activity %d: %w", activityID, err)
				}
			}
		}

		return nil
	})
}

func (r *IngestRepository) insertActivity(ctx context.Context, tx *sql.Tx, userID int64, a models.Activity) (int64, error) {
	var mode sql.NullString
	if a.TransportationMode != nil {
		mode = sql.NullString{String: *a.TransportationMode, Valid: true}
	}

	var id int64
	err := tx.QueryRowContext(ctx, r.db.Rebind(`INSERT INTO activities
		(user_id, transportation_mode, start_time, end_time)
		VALUES (?, ?, ?, ?) RETURNING id`),
		userID, mode, a.StartTime.Unix(), a.EndTime.Unix()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert activity for user %d: %w", userID, err)
	}

	return id, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
