package models

import "time"

// MaxTrackPoints is the largest trajectory that is kept as an activity
const MaxTrackPoints = 2500

// Activity represents one trajectory capture owned by a user
type Activity struct {
	ID                 int64     `json:"id" db:"id"`
	UserID             int64     `json:"userId" db:"user_id"`
	TransportationMode *string   `json:"transportationMode,omitempty" db:"transportation_mode"`
	StartTime          time.Time `json:"startTime" db:"start_time"` // timestamp of the first track point
	EndTime            time.Time `json:"endTime" db:"end_time"`     // timestamp of the last track point
}

// ActivityBatch is an assembled activity together with its ordered track points
type ActivityBatch struct {
	Activity Activity
	Points   []TrackPoint
}

// UserBatch is everything written for one user in a single transaction
type UserBatch struct {
	User       User
	Activities []ActivityBatch
}

// TrackPointCount returns the number of track points across all activities
func (b UserBatch) TrackPointCount() int {
	n := 0
	for _, a := range b.Activities {
		n += len(a.Points)
	}
	return n
}

// transportModes is the closed label vocabulary
var transportModes = map[string]struct{}{
	"walk":       {},
	"bike":       {},
	"bus":        {},
	"taxi":       {},
	"car":        {},
	"subway":     {},
	"train":      {},
	"airplane":   {},
	"boat":       {},
	"run":        {},
	"motorcycle": {},
}

// IsValidMode reports whether mode belongs to the recognised vocabulary
func IsValidMode(mode string) bool {
	_, ok := transportModes[mode]
	return ok
}
