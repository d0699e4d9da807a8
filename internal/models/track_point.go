package models

import "time"

// AltitudeUnknown is the raw altitude value that marks a missing altitude
const AltitudeUnknown = -777

// TrackPoint represents one GPS sample of an activity
type TrackPoint struct {
	ID          int64     `json:"id" db:"id"`
	ActivityID  int64     `json:"activityId" db:"activity_id"`
	Lat         float64   `json:"lat" db:"lat"`
	Lon         float64   `json:"lon" db:"lon"`
	Altitude    *float64  `json:"altitude,omitempty" db:"altitude"`        // nil when the source recorded -777
	ElapsedDays *float64  `json:"elapsedDays,omitempty" db:"elapsed_days"` // fractional days since 1899-12-30
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}
