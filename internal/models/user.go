package models

// User represents one Geolife participant folder
type User struct {
	ID        int64 `json:"id" db:"id"`
	HasLabels bool  `json:"hasLabels" db:"has_labels"`
}
