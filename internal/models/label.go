package models

import "time"

// Label is one transportation-mode annotation from a user's labels.txt.
// Labels are only held in memory while that user's activities are assembled.
type Label struct {
	Start time.Time
	End   time.Time
	Mode  string
}
