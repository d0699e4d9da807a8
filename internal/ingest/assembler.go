package ingest

import (
	"github.com/jengzang/geolife-backend-go/internal/labels"
	"github.com/jengzang/geolife-backend-go/internal/models"
)

// DiscardReason explains why Assemble rejected a trajectory
type DiscardReason string

const (
	KeepActivity DiscardReason = ""
	Oversized    DiscardReason = "oversized"
	Empty        DiscardReason = "empty"
)

// Assemble turns the parsed samples of one trajectory into an activity.
//
// Trajectories with more than models.MaxTrackPoints samples, or without any
// sample, are discarded. The activity spans its first to last sample. A
// mode is assigned only when idx holds a label with exactly that span and
// the label's mode is in the known vocabulary; a nil idx means the user
// has no labels.
func Assemble(points []models.TrackPoint, idx *labels.Index) (models.ActivityBatch, DiscardReason) {
	if len(points) > models.MaxTrackPoints {
		return models.ActivityBatch{}, Oversized
	}
	if len(points) == 0 {
		return models.ActivityBatch{}, Empty
	}

	a := models.Activity{
		StartTime: points[0].Timestamp,
		EndTime:   points[len(points)-1].Timestamp,
	}

	if mode, ok := idx.Match(a.StartTime, a.EndTime); ok && models.IsValidMode(mode) {
		a.TransportationMode = &mode
	}

	return models.ActivityBatch{Activity: a, Points: points}, KeepActivity
}
