package models

import "time"

// DistanceFilter selects the activities summed by the distance query
type DistanceFilter struct {
	UserID int64  `form:"userId" json:"userId"`
	Mode   string `form:"mode" json:"mode"`
	Year   int    `form:"year" json:"year"`
}

// YearRange returns the half-open UTC interval covering Year
func (f DistanceFilter) YearRange() (time.Time, time.Time) {
	from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// DistanceResult is the answer of the distance query
type DistanceResult struct {
	DistanceFilter
	Activities int     `json:"activities"`
	TotalKm    float64 `json:"totalKm"`
}

// UserTotal is a per-user running total, e.g. altitude gain in meters
type UserTotal struct {
	UserID int64   `json:"userId"`
	Total  float64 `json:"total"`
}

// UserCount is a per-user counter, e.g. invalid activities
type UserCount struct {
	UserID int64 `json:"userId"`
	Count  int   `json:"count"`
}

// GeoPoint is a latitude/longitude pair in degrees
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
