package spatial

import "github.com/golang/geo/s2"

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

func (p Point) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// BoundingBox is a closed latitude/longitude rectangle
type BoundingBox struct {
	rect s2.Rect
}

// BoxAround widens a point by margin degrees in every direction.
// The margin is applied flat to both axes, so the box is not a uniform
// distance margin away from the equator.
func BoxAround(center Point, margin float64) BoundingBox {
	rect := s2.RectFromCenterSize(center.latLng(), s2.LatLngFromDegrees(2*margin, 2*margin))
	return BoundingBox{rect: rect}
}

// Contains reports whether p lies inside the box, edges included
func (b BoundingBox) Contains(p Point) bool {
	return b.rect.ContainsLatLng(p.latLng())
}

// MinLat returns the southern edge in degrees
func (b BoundingBox) MinLat() float64 { return b.rect.Lo().Lat.Degrees() }

// MaxLat returns the northern edge in degrees
func (b BoundingBox) MaxLat() float64 { return b.rect.Hi().Lat.Degrees() }

// MinLon returns the western edge in degrees
func (b BoundingBox) MinLon() float64 { return b.rect.Lo().Lng.Degrees() }

// MaxLon returns the eastern edge in degrees
func (b BoundingBox) MaxLon() float64 { return b.rect.Hi().Lng.Degrees() }
