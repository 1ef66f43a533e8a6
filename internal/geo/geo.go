package geo

import (
	"errors"
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000.0

var (
	ErrOutOfArea     = errors.New("location is outside the service area")
	ErrInvalidLatLng = errors.New("invalid latitude or longitude")
)

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lng float64 `json:"lng" db:"lng"`
}

func NewPoint(lat, lng float64) Point {
	return Point{Lat: lat, Lng: lng}
}

// DistanceMeters returns the great-circle distance between two points
// using the haversine formula on a spherical Earth model.
func DistanceMeters(a, b Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	aLat := degreesToRadians(a.Lat)
	bLat := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(aLat)*math.Cos(bLat)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

// Filter holds the stateless guards applied to every raw position sample
// before it is acted upon or transmitted.
type Filter struct {
	AccuracyThresholdM float64
	AreaCenter         Point
	AreaRadiusM        float64
}

func NewFilter(accuracyThresholdM float64, center Point, radiusM float64) Filter {
	return Filter{
		AccuracyThresholdM: accuracyThresholdM,
		AreaCenter:         center,
		AreaRadiusM:        radiusM,
	}
}

// AccuracyAcceptable reports whether a sample's reported accuracy is good
// enough to trust. A nil accuracy is acceptable so devices that do not
// report one are never blocked.
func (f Filter) AccuracyAcceptable(accuracy *float64) bool {
	if accuracy == nil {
		return true
	}
	return *accuracy <= f.AccuracyThresholdM
}

func (f Filter) WithinServiceArea(p Point) bool {
	return DistanceMeters(p, f.AreaCenter) <= f.AreaRadiusM
}

func (f Filter) ValidateInArea(p Point) error {
	if !f.WithinServiceArea(p) {
		return ErrOutOfArea
	}
	return nil
}

func ValidateLatLng(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidLatLng)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidLatLng)
	}
	return nil
}
