// Package sky holds celestial positions and the spherical geometry used to match them.
package sky

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// ArcsecPerDegree converts between degrees and arcseconds.
const ArcsecPerDegree = 3600.0

// VectorDim is the fixed vector dimension of indexed positions (ECEF 3D).
const VectorDim = 3

// maxArcsec is half a great circle: no two positions are farther apart.
const maxArcsec = 180 * ArcsecPerDegree

// Position is a J2000 equatorial position in degrees.
type Position struct {
	RA  float64
	Dec float64
}

// NewPosition validates ra in [0,360) and dec in [-90,90].
func NewPosition(raDeg, decDeg float64) (Position, error) {
	if math.IsNaN(raDeg) || math.IsInf(raDeg, 0) || raDeg < 0 || raDeg >= 360 {
		return Position{}, fmt.Errorf("ra_deg must be in [0, 360), got %v", raDeg)
	}
	if math.IsNaN(decDeg) || math.IsInf(decDeg, 0) || decDeg < -90 || decDeg > 90 {
		return Position{}, fmt.Errorf("dec_deg must be in [-90, 90], got %v", decDeg)
	}
	return Position{RA: raDeg, Dec: decDeg}, nil
}

// FromRadians builds a position from radian coordinates, normalizing ra into [0,360).
func FromRadians(raRad, decRad float64) Position {
	ra := math.Mod(raRad*180/math.Pi, 360)
	if ra < 0 {
		ra += 360
	}
	return Position{RA: ra, Dec: decRad * 180 / math.Pi}
}

func (p Position) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Dec, p.RA)
}

// Point returns the position as an S2 unit vector.
func (p Position) Point() s2.Point {
	return s2.PointFromLatLng(p.latLng())
}

// Separation returns the great-circle angle between a and b in arcseconds.
// The unit-vector formulation has no discontinuity at the poles or across ra=0/360.
func Separation(a, b Position) float64 {
	return a.Point().Distance(b.Point()).Degrees() * ArcsecPerDegree
}

// ToVector converts a position to a float32 ECEF unit vector for KNN storage.
func ToVector(p Position) []float32 {
	dec := p.Dec * math.Pi / 180
	ra := p.RA * math.Pi / 180
	return []float32{
		float32(math.Cos(dec) * math.Cos(ra)),
		float32(math.Cos(dec) * math.Sin(ra)),
		float32(math.Sin(dec)),
	}
}

// ChordForArcsec returns the L2 distance between two unit vectors separated by the given angle.
// Uses the identity L2 = 2*sin(angle/2).
func ChordForArcsec(arcsec float64) float64 {
	if arcsec >= maxArcsec {
		return 2
	}
	if arcsec <= 0 {
		return 0
	}
	angle := arcsec / ArcsecPerDegree * math.Pi / 180
	return 2 * math.Sin(angle/2)
}

// ChordToArcsec converts the L2 distance between two unit vectors to an angle in arcseconds.
func ChordToArcsec(l2 float64) float64 {
	// Clamp to valid range for arcsin (float32 vectors push slightly above 1)
	half := l2 / 2
	if half > 1 {
		half = 1
	}
	if half < 0 {
		half = 0
	}
	return 2 * math.Asin(half) * 180 / math.Pi * ArcsecPerDegree
}

// Cap returns the spherical cap of the cone around center.
func Cap(center Position, radiusArcsec float64) s2.Cap {
	angle := s1.Angle(radiusArcsec/ArcsecPerDegree) * s1.Degree
	return s2.CapFromCenterAngle(center.Point(), angle)
}
