// math/latlong.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
)

const NMPerLatitude = 60

const NauticalMilesToFeet = 6076.12

///////////////////////////////////////////////////////////////////////////
// Point2LL

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude
//
// Components are float64 so that coordinates read from apt.dat files
// (which carry eight decimal digits) survive unchanged.
type Point2LL [2]float64

func (p Point2LL) Longitude() float64 {
	return p[0]
}

func (p Point2LL) Latitude() float64 {
	return p[1]
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0]) // latitude, longitude
}

// DMSString returns the position in degrees minutes, seconds, e.g.
// N039.51.39.243,W075.16.29.511
func (p Point2LL) DMSString() string {
	format := func(v float64) string {
		s := fmt.Sprintf("%03d", int(v))
		v -= gomath.Floor(v)
		v *= 60
		s += fmt.Sprintf(".%02d", int(v))
		v -= gomath.Floor(v)
		v *= 60
		s += fmt.Sprintf(".%02d", int(v))
		v -= gomath.Floor(v)
		v *= 1000
		s += fmt.Sprintf(".%03d", int(v))
		return s
	}

	var s string
	if p[1] > 0 {
		s = "N"
	} else {
		s = "S"
	}
	s += format(gomath.Abs(p[1]))

	if p[0] > 0 {
		s += ",E"
	} else {
		s += ",W"
	}
	s += format(gomath.Abs(p[0]))

	return s
}

// Mid2LL returns the midpoint of a and b; it is a plain average of the
// coordinates, which is what apt.dat consumers expect for runway centers.
func Mid2LL(a Point2LL, b Point2LL) Point2LL {
	return Point2LL{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// NMDistance2LL returns the distance in nautical miles between two
// provided lat-long coordinates.
func NMDistance2LL(a Point2LL, b Point2LL) float64 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	const R = 6371000 // metres
	rad := func(d float64) float64 { return d / 180 * gomath.Pi }
	lat1, lon1 := rad(a[1]), rad(a[0])
	lat2, lon2 := rad(b[1]), rad(b[0])
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))
	dm := R * c // in metres

	return dm * 0.000539957
}

// NMPerLongitudeAt returns the number of nautical miles per degree of
// longitude at the latitude of p.
func NMPerLongitudeAt(p Point2LL) float64 {
	return gomath.Cos(p[1]/180*gomath.Pi) * NMPerLatitude
}

// Heading2LL returns the true heading from the point |from| to the point
// |to| in degrees, in [0,360).
func Heading2LL(from Point2LL, to Point2LL) float64 {
	nmPerLongitude := NMPerLongitudeAt(Mid2LL(from, to))
	dx := (to[0] - from[0]) * nmPerLongitude
	dy := (to[1] - from[1]) * NMPerLatitude
	h := gomath.Atan2(dx, dy) * 180 / gomath.Pi
	if h < 0 {
		h += 360
	}
	return h
}

///////////////////////////////////////////////////////////////////////////
// Extent2D

// Extent2D represents a 2D bounding box with the two vertices at its
// opposite minimum and maximum corners. As with Point2LL, index 0 is
// longitude and index 1 is latitude.
type Extent2D struct {
	P0, P1 Point2LL
}

// EmptyExtent2D returns an Extent2D representing an empty bounding box.
func EmptyExtent2D() Extent2D {
	// Degenerate bounds
	return Extent2D{P0: Point2LL{1e30, 1e30}, P1: Point2LL{-1e30, -1e30}}
}

// Extent2DFromP2LLs returns an Extent2D that bounds all of the provided
// points.
func Extent2DFromP2LLs(pts []Point2LL) Extent2D {
	e := EmptyExtent2D()
	for _, p := range pts {
		e = Union(e, p)
	}
	return e
}

// Union returns an Extent2D that bounds both e and p.
func Union(e Extent2D, p Point2LL) Extent2D {
	for d := 0; d < 2; d++ {
		e.P0[d] = gomath.Min(e.P0[d], p[d])
		e.P1[d] = gomath.Max(e.P1[d], p[d])
	}
	return e
}

func (e Extent2D) IsEmpty() bool {
	return e.P0[0] > e.P1[0] || e.P0[1] > e.P1[1]
}

func (e Extent2D) Center() Point2LL {
	return Mid2LL(e.P0, e.P1)
}

// Inside returns true if the point is inside the extent (or on its
// boundary).
func (e Extent2D) Inside(p Point2LL) bool {
	return p[0] >= e.P0[0] && p[0] <= e.P1[0] && p[1] >= e.P0[1] && p[1] <= e.P1[1]
}

// Expand returns an extent grown by the given number of nautical miles in
// each direction.
func (e Extent2D) Expand(nm float64) Extent2D {
	if e.IsEmpty() {
		return e
	}
	dlat := nm / NMPerLatitude
	dlon := nm / gomath.Max(NMPerLongitudeAt(e.Center()), 1e-6)
	return Extent2D{
		P0: Point2LL{e.P0[0] - dlon, e.P0[1] - dlat},
		P1: Point2LL{e.P1[0] + dlon, e.P1[1] + dlat},
	}
}
