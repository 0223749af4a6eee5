// catalog/near.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package catalog

import (
	"cmp"
	"context"
	"slices"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/math"
)

// Neighbor is an airport found by a proximity search.
type Neighbor struct {
	aptdat.Summary
	Distance float64 // nautical miles
	Heading  float64 // true heading from the search point
}

// searchExtent returns a box that bounds the circle of the given radius
// around p.
func searchExtent(p math.Point2LL, radius float64) math.Extent2D {
	return math.Extent2DFromP2LLs([]math.Point2LL{p}).Expand(radius)
}

// Nearby returns the airports in sums within radius nautical miles of p,
// nearest first. Airports without a location are skipped.
func Nearby(sums []aptdat.Summary, p math.Point2LL, radius float64) []Neighbor {
	if radius < 0 {
		return nil
	}

	box := searchExtent(p, radius)
	var n []Neighbor
	for _, s := range sums {
		if !s.HasLocation || !box.Inside(s.Location) {
			continue
		}
		if d := math.NMDistance2LL(p, s.Location); d <= radius {
			n = append(n, Neighbor{Summary: s, Distance: d, Heading: math.Heading2LL(p, s.Location)})
		}
	}
	slices.SortStableFunc(n, func(a, b Neighbor) int { return cmp.Compare(a.Distance, b.Distance) })
	return n
}

// Near returns the cataloged airports within radius nautical miles of p,
// nearest first.
func (c *Catalog) Near(ctx context.Context, p math.Point2LL, radius float64) ([]Neighbor, error) {
	if radius < 0 {
		return nil, nil
	}
	sums, err := c.Within(ctx, searchExtent(p, radius))
	if err != nil {
		return nil, err
	}
	return Nearby(sums, p, radius), nil
}
