// aptdat/taxiroute.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mmp/xpapt/math"
	"github.com/mmp/xpapt/util"
)

///////////////////////////////////////////////////////////////////////////
// WidthClass

// WidthClass is the ICAO aircraft design group that a taxi route edge
// can accommodate; classes are ordered from smallest (A) to largest (F).
type WidthClass int

const (
	WidthUnknown WidthClass = iota
	WidthA
	WidthB
	WidthC
	WidthD
	WidthE
	WidthF
)

// Wingspan and outer main gear wheel span limits, in metres.
var widthEnvelopes = [...]struct{ wingspan, wheelSpan float64 }{
	WidthA: {15, 4.5},
	WidthB: {24, 6},
	WidthC: {36, 9},
	WidthD: {52, 14},
	WidthE: {65, 14},
	WidthF: {80, 16},
}

// ParseWidthClass returns the WidthClass for the letters A-F; anything
// else gives WidthUnknown.
func ParseWidthClass(ch byte) WidthClass {
	if ch >= 'A' && ch <= 'F' {
		return WidthA + WidthClass(ch-'A')
	}
	return WidthUnknown
}

func (w WidthClass) String() string {
	if w >= WidthA && w <= WidthF {
		return string(rune('A' + int(w-WidthA)))
	}
	return "Unknown"
}

// MaxWingspan returns the largest wingspan in metres that the class
// accommodates, or 0 for WidthUnknown.
func (w WidthClass) MaxWingspan() float64 {
	if w >= WidthA && w <= WidthF {
		return widthEnvelopes[w].wingspan
	}
	return 0
}

// MaxWheelSpan returns the largest outer main gear wheel span in metres
// that the class accommodates, or 0 for WidthUnknown.
func (w WidthClass) MaxWheelSpan() float64 {
	if w >= WidthA && w <= WidthF {
		return widthEnvelopes[w].wheelSpan
	}
	return 0
}

///////////////////////////////////////////////////////////////////////////
// TaxiRouteGraph

type TaxiRouteNode struct {
	Id       int
	Location math.Point2LL
	// Usage is one of "dest", "init", "both", or "junc" when given.
	Usage string
	Name  string
}

// ActiveZone records that an edge passes through a runway's protected
// area; Kind is "arrival", "departure", or "ils" and Runways lists the
// runways involved.
type ActiveZone struct {
	Kind    string
	Runways []string
}

type TaxiRouteEdge struct {
	Begin, End  int
	Name        string
	OneWay      bool
	Runway      bool
	Width       WidthClass
	ActiveZones []ActiveZone
}

type TaxiRouteGraph struct {
	Nodes map[int]TaxiRouteNode
	Edges []TaxiRouteEdge
}

// BuildTaxiRouteGraph constructs the ATC taxi route network from an
// airport's 1201 node, 1202 edge and 1204 active zone records. Other
// records are ignored. Edges that refer to undefined nodes are not an
// error here; see Validate.
func BuildTaxiRouteGraph(lines []Line) (*TaxiRouteGraph, error) {
	g := &TaxiRouteGraph{Nodes: make(map[int]TaxiRouteNode)}

	lastEdge := -1
	for _, l := range lines {
		switch l.Code {
		case TaxiRouteNodeRecord:
			n, err := parseTaxiRouteNode(l)
			if err != nil {
				return nil, err
			}
			g.Nodes[n.Id] = n
			lastEdge = -1

		case TaxiRouteEdgeRecord:
			e, err := parseTaxiRouteEdge(l)
			if err != nil {
				return nil, err
			}
			g.Edges = append(g.Edges, e)
			lastEdge = len(g.Edges) - 1

		case TaxiRouteHold:
			if lastEdge == -1 {
				continue
			}
			kind, err := l.Field(1)
			if err != nil {
				return nil, err
			}
			rwys, err := l.Field(2)
			if err != nil {
				return nil, err
			}
			g.Edges[lastEdge].ActiveZones = append(g.Edges[lastEdge].ActiveZones,
				ActiveZone{Kind: kind, Runways: strings.Split(rwys, ",")})

		default:
			lastEdge = -1
		}
	}

	return g, nil
}

// Nodes are written either as "1201 lat lon id" or, in files from recent
// versions of WED, as "1201 lat lon usage id name".
func parseTaxiRouteNode(l Line) (TaxiRouteNode, error) {
	lat, err := l.Float(1)
	if err != nil {
		return TaxiRouteNode{}, err
	}
	lon, err := l.Float(2)
	if err != nil {
		return TaxiRouteNode{}, err
	}

	n := TaxiRouteNode{Location: math.Point2LL{lon, lat}}
	idField := 3
	if f, err := l.Field(3); err != nil {
		return TaxiRouteNode{}, err
	} else if !util.IsInteger(f) {
		n.Usage = f
		idField = 4
	}

	if n.Id, err = l.Int(idField); err != nil {
		return TaxiRouteNode{}, err
	}
	n.Name = l.Join(idField + 1)

	return n, nil
}

func parseTaxiRouteEdge(l Line) (TaxiRouteEdge, error) {
	var e TaxiRouteEdge
	var err error
	if e.Begin, err = l.Int(1); err != nil {
		return TaxiRouteEdge{}, err
	}
	if e.End, err = l.Int(2); err != nil {
		return TaxiRouteEdge{}, err
	}

	// The direction and type fields are optional in older files.
	if len(l.Tokens) > 3 {
		e.OneWay = l.Tokens[3] == "oneway"
	}
	if len(l.Tokens) > 4 {
		if kind := l.Tokens[4]; kind == "runway" {
			e.Runway = true
		} else if w, ok := strings.CutPrefix(kind, "taxiway_"); ok && len(w) == 1 {
			e.Width = ParseWidthClass(w[0])
		}
	}
	e.Name = l.Join(5)

	return e, nil
}

// Neighbors returns the sorted ids of the nodes that can be reached
// directly from the given node, honoring one-way edges.
func (g *TaxiRouteGraph) Neighbors(id int) []int {
	var n []int
	for _, e := range g.Edges {
		if e.Begin == id {
			n = append(n, e.End)
		} else if e.End == id && !e.OneWay {
			n = append(n, e.Begin)
		}
	}
	slices.Sort(n)
	return slices.Compact(n)
}

// EdgeLength returns the great-circle length of the edge in nautical
// miles. It returns false if either endpoint isn't in the graph.
func (g *TaxiRouteGraph) EdgeLength(e TaxiRouteEdge) (float64, bool) {
	b, ok := g.Nodes[e.Begin]
	if !ok {
		return 0, false
	}
	end, ok := g.Nodes[e.End]
	if !ok {
		return 0, false
	}
	return math.NMDistance2LL(b.Location, end.Location), true
}

// Bounds returns the extent of the graph's nodes.
func (g *TaxiRouteGraph) Bounds() math.Extent2D {
	e := math.EmptyExtent2D()
	for _, n := range g.Nodes {
		e = math.Union(e, n.Location)
	}
	return e
}

// Validate reports edges that refer to nodes that are not defined.
func (g *TaxiRouteGraph) Validate() []error {
	var errs []error
	for i, e := range g.Edges {
		for _, id := range [2]int{e.Begin, e.End} {
			if _, ok := g.Nodes[id]; !ok {
				errs = append(errs, fmt.Errorf("edge %d (%d-%d %q): node %d: %w", i, e.Begin, e.End, e.Name, id, ErrNotFound))
			}
		}
	}
	return errs
}
