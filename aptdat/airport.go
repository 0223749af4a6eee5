// aptdat/airport.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/mmp/xpapt/math"

	"github.com/brunoga/deep"
)

// Airport holds all of the records for a single airport, seaport, or
// heliport. Its first line is always the airport header record.
//
// Properties derived from the records (location, metadata, the set of row
// codes and the taxi route graph) are computed the first time they are
// requested and are then cached for the lifetime of the Airport; it is
// safe to request them concurrently.
type Airport struct {
	lines    []Line
	fromFile string
	version  int

	codes    func() map[RowCode]struct{}
	metadata func() map[MetadataKey]string
	location func() (math.Point2LL, error)
	graph    func() (*TaxiRouteGraph, error)
}

// newAirport assumes that lines[0] is the airport header and that no
// ignorable lines are present.
func newAirport(lines []Line, fromFile string, version int) *Airport {
	ap := &Airport{
		lines:    lines,
		fromFile: fromFile,
		version:  version,
	}

	ap.codes = sync.OnceValue(func() map[RowCode]struct{} {
		codes := make(map[RowCode]struct{})
		for _, l := range ap.lines {
			if l.Code != InvalidRowCode {
				codes[l.Code] = struct{}{}
			}
		}
		return codes
	})
	ap.metadata = sync.OnceValue(func() map[MetadataKey]string {
		return parseMetadata(ap.lines)
	})
	ap.location = sync.OnceValues(ap.computeLocation)
	ap.graph = sync.OnceValues(func() (*TaxiRouteGraph, error) {
		return BuildTaxiRouteGraph(ap.lines)
	})

	return ap
}

// NewAirport creates an Airport from the text of its records. Blank lines,
// file header lines and the "99" terminator are discarded. Exactly one
// airport header record must be present; it is moved to the front if
// other records precede it.
func NewAirport(text []string, fromFile string, version int) (*Airport, error) {
	lines := make([]Line, 0, len(text))
	hdr := -1
	for _, t := range text {
		l := Tokenize(t)
		if l.IsIgnorable() {
			continue
		}
		if l.IsAirportHeader() {
			if hdr != -1 {
				return nil, fmt.Errorf("%s: %w", l.Raw, ErrMultipleAirportHeaders)
			}
			hdr = len(lines)
		}
		lines = append(lines, l)
	}

	if hdr == -1 {
		return nil, ErrNoAirportHeader
	}
	if hdr > 0 {
		h := lines[hdr]
		copy(lines[1:hdr+1], lines[:hdr])
		lines[0] = h
	}

	return newAirport(lines, fromFile, version), nil
}

// ParseAirport is a convenience wrapper around NewAirport for a block of
// newline-separated text.
func ParseAirport(text string, fromFile string, version int) (*Airport, error) {
	return NewAirport(strings.Split(text, "\n"), fromFile, version)
}

func (ap *Airport) header() Line {
	return ap.lines[0]
}

// Id returns the airport's X-Plane identifier, which is not necessarily
// its ICAO code.
func (ap *Airport) Id() (string, error) {
	return ap.header().Field(4)
}

func (ap *Airport) Name() (string, error) {
	if _, err := ap.header().Field(4); err != nil {
		return "", err
	}
	return ap.header().Join(5), nil
}

// Elevation returns the airport's elevation in feet above mean sea level.
func (ap *Airport) Elevation() (float64, error) {
	return ap.header().Float(1)
}

func (ap *Airport) HasATC() (bool, error) {
	v, err := ap.header().Int(2)
	return v != 0, err
}

// Metadata returns a copy of the airport's 1302 metadata; unrecognized
// keys and records without values are omitted.
func (ap *Airport) Metadata() map[MetadataKey]string {
	return maps.Clone(ap.metadata())
}

// Location returns the position that X-Plane uses for the airport: the
// center of the first runway, water runway, or helipad record.
func (ap *Airport) Location() (math.Point2LL, error) {
	return ap.location()
}

func (ap *Airport) Latitude() (float64, error) {
	p, err := ap.location()
	return p.Latitude(), err
}

func (ap *Airport) Longitude() (float64, error) {
	p, err := ap.location()
	return p.Longitude(), err
}

func (ap *Airport) computeLocation() (math.Point2LL, error) {
	idx := slices.IndexFunc(ap.lines, func(l Line) bool { return l.IsRunway() })
	if idx == -1 {
		return math.Point2LL{}, ErrNoRunway
	}
	rwy := ap.lines[idx]

	// Returns the point given by the latitude and longitude at the given
	// field indices.
	point := func(lat, lon int) (math.Point2LL, error) {
		la, err := rwy.Float(lat)
		if err != nil {
			return math.Point2LL{}, err
		}
		lo, err := rwy.Float(lon)
		if err != nil {
			return math.Point2LL{}, err
		}
		return math.Point2LL{lo, la}, nil
	}
	center := func(lat0, lon0, lat1, lon1 int) (math.Point2LL, error) {
		p0, err := point(lat0, lon0)
		if err != nil {
			return math.Point2LL{}, err
		}
		p1, err := point(lat1, lon1)
		if err != nil {
			return math.Point2LL{}, err
		}
		return math.Mid2LL(p0, p1), nil
	}

	switch rwy.Code {
	case LandRunway:
		return center(9, 10, 18, 19)
	case WaterRunway:
		return center(4, 5, 7, 8)
	default: // Helipad
		return point(2, 3)
	}
}

// RowCodes returns the distinct row codes present in the airport's
// records, sorted.
func (ap *Airport) RowCodes() []RowCode {
	return slices.Sorted(maps.Keys(ap.codes()))
}

// HasRowCode returns true if any of the given codes appears in the
// airport's records.
func (ap *Airport) HasRowCode(codes ...RowCode) bool {
	c := ap.codes()
	for _, code := range codes {
		if _, ok := c[code]; ok {
			return true
		}
	}
	return false
}

func (ap *Airport) HasTaxiway() bool {
	return ap.HasRowCode(RingSegment, RingCurve)
}

func (ap *Airport) HasTaxiRoute() bool {
	return ap.HasRowCode(TaxiRouteHeader)
}

func (ap *Airport) HasTrafficFlow() bool {
	return ap.HasRowCode(FlowDefinition)
}

func (ap *Airport) HasGroundRoutes() bool {
	return ap.HasRowCode(TruckParking, TruckDestination, TaxiRouteHeader)
}

func (ap *Airport) HasTaxiwaySign() bool {
	return ap.HasRowCode(TaxiSign)
}

// HasCommFreq returns true if the airport defines any ATC frequencies.
func (ap *Airport) HasCommFreq() bool {
	for code := range ap.codes() {
		if code.IsCommFrequency() {
			return true
		}
	}
	return false
}

// TaxiRouteGraph returns the airport's taxi route network. The graph is
// built once; each call returns a separate copy of it.
func (ap *Airport) TaxiRouteGraph() (*TaxiRouteGraph, error) {
	g, err := ap.graph()
	if err != nil {
		return nil, err
	}
	return deep.MustCopy(g), nil
}

// Lines returns the airport's records; the header is first.
func (ap *Airport) Lines() []Line {
	return slices.Clone(ap.lines)
}

func (ap *Airport) RawLines() []string {
	raw := make([]string, len(ap.lines))
	for i, l := range ap.lines {
		raw[i] = l.Raw
	}
	return raw
}

func (ap *Airport) Len() int {
	return len(ap.lines)
}

// FromFile returns the path of the file the airport was read from, if
// any.
func (ap *Airport) FromFile() string {
	return ap.fromFile
}

// Version returns the apt.dat format version (1100, 1200, ...) of the
// airport's records.
func (ap *Airport) Version() int {
	return ap.version
}

// String returns the airport's records in the form they are written to
// apt.dat files: one normalized record per line.
func (ap *Airport) String() string {
	var sb strings.Builder
	ap.writeText(&sb)
	return sb.String()
}

func (ap *Airport) writeText(sb *strings.Builder) {
	first := true
	for _, l := range ap.lines {
		if isEmptyMetadata(l) {
			continue
		}
		if !first {
			sb.WriteByte('\n')
		}
		first = false
		for i, tok := range l.Tokens {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(tok)
		}
	}
}

// Head returns the first n records of the airport.
func (ap *Airport) Head(n int) string {
	n = math.Clamp(n, 0, len(ap.lines))
	s := make([]string, n)
	for i, l := range ap.lines[:n] {
		s[i] = l.String()
	}
	return strings.Join(s, "\n")
}

func writeFileHeader(sb *strings.Builder, version int) {
	fmt.Fprintf(sb, "I\n%d %s\n\n", version, worldEditorSignature)
}

// WriteTo writes a complete apt.dat file holding just this airport.
func (ap *Airport) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	writeFileHeader(&sb, ap.version)
	ap.writeText(&sb)
	sb.WriteString("\n" + FileEnd.String() + "\n")

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// WriteFile writes the airport to an apt.dat file at the given path; if
// path is empty, the file it was read from is used. Paths ending in
// .dat.zst are zstd compressed.
func (ap *Airport) WriteFile(path string) error {
	if path == "" {
		path = ap.fromFile
	}
	return writeDatFile(path, ap)
}
