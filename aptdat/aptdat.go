// aptdat/aptdat.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package aptdat parses, queries and writes X-Plane apt.dat airport data
// files.
package aptdat

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/mmp/xpapt/util"

	"golang.org/x/exp/constraints"
)

const DefaultVersion = 1100

// MaxVersion is the exclusive upper bound on format version numbers;
// anything at or above it indicates a corrupt header.
const MaxVersion = 9999

// AptDat is an ordered collection of airports, generally all of the
// airports from a single apt.dat file.
type AptDat struct {
	Airports []*Airport
	// Version is the apt.dat format version given in the file header.
	Version int
	// Path is the file the airports were read from, if any.
	Path string
	// Orphans is the number of records found before the first airport
	// header; they are discarded.
	Orphans int
}

func New() *AptDat {
	return &AptDat{Version: DefaultVersion}
}

// Parse parses the complete text of an apt.dat file. Only a malformed file
// header causes an error; records that can't be interpreted are kept
// as-is in their airport.
func Parse(text string, fromFile string) (*AptDat, error) {
	ad := New()
	ad.Path = fromFile

	// Lines are split manually rather than with strings.Split to avoid
	// allocating a slice for the whole file.
	next := func() (string, bool) {
		if text == "" {
			return "", false
		}
		line, rest, _ := strings.Cut(text, "\n")
		text = rest
		return line, true
	}

	if err := ad.parseFileHeader(&text); err != nil {
		return nil, err
	}

	var current []Line
	flush := func() {
		if len(current) > 0 {
			ad.Airports = append(ad.Airports, newAirport(current, fromFile, ad.Version))
			current = nil
		}
	}

	for {
		raw, ok := next()
		if !ok {
			break
		}

		l := Tokenize(raw)
		switch {
		case l.IsIgnorable():
			// skip
		case l.IsAirportHeader():
			flush()
			current = []Line{l}
		case current == nil:
			ad.Orphans++
		default:
			current = append(current, l)
		}
	}
	flush()

	return ad, nil
}

// parseFileHeader strips the two-line file header from the start of text,
// if present, and records the version it gives. X-Plane's own files use
// "<version> Version - data cycle ..." rather than the WorldEditor
// signature on the second line; both are accepted.
func (ad *AptDat) parseFileHeader(text *string) error {
	first, rest, _ := strings.Cut(*text, "\n")
	if first = strings.TrimSpace(first); first != "I" && first != "A" {
		return nil
	}

	second, rest, _ := strings.Cut(rest, "\n")
	hl := Tokenize(second)
	if !strings.Contains(hl.Raw, worldEditorSignature) && !(len(hl.Tokens) > 1 && hl.Tokens[1] == "Version") {
		return nil
	}

	v, err := strconv.Atoi(hl.Tokens[0])
	if err != nil {
		return &RecordError{Code: InvalidRowCode, Field: 0, Line: hl.Raw, Err: ErrMalformedRecord}
	}
	if v >= MaxVersion {
		return fmt.Errorf("%d: %w", v, ErrVersionOutOfRange)
	}

	ad.Version = v
	*text = rest
	return nil
}

// Read parses an apt.dat file from the given reader; see Parse.
func Read(r io.Reader, fromFile string) (*AptDat, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(b), fromFile)
}

func (ad *AptDat) Len() int {
	return len(ad.Airports)
}

func (ad *AptDat) At(i int) (*Airport, error) {
	if i < 0 || i >= len(ad.Airports) {
		return nil, fmt.Errorf("index %d with %d airports: %w", i, len(ad.Airports), ErrOutOfRange)
	}
	return ad.Airports[i], nil
}

// All returns an iterator over the airports and their indices in order.
func (ad *AptDat) All() iter.Seq2[int, *Airport] {
	return slices.All(ad.Airports)
}

// IDs returns the identifiers of all airports in order; airports with a
// malformed header give an empty string.
func (ad *AptDat) IDs() []string {
	return util.MapSlice(ad.Airports, func(ap *Airport) string {
		id, _ := ap.Id()
		return id
	})
}

func (ad *AptDat) Names() []string {
	return util.MapSlice(ad.Airports, func(ap *Airport) string {
		name, _ := ap.Name()
		return name
	})
}

// SearchByID returns the airport with the given identifier, ignoring
// case. Identifiers are expected to be unique, so ErrDuplicateID is
// returned if there is more than one match.
func (ad *AptDat) SearchByID(id string) (*Airport, error) {
	matches := ad.SearchByPredicate(func(ap *Airport) bool {
		apid, err := ap.Id()
		return err == nil && strings.EqualFold(apid, id)
	})
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%s (%d airports): %w", id, len(matches), ErrDuplicateID)
	}
}

// SearchByName returns all of the airports with the given name, ignoring
// case.
func (ad *AptDat) SearchByName(name string) []*Airport {
	return ad.SearchByPredicate(func(ap *Airport) bool {
		n, err := ap.Name()
		return err == nil && strings.EqualFold(n, name)
	})
}

// SearchByPredicate returns all airports for which pred returns true, in
// order.
func (ad *AptDat) SearchByPredicate(pred func(*Airport) bool) []*Airport {
	return util.FilterSlice(ad.Airports, pred)
}

// Lookup returns the airport with the given identifier or, failing that,
// the first airport with the given name. An identifier shared by more
// than one airport is an error even if an airport has it as its name.
func (ad *AptDat) Lookup(key string) (*Airport, error) {
	ap, err := ad.SearchByID(key)
	if err == nil || errors.Is(err, ErrDuplicateID) {
		return ap, err
	}
	if byName := ad.SearchByName(key); len(byName) > 0 {
		return byName[0], nil
	}
	return nil, err
}

// Contains returns true if an airport has exactly the given identifier.
func (ad *AptDat) Contains(id string) bool {
	return slices.ContainsFunc(ad.Airports, func(ap *Airport) bool {
		apid, err := ap.Id()
		return err == nil && apid == id
	})
}

// Sort sorts the airports by name; airports with the same name keep
// their relative order.
func (ad *AptDat) Sort() {
	SortByKey(ad, func(ap *Airport) string {
		n, _ := ap.Name()
		return n
	})
}

func (ad *AptDat) SortFunc(cmp func(a, b *Airport) int) {
	slices.SortStableFunc(ad.Airports, cmp)
}

// SortByKey stably sorts the airports by the value that key returns for
// each one.
func SortByKey[K constraints.Ordered](ad *AptDat, key func(*Airport) K) {
	ad.SortFunc(func(a, b *Airport) int { return cmp.Compare(key(a), key(b)) })
}

func (ad *AptDat) Append(ap ...*Airport) {
	ad.Airports = append(ad.Airports, ap...)
}

// Concat returns a new AptDat with the airports of ad followed by those
// of other. No attempt is made to remove duplicates.
func (ad *AptDat) Concat(other *AptDat) *AptDat {
	return &AptDat{
		Airports: slices.Concat(ad.Airports, other.Airports),
		Version:  ad.Version,
	}
}

// Extend appends the airports of other to ad. No attempt is made to
// remove duplicates.
func (ad *AptDat) Extend(other *AptDat) {
	ad.Airports = append(ad.Airports, other.Airports...)
}

// RemoveID removes all airports whose identifier matches id exactly and
// returns the number removed.
func (ad *AptDat) RemoveID(id string) int {
	n := len(ad.Airports)
	ad.Airports = slices.DeleteFunc(ad.Airports, func(ap *Airport) bool {
		apid, err := ap.Id()
		return err == nil && apid == id
	})
	return n - len(ad.Airports)
}

func (ad *AptDat) RemoveAt(i int) error {
	if i < 0 || i >= len(ad.Airports) {
		return fmt.Errorf("index %d with %d airports: %w", i, len(ad.Airports), ErrOutOfRange)
	}
	ad.Airports = slices.Delete(ad.Airports, i, i+1)
	return nil
}

// Clone returns a copy of ad that shares its Airports.
func (ad *AptDat) Clone() *AptDat {
	c := *ad
	c.Airports = slices.Clone(ad.Airports)
	return &c
}

func (ad *AptDat) String() string {
	var sb strings.Builder
	writeFileHeader(&sb, ad.Version)
	for _, ap := range ad.Airports {
		ap.writeText(&sb)
		sb.WriteString("\n\n")
	}
	sb.WriteString(FileEnd.String() + "\n")
	return sb.String()
}

// WriteTo writes the complete apt.dat file.
func (ad *AptDat) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, ad.String())
	return int64(n), err
}

// WriteFile writes the airports to the given path, or to the path they
// were read from if it is empty. Paths ending in .dat.zst are zstd
// compressed.
func (ad *AptDat) WriteFile(path string) error {
	if path == "" {
		path = ad.Path
	}
	return writeDatFile(path, ad)
}
