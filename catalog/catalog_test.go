// catalog/catalog_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/math"
	"github.com/mmp/xpapt/util"
)

const testText = `1 433 1 0 KSEA Seattle Tacoma Intl
1302 city Seattle
1302 country United States
100 45.72 1 0 0.25 1 3 0 16L 47.46 -122.30 0 0 3 2 1 0 34R 47.44 -122.32 0 0 3 2 1 0
1050 ATIS 118000
1200

1 21 0 0 KBFI Boeing Field King Co Intl
1302 city Seattle
101 49 1 08 47.53 -122.30 26 47.51 -122.31

1 13 0 0 KPDX Portland Intl
100 45.72 1 0 0.25 1 3 0 10L 45.59 -122.60 0 0 3 2 1 0 28R 45.58 -122.56 0 0 3 2 1 0

17 30 0 0 WA99 Nowhere Heliport
`

func openTestCatalog(t *testing.T) (*Catalog, []aptdat.Summary) {
	t.Helper()
	ctx := context.Background()

	c, err := Open(ctx, filepath.Join(t.TempDir(), "airports.sqlite"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })

	ad, err := aptdat.Parse(testText, "apt.dat")
	if err != nil {
		t.Fatal(err)
	}
	var e util.ErrorLogger
	sums := ad.Summaries(&e)
	if e.HaveErrors() || len(sums) != 4 {
		t.Fatalf("Summaries() = %d: %s", len(sums), e.String())
	}

	if err := c.Insert(ctx, sums); err != nil {
		t.Fatal(err)
	}
	return c, sums
}

func TestInsertLookup(t *testing.T) {
	c, sums := openTestCatalog(t)
	ctx := context.Background()

	if n, err := c.Count(ctx); err != nil || n != 4 {
		t.Errorf("Count() = %d, %v", n, err)
	}

	for _, want := range sums {
		got, err := c.Lookup(ctx, want.Id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Name != want.Name || got.Elevation != want.Elevation || got.HasATC != want.HasATC ||
			got.HasLocation != want.HasLocation || got.Location != want.Location ||
			got.HasTaxiRoute != want.HasTaxiRoute || got.HasCommFreq != want.HasCommFreq ||
			got.Records != want.Records || got.FromFile != want.FromFile || got.Version != want.Version {
			t.Errorf("Lookup(%s) = %+v, want %+v", want.Id, got, want)
		}
		if len(got.Metadata) != len(want.Metadata) {
			t.Errorf("Lookup(%s) metadata = %v, want %v", want.Id, got.Metadata, want.Metadata)
		}
		for k, v := range want.Metadata {
			if got.Metadata[k] != v {
				t.Errorf("Lookup(%s) metadata[%s] = %q, want %q", want.Id, k, got.Metadata[k], v)
			}
		}
	}

	if _, err := c.Lookup(ctx, "ksea"); !errors.Is(err, aptdat.ErrNotFound) {
		t.Errorf("Lookup(ksea) error = %v, want ErrNotFound", err)
	}

	h, err := c.Lookup(ctx, "WA99")
	if err != nil {
		t.Fatal(err)
	}
	if h.HasLocation || h.Location != (math.Point2LL{}) {
		t.Errorf("airport without runways has location %v", h.Location)
	}
}

func TestInsertReplaces(t *testing.T) {
	c, sums := openTestCatalog(t)
	ctx := context.Background()

	s := sums[0]
	s.Name = "Sea-Tac"
	s.Metadata = map[aptdat.MetadataKey]string{aptdat.MetadataIATACode: "SEA"}
	if err := c.Insert(ctx, []aptdat.Summary{s}); err != nil {
		t.Fatal(err)
	}

	if n, _ := c.Count(ctx); n != 4 {
		t.Errorf("Count() = %d after replacing", n)
	}
	got, err := c.Lookup(ctx, "KSEA")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Sea-Tac" || len(got.Metadata) != 1 || got.Metadata[aptdat.MetadataIATACode] != "SEA" {
		t.Errorf("Lookup() after replace = %+v", got)
	}
}

func TestWithin(t *testing.T) {
	c, _ := openTestCatalog(t)
	ctx := context.Background()

	ids := func(sums []aptdat.Summary) []string {
		return util.MapSlice(sums, func(s aptdat.Summary) string { return s.Id })
	}

	seattle := math.Extent2D{P0: math.Point2LL{-122.5, 47.3}, P1: math.Point2LL{-122.1, 47.7}}
	sums, err := c.Within(ctx, seattle)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(sums), []string{"KBFI", "KSEA"}) {
		t.Errorf("Within(seattle) = %v", ids(sums))
	}
	if sums[0].Metadata[aptdat.MetadataCity] != "Seattle" {
		t.Errorf("Within() didn't load metadata: %+v", sums[0])
	}

	pnw := math.Extent2D{P0: math.Point2LL{-125, 44}, P1: math.Point2LL{-120, 49}}
	if sums, err := c.Within(ctx, pnw); err != nil || !slices.Equal(ids(sums), []string{"KBFI", "KPDX", "KSEA"}) {
		t.Errorf("Within(pnw) = %v, %v", ids(sums), err)
	}

	if sums, err := c.Within(ctx, math.EmptyExtent2D()); err != nil || len(sums) != 0 {
		t.Errorf("Within(empty) = %v, %v", ids(sums), err)
	}
}

func TestDeleteAndMetadataValues(t *testing.T) {
	c, _ := openTestCatalog(t)
	ctx := context.Background()

	m, err := c.MetadataValues(ctx, aptdat.MetadataCity)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 1 || m["Seattle"] != 2 {
		t.Errorf("MetadataValues(city) = %v", m)
	}

	if err := c.Delete(ctx, "KBFI"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "KBFI"); !errors.Is(err, aptdat.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if m, _ := c.MetadataValues(ctx, aptdat.MetadataCity); m["Seattle"] != 1 {
		t.Errorf("metadata not removed with airport: %v", m)
	}
	if n, _ := c.Count(ctx); n != 3 {
		t.Errorf("Count() = %d", n)
	}
}

func TestOpenPragmas(t *testing.T) {
	c, _ := openTestCatalog(t)
	ctx := context.Background()

	for _, tc := range []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	} {
		var v string
		if err := c.conn.QueryRowContext(ctx, "PRAGMA "+tc.pragma).Scan(&v); err != nil {
			t.Fatal(err)
		}
		if v != tc.want {
			t.Errorf("PRAGMA %s = %q, want %q", tc.pragma, v, tc.want)
		}
	}
}

func TestNear(t *testing.T) {
	c, sums := openTestCatalog(t)
	ctx := context.Background()

	ksea, err := c.Lookup(ctx, "KSEA")
	if err != nil {
		t.Fatal(err)
	}
	ids := func(n []Neighbor) []string {
		return util.MapSlice(n, func(n Neighbor) string { return n.Id })
	}

	for _, tc := range []struct {
		radius float64
		want   []string
	}{
		{1, []string{"KSEA"}},
		{10, []string{"KSEA", "KBFI"}},
		{200, []string{"KSEA", "KBFI", "KPDX"}},
		{-1, nil},
	} {
		n, err := c.Near(ctx, ksea.Location, tc.radius)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(ids(n), tc.want) {
			t.Errorf("Near(%v) = %v, want %v", tc.radius, ids(n), tc.want)
		}
		// The in-memory search agrees with the catalog.
		if m := Nearby(sums, ksea.Location, tc.radius); !slices.Equal(ids(m), tc.want) {
			t.Errorf("Nearby(%v) = %v, want %v", tc.radius, ids(m), tc.want)
		}
	}

	n, _ := c.Near(ctx, ksea.Location, 200)
	if n[0].Distance != 0 {
		t.Errorf("KSEA distance = %v, want 0", n[0].Distance)
	}
	if bfi := n[1]; bfi.Distance < 3.5 || bfi.Distance > 5 || (bfi.Heading > 20 && bfi.Heading < 340) {
		t.Errorf("KBFI = %.2fnm at %.0f, want ~4nm north", bfi.Distance, bfi.Heading)
	}
	if pdx := n[2]; pdx.Distance < 100 || pdx.Distance > 125 || pdx.Heading < 170 || pdx.Heading > 200 {
		t.Errorf("KPDX = %.2fnm at %.0f, want ~112nm south", pdx.Distance, pdx.Heading)
	}
}
