// gateway/gateway_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/config"
	"github.com/mmp/xpapt/util"

	"github.com/klauspost/compress/zip"
)

const packAptDat = `I
1200 Generated by WorldEditor

1 433 1 0 KSEA Seattle Tacoma Intl
1302 city Seattle
100 45.72 1 0 0.25 1 3 0 16L 47.46 -122.30 0 0 3 2 1 0 34R 47.44 -122.32 0 0 3 2 1 0
1000 Flow
1200

99
`

func makeZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(contents); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type testGateway struct {
	*httptest.Server
	requests atomic.Int32
	failures atomic.Int32 // remaining requests to fail
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()

	inner := makeZip(t, map[string][]byte{
		"KSEA_Scenery_Pack/README.txt": []byte("read me"),
		// "Ç" in Windows-1252
		"KSEA_Scenery_Pack/COPYING": {'G', 'P', 'L', ' ', 0xc7},
	})
	blob := makeZip(t, map[string][]byte{
		"KSEA.dat":              []byte(packAptDat),
		"KSEA.txt":              []byte("A\n800\nDSF2TEXT\n"),
		"KSEA_Scenery_Pack.zip": inner,
	})
	noDat := makeZip(t, map[string][]byte{"KXXX.txt": []byte("dsf")})

	g := &testGateway{}
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, key string, v any) {
		if err := json.NewEncoder(w).Encode(map[string]any{key: v}); err != nil {
			t.Error(err)
		}
	}
	mux.HandleFunc("/apiv1/airports", func(w http.ResponseWriter, r *http.Request) {
		reply(w, "airports", []AirportInfo{
			{AirportCode: "KSEA", AirportName: "Seattle Tacoma Intl", RecommendedSceneryId: 42},
			{AirportCode: "KXXX", AirportName: "Broken", RecommendedSceneryId: 7},
			{AirportCode: "KOLD", Deprecated: true, RecommendedSceneryId: 43},
			{AirportCode: "KNUL"},
		})
	})
	mux.HandleFunc("/apiv1/airport/KSEA", func(w http.ResponseWriter, r *http.Request) {
		reply(w, "airport", AirportDetail{ICAO: "KSEA", AirportName: "Seattle Tacoma Intl", RecommendedSceneryId: 42,
			Scenery: []SceneryInfo{{SceneryId: 42, Features: "1,2"}, {SceneryId: 12}}})
	})
	mux.HandleFunc("/apiv1/airport/KNUL", func(w http.ResponseWriter, r *http.Request) {
		reply(w, "airport", AirportDetail{ICAO: "KNUL"})
	})
	mux.HandleFunc("/apiv1/scenery/42", func(w http.ResponseWriter, r *http.Request) {
		reply(w, "scenery", PackInfo{SceneryId: 42, ICAO: "KSEA", Type: "3D", Features: "1,2,8,9999", MasterZipBlob: blob})
	})
	mux.HandleFunc("/apiv1/scenery/7", func(w http.ResponseWriter, r *http.Request) {
		reply(w, "scenery", PackInfo{SceneryId: 7, ICAO: "KXXX", MasterZipBlob: noDat})
	})
	mux.HandleFunc("/apiv1/wrongkey", func(w http.ResponseWriter, r *http.Request) {
		reply(w, "other", 1)
	})

	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.requests.Add(1)
		if g.failures.Add(-1) >= 0 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(g.Close)
	return g
}

func newTestClient(g *testGateway, retries int, ttl time.Duration) *Client {
	return NewClient(config.GatewayConfig{URL: g.URL + "/", Retries: retries, Timeout: 5 * time.Second, CacheTTL: ttl}, nil)
}

func TestSceneryPack(t *testing.T) {
	g := newTestGateway(t)
	c := newTestClient(g, 1, 0)

	pack, err := c.SceneryPack(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}

	if id, _ := pack.Airport.Id(); id != "KSEA" {
		t.Errorf("Airport.Id() = %q", id)
	}
	if pack.Airport.Version() != 1200 || pack.Airport.FromFile() != "KSEA.dat" {
		t.Errorf("Airport version/file = %d/%q", pack.Airport.Version(), pack.Airport.FromFile())
	}
	if !pack.Airport.HasTrafficFlow() || !pack.Airport.HasTaxiRoute() {
		t.Errorf("pack airport missing flow/taxi route")
	}
	if !pack.HasDSF || pack.DSF != "A\n800\nDSF2TEXT\n" {
		t.Errorf("DSF = %v %q", pack.HasDSF, pack.DSF)
	}
	if pack.Readme != "read me" {
		t.Errorf("Readme = %q", pack.Readme)
	}
	if pack.Copying != "GPL Ç" {
		t.Errorf("Copying = %q, want Windows-1252 decoded text", pack.Copying)
	}
	if !slices.Equal(pack.Features, []Feature{HasATCFlow, HasTaxiRoute, HasGroundRoutes}) {
		t.Errorf("Features = %v", pack.Features)
	}
	if !pack.HasFeature(HasGroundRoutes) || pack.HasFeature(Top30) {
		t.Errorf("HasFeature() gave unexpected results")
	}
	if pack.Info.SceneryId != 42 || pack.Info.Type != "3D" || pack.Info.MasterZipBlob != nil {
		t.Errorf("unexpected pack info %+v", pack.Info)
	}

	if _, err := c.SceneryPack(context.Background(), 7); !errors.Is(err, ErrNoAptDat) {
		t.Errorf("SceneryPack(7) error = %v, want ErrNoAptDat", err)
	}
	if _, err := c.SceneryPack(context.Background(), 8); !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("SceneryPack(8) error = %v, want ErrHTTPStatus", err)
	}
}

func TestAirport(t *testing.T) {
	g := newTestGateway(t)
	c := newTestClient(g, 1, time.Minute)
	ctx := context.Background()

	for range 3 {
		d, err := c.Airport(ctx, "KSEA")
		if err != nil {
			t.Fatal(err)
		}
		if d.RecommendedSceneryId != 42 || len(d.Scenery) != 2 || d.Scenery[0].Features != "1,2" {
			t.Errorf("unexpected detail %+v", d)
		}
	}
	if n := g.requests.Load(); n != 1 {
		t.Errorf("made %d requests, expected the detail to be cached", n)
	}

	pack, err := c.RecommendedPack(ctx, "KSEA")
	if err != nil {
		t.Fatal(err)
	}
	if pack.Detail == nil || pack.Detail.ICAO != "KSEA" || pack.Info.SceneryId != 42 {
		t.Errorf("RecommendedPack() = %+v", pack)
	}

	if _, err := c.RecommendedPack(ctx, "KNUL"); !errors.Is(err, ErrNoRecommendation) {
		t.Errorf("RecommendedPack(KNUL) error = %v, want ErrNoRecommendation", err)
	}
}

func TestAirports(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	g := newTestGateway(t)
	c := newTestClient(g, 1, time.Hour)
	ctx := context.Background()

	for range 2 {
		m, err := c.Airports(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(m) != 4 || m["KSEA"].AirportName != "Seattle Tacoma Intl" || !m["KOLD"].Deprecated {
			t.Errorf("Airports() = %+v", m)
		}
	}
	if n := g.requests.Load(); n != 1 {
		t.Errorf("made %d requests, expected the listing to be cached", n)
	}

	// Once the listing is older than the TTL it is fetched again.
	cd, err := os.UserCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(cd, "xpapt", airportsCacheFile), old, old); err != nil {
		t.Fatal(err)
	}
	if m, err := c.Airports(ctx); err != nil || len(m) != 4 {
		t.Errorf("Airports() = %d airports, %v", len(m), err)
	}
	if n := g.requests.Load(); n != 2 {
		t.Errorf("made %d requests, expected the stale listing to be refetched", n)
	}
}

func TestRecommendedPacks(t *testing.T) {
	g := newTestGateway(t)
	c := newTestClient(g, 1, 0)
	ctx := context.Background()

	var got []string
	err := c.RecommendedPacks(ctx, []string{"KSEA", "KOLD", "KNUL", "KZZZ"}, func(p *SceneryPack) error {
		got = append(got, p.Detail.ICAO)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"KSEA"}) {
		t.Errorf("RecommendedPacks() visited %v", got)
	}

	// All airports: KXXX's pack has no apt.dat.
	err = c.RecommendedPacks(ctx, nil, func(p *SceneryPack) error { return nil })
	if !errors.Is(err, ErrNoAptDat) {
		t.Errorf("RecommendedPacks() error = %v, want ErrNoAptDat", err)
	}

	errStop := errors.New("stop")
	err = c.RecommendedPacks(ctx, []string{"KSEA"}, func(p *SceneryPack) error { return errStop })
	if !errors.Is(err, errStop) {
		t.Errorf("RecommendedPacks() error = %v, want callback's error", err)
	}
}

func TestRetries(t *testing.T) {
	g := newTestGateway(t)
	c := newTestClient(g, 3, 0)
	ctx := context.Background()

	g.failures.Store(1)
	if _, err := c.Airport(ctx, "KSEA"); err != nil {
		t.Errorf("Airport() should succeed after a retry: %v", err)
	}
	if n := g.requests.Load(); n != 2 {
		t.Errorf("made %d requests, want 2", n)
	}

	g.failures.Store(1)
	c.Retries = 1
	if _, err := c.Airport(ctx, "KSEA"); !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("Airport() error = %v, want ErrHTTPStatus", err)
	}

	if _, err := request[int](ctx, c, "/apiv1/wrongkey", "airport"); !errors.Is(err, util.ErrJSONKeyNotFound) {
		t.Errorf("request() error = %v, want ErrJSONKeyNotFound", err)
	}

	g.failures.Store(10)
	c.Retries = 5
	cctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := c.Airport(cctx, "KSEA"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Airport() error = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("retries didn't stop when the context expired")
	}
}

func TestParseFeatures(t *testing.T) {
	tests := []struct {
		in   string
		want []Feature
	}{
		{"1,2,8", []Feature{HasATCFlow, HasTaxiRoute, HasGroundRoutes}},
		{"", nil},
		{"9, 42 ,x,1000", []Feature{LowResolutionTerrainPolygons}},
	}
	for _, tt := range tests {
		if f := ParseFeatures(tt.in); !slices.Equal(f, tt.want) {
			t.Errorf("ParseFeatures(%q) = %v, want %v", tt.in, f, tt.want)
		}
	}
	if s := HasTaxiRoute.String(); s != "HasTaxiRoute" {
		t.Errorf("String() = %q", s)
	}
	if s := Feature(9).String(); s != "Feature(9)" {
		t.Errorf("String() = %q", s)
	}
}

func TestDecodeText(t *testing.T) {
	if s := decodeText([]byte("Aéroport")); s != "Aéroport" {
		t.Errorf("decodeText(utf-8) = %q", s)
	}
	if s := decodeText([]byte{'A', 0xe9, 'r'}); s != "Aér" {
		t.Errorf("decodeText(cp1252) = %q", s)
	}
}

func TestUnpackErrors(t *testing.T) {
	if _, err := unpack([]byte("not a zip")); err == nil {
		t.Errorf("unpack() accepted garbage")
	}
	two := makeZip(t, map[string][]byte{"a.dat": []byte("1 0 0 0 A1 One\n1 0 0 0 A2 Two\n")})
	if _, err := unpack(two); !errors.Is(err, aptdat.ErrMultipleAirportHeaders) {
		t.Errorf("unpack() error = %v, want ErrMultipleAirportHeaders", err)
	}
}
