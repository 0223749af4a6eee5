// gateway/scenery.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/util"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

var (
	ErrNoAptDat         = errors.New("no apt.dat in scenery pack")
	ErrNoRecommendation = errors.New("airport has no recommended scenery pack")
)

// Feature is a tag that may be applied to scenery packs on the Gateway.
// The set changes frequently; HasATCFlow, HasTaxiRoute, LRInternalUse,
// ExcludeSubmissions and HasGroundRoutes are guaranteed to be stable.
type Feature int

const (
	HasATCFlow                     Feature = 1
	HasTaxiRoute                   Feature = 2
	HasNavaidConflict              Feature = 3
	AlwaysFlatten                  Feature = 4
	HasLogTxtIssue                 Feature = 5
	LRInternalUse                  Feature = 6
	ExcludeSubmissions             Feature = 7
	HasGroundRoutes                Feature = 8
	TerrainIncompatible            Feature = 10
	RunwayNumberingOrLengthFix     Feature = 11
	AlwaysFlattenIneffective       Feature = 12
	MajorAirport                   Feature = 15
	TerrainIncompatibleAtPerimeter Feature = 17
	RunwayNumberingFix             Feature = 18
	IconicAirport                  Feature = 19
	FloatingRunway                 Feature = 20
	GroundRoutesCertified          Feature = 29
	FacadeInjection                Feature = 31
	ScenicAirport                  Feature = 32
	MisusedGroundPolygons          Feature = 35
	Top30                          Feature = 36
	Top50                          Feature = 37
	RunwayInWater                  Feature = 38
	RunwayUnusable                 Feature = 40
	TerrainMeshMissing             Feature = 41
	LowResolutionTerrainPolygons   Feature = 42
)

var featureNames = map[Feature]string{
	HasATCFlow:                     "HasATCFlow",
	HasTaxiRoute:                   "HasTaxiRoute",
	HasNavaidConflict:              "HasNavaidConflict",
	AlwaysFlatten:                  "AlwaysFlatten",
	HasLogTxtIssue:                 "HasLogTxtIssue",
	LRInternalUse:                  "LRInternalUse",
	ExcludeSubmissions:             "ExcludeSubmissions",
	HasGroundRoutes:                "HasGroundRoutes",
	TerrainIncompatible:            "TerrainIncompatible",
	RunwayNumberingOrLengthFix:     "RunwayNumberingOrLengthFix",
	AlwaysFlattenIneffective:       "AlwaysFlattenIneffective",
	MajorAirport:                   "MajorAirport",
	TerrainIncompatibleAtPerimeter: "TerrainIncompatibleAtPerimeter",
	RunwayNumberingFix:             "RunwayNumberingFix",
	IconicAirport:                  "IconicAirport",
	FloatingRunway:                 "FloatingRunway",
	GroundRoutesCertified:          "GroundRoutesCertified",
	FacadeInjection:                "FacadeInjection",
	ScenicAirport:                  "ScenicAirport",
	MisusedGroundPolygons:          "MisusedGroundPolygons",
	Top30:                          "Top30",
	Top50:                          "Top50",
	RunwayInWater:                  "RunwayInWater",
	RunwayUnusable:                 "RunwayUnusable",
	TerrainMeshMissing:             "TerrainMeshMissing",
	LowResolutionTerrainPolygons:   "LowResolutionTerrainPolygons",
}

func (f Feature) String() string {
	if n, ok := featureNames[f]; ok {
		return n
	}
	return "Feature(" + strconv.Itoa(int(f)) + ")"
}

// ParseFeatures parses the Gateway's comma-separated list of feature
// ids. Ids that aren't known are dropped.
func ParseFeatures(s string) []Feature {
	var f []Feature
	for _, id := range strings.Split(s, ",") {
		if v, err := strconv.Atoi(strings.TrimSpace(id)); err == nil {
			if _, ok := featureNames[Feature(v)]; ok {
				f = append(f, Feature(v))
			}
		}
	}
	return f
}

// PackInfo is the Gateway's metadata about a scenery pack.
type PackInfo struct {
	SceneryId          int            `json:"sceneryId"`
	ParentId           int            `json:"parentId"`
	ICAO               string         `json:"icao"`
	AptName            string         `json:"aptName"`
	UserId             int            `json:"userId"`
	UserName           string         `json:"userName"`
	DateUploaded       string         `json:"dateUploaded"`
	DateAccepted       string         `json:"dateAccepted"`
	DateApproved       string         `json:"dateApproved"`
	DateDeclined       string         `json:"dateDeclined"`
	Type               string         `json:"type"`
	Features           string         `json:"features"`
	ArtistComments     string         `json:"artistComments"`
	ModeratorComments  string         `json:"moderatorComments"`
	AdditionalMetadata map[string]any `json:"additionalMetadata"`
	// MasterZipBlob is base64 encoded in the JSON.
	MasterZipBlob []byte `json:"masterZipBlob"`
}

// SceneryPack holds the contents of a scenery pack downloaded from the
// Gateway.
type SceneryPack struct {
	Info     PackInfo
	Features []Feature
	Airport  *aptdat.Airport
	// DSF is the text form of the pack's DSF; packs without 3D scenery
	// don't have one and HasDSF is false.
	DSF     string
	HasDSF  bool
	Readme  string
	Copying string
	// Detail is the Gateway's information about the pack's airport, if
	// it has been fetched.
	Detail *AirportDetail
}

func (p *SceneryPack) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

// SceneryPack downloads the scenery pack with the given id and extracts
// its contents.
func (c *Client) SceneryPack(ctx context.Context, id int) (*SceneryPack, error) {
	info, err := request[PackInfo](ctx, c, "/apiv1/scenery/"+strconv.Itoa(id), "scenery")
	if err != nil {
		return nil, err
	}

	pack, err := unpack(info.MasterZipBlob)
	if err != nil {
		return nil, fmt.Errorf("scenery pack %d: %w", id, err)
	}
	pack.Features = ParseFeatures(info.Features)
	info.MasterZipBlob = nil
	pack.Info = info

	c.lg.Debugf("scenery pack %d: %s, %d records, features %v", id, info.ICAO, pack.Airport.Len(), pack.Features)
	return pack, nil
}

// RecommendedPack downloads the Gateway's recommended scenery pack for
// the given airport.
func (c *Client) RecommendedPack(ctx context.Context, airportId string) (*SceneryPack, error) {
	detail, err := c.Airport(ctx, airportId)
	if err != nil {
		return nil, err
	}
	if detail.RecommendedSceneryId == 0 {
		return nil, fmt.Errorf("%s: %w", airportId, ErrNoRecommendation)
	}

	pack, err := c.SceneryPack(ctx, detail.RecommendedSceneryId)
	if err != nil {
		return nil, err
	}
	pack.Detail = &detail
	return pack, nil
}

// RecommendedPacks downloads the recommended scenery packs of the given
// airports, or of all airports on the Gateway if ids is empty, and calls
// fn with each one. Deprecated airports and those without a recommended
// pack are skipped. Packs are downloaded concurrently but fn is never
// called concurrently; the order of calls is unspecified.
func (c *Client) RecommendedPacks(ctx context.Context, ids []string, fn func(*SceneryPack) error) error {
	airports, err := c.Airports(ctx)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		ids = util.SortedMapKeys(airports)
	}

	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, id := range ids {
		ap, ok := airports[id]
		if !ok {
			c.lg.Warnf("%s: not found on the gateway", id)
			continue
		}
		if ap.Deprecated || ap.RecommendedSceneryId == 0 {
			continue
		}

		eg.Go(func() error {
			pack, err := c.SceneryPack(ctx, ap.RecommendedSceneryId)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			pack.Detail = &AirportDetail{
				ICAO:                 ap.AirportCode,
				AirportName:          ap.AirportName,
				AirportClass:         ap.AirportClass,
				Latitude:             ap.Latitude,
				Longitude:            ap.Longitude,
				Elevation:            ap.Elevation,
				AcceptedSceneryCount: ap.AcceptedSceneryCount,
				ApprovedSceneryCount: ap.ApprovedSceneryCount,
				RecommendedSceneryId: ap.RecommendedSceneryId,
			}

			mu.Lock()
			defer mu.Unlock()
			return fn(pack)
		})
	}
	return eg.Wait()
}

func unpack(blob []byte) (*SceneryPack, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, err
	}

	pack := &SceneryPack{}
	for _, f := range zr.File {
		switch path.Ext(f.Name) {
		case ".txt":
			if pack.DSF, err = readText(f); err != nil {
				return nil, err
			}
			pack.HasDSF = true

		case ".dat":
			text, err := readText(f)
			if err != nil {
				return nil, err
			}
			ad, err := aptdat.Parse(text, f.Name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			switch ad.Len() {
			case 0:
				return nil, fmt.Errorf("%s: %w", f.Name, ErrNoAptDat)
			case 1:
				pack.Airport = ad.Airports[0]
			default:
				return nil, fmt.Errorf("%s: %w", f.Name, aptdat.ErrMultipleAirportHeaders)
			}

		case ".zip":
			if err := pack.readNestedZip(f); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}

	if pack.Airport == nil {
		return nil, ErrNoAptDat
	}
	return pack, nil
}

// readNestedZip picks up the README and COPYING files from the zip file
// holding the airport's complete scenery.
func (p *SceneryPack) readNestedZip(f *zip.File) error {
	b, err := readFile(f)
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return err
	}

	for _, nf := range zr.File {
		name := strings.ToUpper(path.Base(nf.Name))
		if strings.Contains(name, "README") {
			if p.Readme, err = readText(nf); err != nil {
				return err
			}
		} else if strings.Contains(name, "COPYING") {
			if p.Copying, err = readText(nf); err != nil {
				return err
			}
		}
	}
	return nil
}

func readFile(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func readText(f *zip.File) (string, error) {
	b, err := readFile(f)
	if err != nil {
		return "", err
	}
	return decodeText(b), nil
}

// decodeText returns b as a string; some older packs weren't uploaded as
// UTF-8, in which case they're assumed to be Windows-1252.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	if s, err := charmap.Windows1252.NewDecoder().Bytes(b); err == nil {
		return string(s)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
