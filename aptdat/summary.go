// aptdat/summary.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import (
	"errors"
	"strconv"

	"github.com/mmp/xpapt/math"
	"github.com/mmp/xpapt/util"
)

// Summary is a flattened description of an airport, suitable for
// indexing and reporting.
type Summary struct {
	Id        string
	Name      string
	Elevation float64 // feet MSL
	HasATC    bool
	// Location is only meaningful if HasLocation is set; airports
	// without runways don't have one.
	Location    math.Point2LL
	HasLocation bool

	HasTaxiway      bool
	HasTaxiRoute    bool
	HasTrafficFlow  bool
	HasGroundRoutes bool
	HasTaxiwaySign  bool
	HasCommFreq     bool

	Metadata map[MetadataKey]string
	Records  int
	FromFile string
	Version  int
}

// Summarize collects the airport's header fields, location and
// capabilities. Airports without runways are summarized without a
// location; any other problem with the records is returned as an error.
func (ap *Airport) Summarize() (Summary, error) {
	s := Summary{
		HasTaxiway:      ap.HasTaxiway(),
		HasTaxiRoute:    ap.HasTaxiRoute(),
		HasTrafficFlow:  ap.HasTrafficFlow(),
		HasGroundRoutes: ap.HasGroundRoutes(),
		HasTaxiwaySign:  ap.HasTaxiwaySign(),
		HasCommFreq:     ap.HasCommFreq(),
		Metadata:        ap.Metadata(),
		Records:         ap.Len(),
		FromFile:        ap.FromFile(),
		Version:         ap.Version(),
	}

	var err error
	if s.Id, err = ap.Id(); err != nil {
		return Summary{}, err
	}
	if s.Name, err = ap.Name(); err != nil {
		return Summary{}, err
	}
	if s.Elevation, err = ap.Elevation(); err != nil {
		return Summary{}, err
	}
	if s.HasATC, err = ap.HasATC(); err != nil {
		return Summary{}, err
	}

	if s.Location, err = ap.Location(); err == nil {
		s.HasLocation = true
	} else if !errors.Is(err, ErrNoRunway) {
		return Summary{}, err
	}

	return s, nil
}

// Summaries summarizes all of the airports. Airports that can't be
// summarized are reported to e and skipped.
func (ad *AptDat) Summaries(e *util.ErrorLogger) []Summary {
	defer e.CheckDepth(e.CurrentDepth())

	sums := make([]Summary, 0, len(ad.Airports))
	for i, ap := range ad.Airports {
		id, err := ap.Id()
		if err != nil {
			id = "#" + strconv.Itoa(i)
		}
		e.Push(id)
		if s, err := ap.Summarize(); err != nil {
			e.Error(err)
		} else {
			sums = append(sums, s)
		}
		e.Pop()
	}
	return sums
}
