// aptdat/rowcode.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import (
	"math"
	"slices"
	"strconv"
)

// RowCode is the integer that begins every record in an apt.dat file and
// identifies what kind of record it is. Codes that aren't listed below
// are still valid RowCodes; they pass through parsing and serialization
// unchanged.
type RowCode int

const InvalidRowCode RowCode = -1

const (
	AirportHeader   RowCode = 1
	RunwayOld       RowCode = 10 // X-Plane 8.10 and earlier runway/taxiway
	TowerLocation   RowCode = 14
	StartupLocation RowCode = 15
	SeaportHeader   RowCode = 16
	HeliportHeader  RowCode = 17
	Beacon          RowCode = 18
	Windsock        RowCode = 19
	TaxiSign        RowCode = 20
	PAPILights      RowCode = 21

	FrequencyAWOS     RowCode = 50
	FrequencyCTAF     RowCode = 51
	FrequencyDelivery RowCode = 52
	FrequencyGround   RowCode = 53
	FrequencyTower    RowCode = 54
	FrequencyApproach RowCode = 55
	FrequencyCenter   RowCode = 56
	FrequencyUnicom   RowCode = 57

	FileEnd RowCode = 99

	LandRunway  RowCode = 100
	WaterRunway RowCode = 101
	Helipad     RowCode = 102
	Taxiway     RowCode = 110
	LineSegment RowCode = 111
	LineCurve   RowCode = 112
	RingSegment RowCode = 113
	RingCurve   RowCode = 114
	EndSegment  RowCode = 115
	EndCurve    RowCode = 116
	FreeChain   RowCode = 120
	Boundary    RowCode = 130

	FlowDefinition RowCode = 1000
	FlowWind       RowCode = 1001
	FlowCeiling    RowCode = 1002
	FlowVisibility RowCode = 1003
	FlowTime       RowCode = 1004

	// 8.33kHz channel records that replace the 50..57 records.
	ChannelAWOS     RowCode = 1050
	ChannelCTAF     RowCode = 1051
	ChannelDelivery RowCode = 1052
	ChannelGround   RowCode = 1053
	ChannelTower    RowCode = 1054
	ChannelApproach RowCode = 1055
	ChannelCenter   RowCode = 1056
	ChannelUnicom   RowCode = 1057

	FlowRunwayRule        RowCode = 1100
	FlowPattern           RowCode = 1101
	FlowRunwayRuleChannel RowCode = 1110

	TaxiRouteHeader     RowCode = 1200
	TaxiRouteNodeRecord RowCode = 1201
	TaxiRouteEdgeRecord RowCode = 1202
	TaxiRouteShape      RowCode = 1203
	TaxiRouteHold       RowCode = 1204
	TaxiRouteRoad       RowCode = 1206

	StartLocationNew RowCode = 1300 // replaces 15
	StartLocationExt RowCode = 1301
	Metadata         RowCode = 1302

	TruckParking     RowCode = 1400
	TruckDestination RowCode = 1401
)

var rowCodeNames = map[RowCode]string{
	AirportHeader:         "AirportHeader",
	RunwayOld:             "RunwayOld",
	TowerLocation:         "TowerLocation",
	StartupLocation:       "StartupLocation",
	SeaportHeader:         "SeaportHeader",
	HeliportHeader:        "HeliportHeader",
	Beacon:                "Beacon",
	Windsock:              "Windsock",
	TaxiSign:              "TaxiSign",
	PAPILights:            "PAPILights",
	FrequencyAWOS:         "FrequencyAWOS",
	FrequencyCTAF:         "FrequencyCTAF",
	FrequencyDelivery:     "FrequencyDelivery",
	FrequencyGround:       "FrequencyGround",
	FrequencyTower:        "FrequencyTower",
	FrequencyApproach:     "FrequencyApproach",
	FrequencyCenter:       "FrequencyCenter",
	FrequencyUnicom:       "FrequencyUnicom",
	FileEnd:               "FileEnd",
	LandRunway:            "LandRunway",
	WaterRunway:           "WaterRunway",
	Helipad:               "Helipad",
	Taxiway:               "Taxiway",
	LineSegment:           "LineSegment",
	LineCurve:             "LineCurve",
	RingSegment:           "RingSegment",
	RingCurve:             "RingCurve",
	EndSegment:            "EndSegment",
	EndCurve:              "EndCurve",
	FreeChain:             "FreeChain",
	Boundary:              "Boundary",
	FlowDefinition:        "FlowDefinition",
	FlowWind:              "FlowWind",
	FlowCeiling:           "FlowCeiling",
	FlowVisibility:        "FlowVisibility",
	FlowTime:              "FlowTime",
	ChannelAWOS:           "ChannelAWOS",
	ChannelCTAF:           "ChannelCTAF",
	ChannelDelivery:       "ChannelDelivery",
	ChannelGround:         "ChannelGround",
	ChannelTower:          "ChannelTower",
	ChannelApproach:       "ChannelApproach",
	ChannelCenter:         "ChannelCenter",
	ChannelUnicom:         "ChannelUnicom",
	FlowRunwayRule:        "FlowRunwayRule",
	FlowPattern:           "FlowPattern",
	FlowRunwayRuleChannel: "FlowRunwayRuleChannel",
	TaxiRouteHeader:       "TaxiRouteHeader",
	TaxiRouteNodeRecord:   "TaxiRouteNode",
	TaxiRouteEdgeRecord:   "TaxiRouteEdge",
	TaxiRouteShape:        "TaxiRouteShape",
	TaxiRouteHold:         "TaxiRouteHold",
	TaxiRouteRoad:         "TaxiRouteRoad",
	StartLocationNew:      "StartLocationNew",
	StartLocationExt:      "StartLocationExt",
	Metadata:              "Metadata",
	TruckParking:          "TruckParking",
	TruckDestination:      "TruckDestination",
}

var (
	RunwayRowCodes        = []RowCode{LandRunway, WaterRunway, Helipad}
	AirportHeaderRowCodes = []RowCode{AirportHeader, SeaportHeader, HeliportHeader}
)

// ParseRowCode parses the leading token of a record. Any optionally
// signed decimal integer is accepted, whether or not it is one of the
// codes listed above.
func ParseRowCode(s string) (RowCode, error) {
	if rc, ok := parseRowCode(s); ok {
		return rc, nil
	}
	return InvalidRowCode, &RecordError{Code: InvalidRowCode, Field: 0, Line: s, Err: ErrMalformedRecord}
}

// parseRowCode is the allocation-free path used by the tokenizer. Values
// that don't fit in an int are rejected.
func parseRowCode(s string) (RowCode, bool) {
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if len(s) == 0 {
		return InvalidRowCode, false
	}

	var v uint64
	limit := uint64(math.MaxInt)
	if neg {
		limit++
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			return InvalidRowCode, false
		}
		d := uint64(ch - '0')
		if v > (limit-d)/10 {
			return InvalidRowCode, false
		}
		v = v*10 + d
	}
	if neg {
		return RowCode(-int64(v)), true
	}
	return RowCode(v), true
}

// Known reports whether rc is one of the documented record codes.
func (rc RowCode) Known() bool {
	_, ok := rowCodeNames[rc]
	return ok
}

func (rc RowCode) IsRunway() bool {
	return slices.Contains(RunwayRowCodes, rc)
}

func (rc RowCode) IsAirportHeader() bool {
	return slices.Contains(AirportHeaderRowCodes, rc)
}

// IsCommFrequency reports whether rc is one of the ATC frequency or
// channel records; UNICOM isn't an ATC frequency and is excluded.
func (rc RowCode) IsCommFrequency() bool {
	return (rc >= FrequencyAWOS && rc <= FrequencyCenter) || (rc >= ChannelAWOS && rc <= ChannelCenter)
}

// String returns the code as it is written in apt.dat files.
func (rc RowCode) String() string {
	return strconv.Itoa(int(rc))
}

// Name returns a descriptive name for the code.
func (rc RowCode) Name() string {
	if n, ok := rowCodeNames[rc]; ok {
		return n
	}
	return "Unknown(" + strconv.Itoa(int(rc)) + ")"
}
