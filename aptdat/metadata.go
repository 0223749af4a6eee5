// aptdat/metadata.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import "slices"

// MetadataKey is one of the recognized keys of a 1302 metadata record.
type MetadataKey string

const (
	MetadataCity            MetadataKey = "city"
	MetadataCountry         MetadataKey = "country"
	MetadataDatumLat        MetadataKey = "datum_lat"
	MetadataDatumLon        MetadataKey = "datum_lon"
	MetadataFAACode         MetadataKey = "faa_code"
	MetadataGUILabel        MetadataKey = "gui_label"
	MetadataIATACode        MetadataKey = "iata_code"
	MetadataICAOCode        MetadataKey = "icao_code"
	MetadataLocalCode       MetadataKey = "local_code"
	MetadataLocalAuthority  MetadataKey = "local_authority"
	MetadataRegionCode      MetadataKey = "region_code"
	MetadataState           MetadataKey = "state"
	MetadataTransitionAlt   MetadataKey = "transition_alt"
	MetadataTransitionLevel MetadataKey = "transition_level"
)

var AllMetadataKeys = []MetadataKey{
	MetadataCity, MetadataCountry, MetadataDatumLat, MetadataDatumLon,
	MetadataFAACode, MetadataGUILabel, MetadataIATACode, MetadataICAOCode,
	MetadataLocalCode, MetadataLocalAuthority, MetadataRegionCode,
	MetadataState, MetadataTransitionAlt, MetadataTransitionLevel,
}

// ParseMetadataKey returns the MetadataKey for s, which must match one of
// the known keys exactly.
func ParseMetadataKey(s string) (MetadataKey, bool) {
	k := MetadataKey(s)
	return k, slices.Contains(AllMetadataKeys, k)
}

func (k MetadataKey) String() string {
	return string(k)
}

// isEmptyMetadata identifies metadata records without a value; X-Plane
// rejects these so they are dropped when airports are written.
func isEmptyMetadata(l Line) bool {
	return l.Code == Metadata && len(l.Tokens) <= 2
}

func parseMetadata(lines []Line) map[MetadataKey]string {
	m := make(map[MetadataKey]string)
	for _, l := range lines {
		if l.Code != Metadata || isEmptyMetadata(l) {
			continue
		}
		if k, ok := ParseMetadataKey(l.Tokens[1]); ok {
			m[k] = l.Join(2)
		}
	}
	return m
}
