// aptdat/line_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"testing"
)

func TestParseRowCode(t *testing.T) {
	tests := []struct {
		text    string
		want    RowCode
		wantErr bool
	}{
		{"1", AirportHeader, false},
		{"1302", Metadata, false},
		{"99", FileEnd, false},
		{"4242", RowCode(4242), false},
		{"-7", RowCode(-7), false},
		{"+16", SeaportHeader, false},
		{"", InvalidRowCode, true},
		{"-", InvalidRowCode, true},
		{"12a", InvalidRowCode, true},
		{"I", InvalidRowCode, true},
		{"1.5", InvalidRowCode, true},
		{"1234567890", RowCode(1234567890), false},
		{strconv.Itoa(math.MaxInt), RowCode(math.MaxInt), false},
		{strconv.Itoa(math.MinInt), RowCode(math.MinInt), false},
		{strconv.Itoa(math.MaxInt) + "0", InvalidRowCode, true},
		{"99999999999999999999", InvalidRowCode, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			rc, err := ParseRowCode(tt.text)
			if rc != tt.want {
				t.Errorf("ParseRowCode() = %v, want %v", rc, tt.want)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRecord) {
					t.Errorf("ParseRowCode() error = %v, want ErrMalformedRecord", err)
				}
			} else if err != nil {
				t.Errorf("ParseRowCode() unexpected error %v", err)
			}
		})
	}
}

func TestParseRowCodeAllocs(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		if _, err := ParseRowCode("1302"); err != nil {
			t.Fatal(err)
		}
	})
	if allocs != 0 {
		t.Errorf("ParseRowCode allocated %v times, want 0", allocs)
	}
}

func TestRowCodeNames(t *testing.T) {
	tests := []struct {
		rc    RowCode
		name  string
		known bool
	}{
		{AirportHeader, "AirportHeader", true},
		{TaxiRouteNodeRecord, "TaxiRouteNode", true},
		{TaxiRouteEdgeRecord, "TaxiRouteEdge", true},
		{ChannelUnicom, "ChannelUnicom", true},
		{RowCode(4242), "Unknown(4242)", false},
	}
	for _, tt := range tests {
		if n := tt.rc.Name(); n != tt.name {
			t.Errorf("%d.Name() = %q, want %q", tt.rc, n, tt.name)
		}
		if k := tt.rc.Known(); k != tt.known {
			t.Errorf("%d.Known() = %v, want %v", tt.rc, k, tt.known)
		}
	}

	if s := Metadata.String(); s != "1302" {
		t.Errorf("Metadata.String() = %q, want \"1302\"", s)
	}
	for _, rc := range RunwayRowCodes {
		if !rc.IsRunway() || rc.IsAirportHeader() {
			t.Errorf("%s misclassified", rc.Name())
		}
	}
	for _, rc := range AirportHeaderRowCodes {
		if rc.IsRunway() || !rc.IsAirportHeader() {
			t.Errorf("%s misclassified", rc.Name())
		}
	}
	if FrequencyUnicom.IsCommFrequency() || ChannelUnicom.IsCommFrequency() {
		t.Errorf("UNICOM should not be considered an ATC frequency")
	}
	if !FrequencyAWOS.IsCommFrequency() || !ChannelCenter.IsCommFrequency() {
		t.Errorf("expected AWOS and center to be ATC frequencies")
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		tokens []string
		code   RowCode
		raw    string
	}{
		{
			name:   "header",
			text:   "1 433 1 0 KSEA Seattle Tacoma Intl",
			tokens: []string{"1", "433", "1", "0", "KSEA", "Seattle", "Tacoma", "Intl"},
			code:   AirportHeader,
			raw:    "1 433 1 0 KSEA Seattle Tacoma Intl",
		},
		{
			name:   "mixed whitespace",
			text:   "  100\t 45.72  1\r\n",
			tokens: []string{"100", "45.72", "1"},
			code:   LandRunway,
			raw:    "100\t 45.72  1",
		},
		{
			name: "empty",
			text: "",
			code: InvalidRowCode,
		},
		{
			name: "whitespace only",
			text: " \t\r\n",
			code: InvalidRowCode,
		},
		{
			name:   "non-integer code",
			text:   "I",
			tokens: []string{"I"},
			code:   InvalidRowCode,
			raw:    "I",
		},
		{
			name:   "unknown code",
			text:   "4242 future record",
			tokens: []string{"4242", "future", "record"},
			code:   RowCode(4242),
			raw:    "4242 future record",
		},
		{
			name:   "ten-digit code",
			text:   "1234567890 x",
			tokens: []string{"1234567890", "x"},
			code:   RowCode(1234567890),
			raw:    "1234567890 x",
		},
		{
			name:   "utf-8 name",
			text:   "1 1 0 0 LFPG Paris - Charles-de-Gaulle Aéroport",
			tokens: []string{"1", "1", "0", "0", "LFPG", "Paris", "-", "Charles-de-Gaulle", "Aéroport"},
			code:   AirportHeader,
			raw:    "1 1 0 0 LFPG Paris - Charles-de-Gaulle Aéroport",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Tokenize(tt.text)
			if !slices.Equal(l.Tokens, tt.tokens) {
				t.Errorf("Tokenize().Tokens = %q, want %q", l.Tokens, tt.tokens)
			}
			if l.Code != tt.code {
				t.Errorf("Tokenize().Code = %v, want %v", l.Code, tt.code)
			}
			if l.Raw != tt.raw {
				t.Errorf("Tokenize().Raw = %q, want %q", l.Raw, tt.raw)
			}
			if l.Empty() != (len(tt.tokens) == 0) {
				t.Errorf("Empty() = %v", l.Empty())
			}
		})
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	for _, text := range []string{
		"1   433 1 0   KSEA  Seattle Tacoma Intl  ",
		"\t1202 0 1 twoway taxiway_E A, T, Q\r",
		"1302 city",
		"",
	} {
		once := Tokenize(text)
		twice := Tokenize(once.String())
		if !slices.Equal(once.Tokens, twice.Tokens) {
			t.Errorf("Tokenize(%q) not idempotent: %q vs %q", text, once.Tokens, twice.Tokens)
		}
		if twice.String() != once.String() {
			t.Errorf("normalized form changed: %q vs %q", once.String(), twice.String())
		}
	}
}

var sinkLine Line

func TestTokenizeAllocs(t *testing.T) {
	text := "100 45.72 1 0 0.25 1 3 0 16L 47.46380100 -122.30804200 0 0 3 2 1 0 34R 47.43119200 -122.30797600 0 0 3 2 1 0"
	allocs := testing.AllocsPerRun(100, func() {
		sinkLine = Tokenize(text)
	})
	if allocs > 1 {
		t.Errorf("Tokenize allocated %v times, want at most 1", allocs)
	}
}

func TestLineClassification(t *testing.T) {
	tests := []struct {
		text                                      string
		ignorable, fileHeader, aptHeader, isRunway bool
	}{
		{"I", true, true, false, false},
		{" A ", true, true, false, false},
		{"1100 Generated by WorldEditor", true, true, false, false},
		{"99", true, false, false, false},
		{"", true, false, false, false},
		{"1 433 1 0 KSEA Seattle Tacoma Intl", false, false, true, false},
		{"16 0 0 0 X01 Seaplane Base", false, false, true, false},
		{"17 30 0 0 WA01 Heliport", false, false, true, false},
		{"100 45.72 1 0", false, false, false, true},
		{"101 49 1 08", false, false, false, true},
		{"102 H1 47.6 -122.3", false, false, false, true},
		{"junk line", false, false, false, false},
		{"4242 future", false, false, false, false},
	}

	for _, tt := range tests {
		l := Tokenize(tt.text)
		if l.IsIgnorable() != tt.ignorable {
			t.Errorf("%q: IsIgnorable() = %v, want %v", tt.text, l.IsIgnorable(), tt.ignorable)
		}
		if l.IsFileHeader() != tt.fileHeader {
			t.Errorf("%q: IsFileHeader() = %v, want %v", tt.text, l.IsFileHeader(), tt.fileHeader)
		}
		if l.IsAirportHeader() != tt.aptHeader {
			t.Errorf("%q: IsAirportHeader() = %v, want %v", tt.text, l.IsAirportHeader(), tt.aptHeader)
		}
		if l.IsRunway() != tt.isRunway {
			t.Errorf("%q: IsRunway() = %v, want %v", tt.text, l.IsRunway(), tt.isRunway)
		}
	}
}

func TestLineAccessors(t *testing.T) {
	l := Tokenize("1 433 x 0 KSEA Seattle Tacoma Intl")

	if f, err := l.Field(4); err != nil || f != "KSEA" {
		t.Errorf("Field(4) = %q, %v", f, err)
	}
	if v, err := l.Float(1); err != nil || v != 433 {
		t.Errorf("Float(1) = %v, %v", v, err)
	}
	if v, err := l.Int(3); err != nil || v != 0 {
		t.Errorf("Int(3) = %v, %v", v, err)
	}
	if s := l.Join(5); s != "Seattle Tacoma Intl" {
		t.Errorf("Join(5) = %q", s)
	}
	if s := l.Join(20); s != "" {
		t.Errorf("Join(20) = %q, want empty", s)
	}

	_, err := l.Field(8)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Field(8) error = %v, want ErrOutOfRange", err)
	}
	var re *RecordError
	if !errors.As(err, &re) {
		t.Fatalf("Field(8) error %T is not a *RecordError", err)
	}
	if re.Field != 8 || re.Code != AirportHeader || re.Line != l.Raw {
		t.Errorf("unexpected RecordError %+v", re)
	}

	if _, err := l.Int(2); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Int(2) error = %v, want ErrMalformedRecord", err)
	}
	if _, err := l.Float(4); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Float(4) error = %v, want ErrMalformedRecord", err)
	}
	if _, err := l.Field(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Field(-1) error = %v, want ErrOutOfRange", err)
	}
}

func TestMetadataKeys(t *testing.T) {
	if len(AllMetadataKeys) != 14 {
		t.Errorf("expected 14 metadata keys, got %d", len(AllMetadataKeys))
	}
	if k, ok := ParseMetadataKey("icao_code"); !ok || k != MetadataICAOCode {
		t.Errorf("ParseMetadataKey(icao_code) = %v, %v", k, ok)
	}
	if _, ok := ParseMetadataKey("ICAO_CODE"); ok {
		t.Errorf("metadata keys should be case sensitive")
	}
	if _, ok := ParseMetadataKey("not_a_key"); ok {
		t.Errorf("ParseMetadataKey accepted an unknown key")
	}
}
