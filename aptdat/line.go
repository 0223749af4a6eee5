// aptdat/line.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import (
	"strconv"
	"strings"
)

const worldEditorSignature = "Generated by WorldEditor"

// Line is a single tokenized record from an apt.dat file.
type Line struct {
	// Raw is the line's text with leading and trailing whitespace removed.
	Raw string
	// Tokens holds the whitespace-separated fields of the line; Tokens[0]
	// is the row code's text. Tokens are slices of the original text.
	Tokens []string
	// Code is the parsed value of Tokens[0], or InvalidRowCode if the
	// line is empty or doesn't start with an integer.
	Code RowCode
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\v' || ch == '\f'
}

// Tokenize splits a line of text into fields at runs of whitespace. It
// makes a single allocation, for the token slice; the tokens themselves
// refer to the provided string.
func Tokenize(text string) Line {
	// First pass: count fields and find the extent of the non-whitespace
	// text so that the token slice can be allocated exactly.
	n, first, last := 0, -1, -1
	inField := false
	for i := 0; i < len(text); i++ {
		if isSpace(text[i]) {
			inField = false
		} else {
			if !inField {
				inField = true
				n++
				if first == -1 {
					first = i
				}
			}
			last = i
		}
	}
	if n == 0 {
		return Line{Code: InvalidRowCode}
	}

	tokens := make([]string, 0, n)
	start := -1
	for i := first; i <= last; i++ {
		if isSpace(text[i]) {
			if start != -1 {
				tokens = append(tokens, text[start:i])
				start = -1
			}
		} else if start == -1 {
			start = i
		}
	}
	tokens = append(tokens, text[start:last+1])

	code, ok := parseRowCode(tokens[0])
	if !ok {
		code = InvalidRowCode
	}

	return Line{
		Raw:    text[first : last+1],
		Tokens: tokens,
		Code:   code,
	}
}

// Empty returns true for blank or all-whitespace lines.
func (l Line) Empty() bool {
	return len(l.Tokens) == 0
}

// IsFileHeader returns true for the "I"/"A" line and the version line
// that open an apt.dat file.
func (l Line) IsFileHeader() bool {
	return l.Raw == "I" || l.Raw == "A" || strings.Contains(l.Raw, worldEditorSignature)
}

// IsIgnorable returns true if the line carries nothing for any airport:
// blank lines, file header lines and the terminating "99".
func (l Line) IsIgnorable() bool {
	return l.Empty() || l.Code == FileEnd || l.IsFileHeader()
}

func (l Line) IsAirportHeader() bool {
	return l.Code.IsAirportHeader()
}

func (l Line) IsRunway() bool {
	return l.Code.IsRunway()
}

// String returns the line's tokens separated by single spaces.
func (l Line) String() string {
	return strings.Join(l.Tokens, " ")
}

// Join returns the fields from index from onward, separated by single
// spaces. It returns the empty string if the line has fewer fields.
func (l Line) Join(from int) string {
	if from < 0 || from >= len(l.Tokens) {
		return ""
	}
	return strings.Join(l.Tokens[from:], " ")
}

func (l Line) fieldError(i int, err error) error {
	return &RecordError{Code: l.Code, Field: i, Line: l.Raw, Err: err}
}

// Field returns the i'th token of the line; field 0 is the row code.
func (l Line) Field(i int) (string, error) {
	if i < 0 || i >= len(l.Tokens) {
		return "", l.fieldError(i, ErrOutOfRange)
	}
	return l.Tokens[i], nil
}

func (l Line) Float(i int) (float64, error) {
	s, err := l.Field(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, l.fieldError(i, ErrMalformedRecord)
	}
	return v, nil
}

func (l Line) Int(i int) (int, error) {
	s, err := l.Field(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, l.fieldError(i, ErrMalformedRecord)
	}
	return v, nil
}
