// aptdat/errors.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord    = errors.New("malformed record")
	ErrOutOfRange         = errors.New("out of range")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrNotFound           = errors.New("not found")
)

var (
	ErrNoRunway               = fmt.Errorf("airport has no runway, water runway, or helipad: %w", ErrOutOfRange)
	ErrVersionOutOfRange      = fmt.Errorf("apt.dat version must be less than 9999: %w", ErrOutOfRange)
	ErrDuplicateID            = fmt.Errorf("multiple airports share the identifier: %w", ErrInvariantViolation)
	ErrNoAirportHeader        = fmt.Errorf("no airport header record: %w", ErrInvariantViolation)
	ErrMultipleAirportHeaders = fmt.Errorf("more than one airport header record: %w", ErrInvariantViolation)
	ErrInvalidPath            = errors.New("apt.dat path must end in .dat or .dat.zst")
)

// RecordError describes a problem with a specific field of a single
// record. It unwraps to one of the sentinel errors above so that callers
// can use errors.Is.
type RecordError struct {
	Code  RowCode
	Field int
	Line  string
	Err   error
}

func (e *RecordError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("%q: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%q: field %d: %v", e.Line, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
