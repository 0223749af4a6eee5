// util/json.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

///////////////////////////////////////////////////////////////////////////
// JSON

var ErrJSONKeyNotFound = errors.New("key not found in JSON object")

// Unmarshal the bytes into the given type but go through some efforts to
// return useful error messages when the JSON is invalid...
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	if err := json.Unmarshal(b, out); err != nil {
		return positionedJSONError(b, 0, err)
	}
	return nil
}

// UnmarshalJSONField decodes the value of key in the JSON object read from
// r, as returned by APIs that wrap their results in an envelope. Errors
// name the key and give their position in the complete input.
func UnmarshalJSONField[T any](r io.Reader, key string, out *T) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var envelope map[string]json.RawMessage
	if err := UnmarshalJSONBytes(b, &envelope); err != nil {
		return err
	}
	raw, ok := envelope[key]
	if !ok {
		return fmt.Errorf("%q: %w", key, ErrJSONKeyNotFound)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%q: %w", key, positionedJSONError(b, fieldOffset(b, key, raw), err))
	}
	return nil
}

// fieldOffset returns the offset of the value of key in the JSON object b.
// As with json.Unmarshal, the last of repeated keys wins.
func fieldOffset(b []byte, key string, raw []byte) int64 {
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return 0
	}

	var offset int64
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return offset
		}
		start := dec.InputOffset()
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return offset
		}
		if tok == key {
			if i := bytes.Index(b[start:], raw); i >= 0 {
				offset = start + int64(i)
			}
		}
	}
	return offset
}

// positionedJSONError converts the byte offset in errors from decoding
// b[base:] into a line and character in b.
func positionedJSONError(b []byte, base int64, err error) error {
	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(base+offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %v", line, char, jerr)

	case *json.UnmarshalTypeError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())

	default:
		return err
	}
}
