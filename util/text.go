// util/text.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

func IsAllNumbers(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// IsInteger reports whether s is an optionally signed run of decimal
// digits.
func IsInteger(s string) bool {
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	return s != "" && IsAllNumbers(s)
}

// StopShouting turns text of the form "SEATTLE TACOMA INTL" to "Seattle
// Tacoma Intl". Words that already have lowercase letters, as in "McCarran",
// are left as they are.
func StopShouting(orig string) string {
	var s strings.Builder
	s.Grow(len(orig))

	var word []rune
	flush := func() {
		if !slices.ContainsFunc(word, unicode.IsLower) {
			for i := 1; i < len(word); i++ {
				word[i] = unicode.ToLower(word[i])
			}
		}
		for _, ch := range word {
			s.WriteRune(ch)
		}
		word = word[:0]
	}

	for _, ch := range orig {
		if unicode.IsLetter(ch) {
			word = append(word, ch)
		} else {
			flush()
			s.WriteRune(ch)
		}
	}
	flush()
	return s.String()
}

// ByteCount returns a human-readable description of a size in bytes.
func ByteCount(v int64) string {
	if v < 1024 {
		return fmt.Sprintf("%d B", v)
	} else if v < 1024*1024 {
		return fmt.Sprintf("%d KiB", v/1024)
	} else if v < 1024*1024*1024 {
		return fmt.Sprintf("%d MiB", v/1024/1024)
	} else {
		return fmt.Sprintf("%d GiB", v/1024/1024/1024)
	}
}
