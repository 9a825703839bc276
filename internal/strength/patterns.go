// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strength

import (
	_ "embed"
	"strings"
	"unicode/utf8"
)

//go:embed common_passwords.txt
var commonPasswordsRaw string

// commonPasswords holds the embedded list, lowercased.
var commonPasswords = parseCommonPasswords(commonPasswordsRaw)

func parseCommonPasswords(raw string) map[string]struct{} {
	lines := strings.Split(raw, "\n")
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		pw := strings.TrimSpace(line)
		if pw == "" {
			continue
		}
		set[strings.ToLower(pw)] = struct{}{}
	}
	return set
}

// keyboardPatterns are runs of physically adjacent keys, lowercased.
var keyboardPatterns = []string{
	"qwerty", "qwertz", "azerty", "asdf", "zxcv",
	"qazwsx", "1qaz", "2wsx", "3edc", "zaq1",
	"poiuy", "lkjhg", "mnbvc",
	"!@#$", "@#$%", "#$%^",
	"0987", "9876",
}

// IsCommon reports whether password appears in the common-password set.
// The comparison is case-insensitive and exact.
func IsCommon(password string) bool {
	_, ok := commonPasswords[strings.ToLower(password)]
	return ok
}

// CommonPasswordCount returns the size of the common-password set.
func CommonPasswordCount() int {
	return len(commonPasswords)
}

func hasKeyboardPattern(password string) bool {
	lower := strings.ToLower(password)
	for _, p := range keyboardPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// hasRepeatedRun reports three or more identical consecutive runes.
func hasRepeatedRun(password string) bool {
	var prev rune = utf8.RuneError
	run := 0
	for _, r := range password {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > maxConsecutiveChars {
			return true
		}
	}
	return false
}

// hasAscendingRun reports a three-rune ascending alphabetic or numeric run
// such as "abc", "XYZ" or "123". Letters are compared case-insensitively.
func hasAscendingRun(password string) bool {
	runes := []rune(strings.ToLower(password))
	for i := 0; i+2 < len(runes); i++ {
		a, b, c := runes[i], runes[i+1], runes[i+2]
		if !sameClass(a, b, c) {
			continue
		}
		if b == a+1 && c == b+1 {
			return true
		}
	}
	return false
}

func sameClass(rs ...rune) bool {
	letters, digits := 0, 0
	for _, r := range rs {
		switch {
		case r >= 'a' && r <= 'z':
			letters++
		case r >= '0' && r <= '9':
			digits++
		}
	}
	return letters == len(rs) || digits == len(rs)
}

// isSequential combines the keyboard, repetition and ascending-run checks.
func isSequential(password string) bool {
	return hasKeyboardPattern(password) || hasRepeatedRun(password) || hasAscendingRun(password)
}
