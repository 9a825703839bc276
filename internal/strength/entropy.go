// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strength

import (
	"math"
	"unicode/utf8"
)

// CrackTime is a coarse estimate of brute-force time to break a password.
type CrackTime string

// Crack-time buckets, fastest first.
const (
	CrackInstantly CrackTime = "instantly"
	CrackSeconds   CrackTime = "seconds"
	CrackMinutes   CrackTime = "minutes"
	CrackHours     CrackTime = "hours"
	CrackDays      CrackTime = "days"
	CrackMonths    CrackTime = "months"
	CrackYears     CrackTime = "years"
)

// GuessesPerSecond is the assumed offline attack rate.
const GuessesPerSecond = 1e10

// Character-class pool sizes used for the entropy estimate.
const (
	poolLower   = 26
	poolUpper   = 26
	poolDigit   = 10
	poolSpecial = 32
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerMonth  = 30 * secondsPerDay
	secondsPerYear   = 365 * secondsPerDay
)

// classes records which character classes a password uses.
type classes struct {
	lower, upper, digit, special bool
}

func classify(password string) classes {
	var c classes
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= '0' && r <= '9':
			c.digit = true
		default:
			c.special = true
		}
	}
	return c
}

func (c classes) poolSize() int {
	size := 0
	if c.lower {
		size += poolLower
	}
	if c.upper {
		size += poolUpper
	}
	if c.digit {
		size += poolDigit
	}
	if c.special {
		size += poolSpecial
	}
	return size
}

// Entropy estimates the password's entropy in bits as
// length * log2(pool size), where length is counted in runes.
func Entropy(password string) float64 {
	pool := classify(password).poolSize()
	if pool == 0 {
		return 0
	}
	return float64(utf8.RuneCountInString(password)) * math.Log2(float64(pool))
}

// EstimateCrackTime maps an entropy value to a crack-time bucket at
// GuessesPerSecond.
func EstimateCrackTime(entropy float64) CrackTime {
	seconds := math.Pow(2, entropy) / GuessesPerSecond
	switch {
	case seconds < 1:
		return CrackInstantly
	case seconds < secondsPerMinute:
		return CrackSeconds
	case seconds < secondsPerHour:
		return CrackMinutes
	case seconds < secondsPerDay:
		return CrackHours
	case seconds < secondsPerMonth:
		return CrackDays
	case seconds < secondsPerYear:
		return CrackMonths
	default:
		return CrackYears
	}
}
