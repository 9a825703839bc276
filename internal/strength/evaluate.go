// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strength

import (
	"math"
	"unicode/utf8"
)

// Score thresholds.
const (
	MaxScore      = 100
	ModerateScore = 60
	StrongScore   = 80

	maxLengthBonus  = 10
	maxEntropyBonus = 10
	bonusBaseLength = 8
)

// Verdict messages.
const (
	MessageRequired = "Password is required"
	MessageWeak     = "Weak password"
	MessageModerate = "Moderate password"
	MessageStrong   = "Strong password"
)

// Suggestion texts, in the order Evaluate emits them.
const (
	SuggestCommon     = "This is a commonly used password. Choose something less predictable."
	SuggestSequential = "Avoid repeated characters, sequences like \"abc\" or \"123\", and keyboard patterns like \"qwerty\"."
	SuggestLength     = "Use at least 12 characters."
	SuggestUppercase  = "Add an uppercase letter."
	SuggestLowercase  = "Add a lowercase letter."
	SuggestNumber     = "Add a number."
	SuggestSpecial    = "Add a special character such as ! or #."
	SuggestPassphrase = "Use a longer passphrase of 16 or more characters."
	SuggestComplexity = "Use a more complex password with a wider mix of characters."
)

// Result is the outcome of evaluating a password.
type Result struct {
	Valid        bool      `json:"valid" yaml:"valid"`
	Score        int       `json:"score" yaml:"score"`
	Message      string    `json:"message" yaml:"message"`
	Suggestions  []string  `json:"suggestions" yaml:"suggestions"`
	Entropy      float64   `json:"entropy" yaml:"entropy"`
	CrackTime    CrackTime `json:"crackTime" yaml:"crackTime"`
	Requirements Checks    `json:"requirements" yaml:"requirements"`
}

// Evaluate classifies password. It never fails; an empty password yields a
// zero score.
func Evaluate(password string) Result {
	if password == "" {
		return Result{
			Message:     MessageRequired,
			Suggestions: []string{SuggestLength},
			CrackTime:   CrackInstantly,
		}
	}

	length := utf8.RuneCountInString(password)
	entropy := Entropy(password)
	cls := classify(password)

	checks := Checks{
		MinLength:      length >= minLength,
		HasUppercase:   cls.upper,
		HasLowercase:   cls.lower,
		HasNumber:      cls.digit,
		HasSpecialChar: cls.special,
		NotCommon:      !IsCommon(password),
		NotSequential:  !isSequential(password),
	}

	score := checks.points() + lengthBonus(length) + entropyBonus(entropy)
	if score > MaxScore {
		score = MaxScore
	}

	res := Result{
		Score:        score,
		Entropy:      entropy,
		CrackTime:    EstimateCrackTime(entropy),
		Requirements: checks,
		Suggestions:  suggest(checks, length, entropy),
	}

	switch {
	case score >= StrongScore:
		res.Valid, res.Message = true, MessageStrong
	case score >= ModerateScore:
		res.Valid, res.Message = true, MessageModerate
	default:
		res.Message = MessageWeak
	}

	return res
}

func lengthBonus(length int) int {
	bonus := (length - bonusBaseLength) * 2
	if bonus < 0 {
		return 0
	}
	return min(bonus, maxLengthBonus)
}

func entropyBonus(entropy float64) int {
	return min(int(math.Floor(entropy/4)), maxEntropyBonus)
}

func suggest(c Checks, length int, entropy float64) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(cond bool, msg string) {
		if !cond {
			return
		}
		if _, dup := seen[msg]; dup {
			return
		}
		seen[msg] = struct{}{}
		out = append(out, msg)
	}

	add(!c.NotCommon, SuggestCommon)
	add(!c.NotSequential, SuggestSequential)
	add(!c.MinLength, SuggestLength)
	add(!c.HasUppercase, SuggestUppercase)
	add(!c.HasLowercase, SuggestLowercase)
	add(!c.HasNumber, SuggestNumber)
	add(!c.HasSpecialChar, SuggestSpecial)
	add(length < passphraseLength, SuggestPassphrase)
	add(entropy < complexEntropy, SuggestComplexity)

	return out
}
