// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strength

// Requirements describes the password policy enforced by Evaluate.
type Requirements struct {
	MinLength           int
	RequireUppercase    bool
	RequireLowercase    bool
	RequireNumbers      bool
	RequireSpecialChars bool
	MaxConsecutiveChars int
	MinUniqueChars      int
}

// Policy constants.
const (
	minLength           = 12
	maxConsecutiveChars = 2
	minUniqueChars      = 8

	// passphraseLength is the length below which a longer passphrase is suggested.
	passphraseLength = 16

	// complexEntropy is the entropy (bits) below which more complexity is suggested.
	complexEntropy = 50
)

// DefaultRequirements returns the policy used by Evaluate.
func DefaultRequirements() Requirements {
	return Requirements{
		MinLength:           minLength,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequireNumbers:      true,
		RequireSpecialChars: true,
		MaxConsecutiveChars: maxConsecutiveChars,
		MinUniqueChars:      minUniqueChars,
	}
}

// Checks reports which individual requirements a password satisfies.
type Checks struct {
	MinLength      bool `json:"minLength" yaml:"minLength"`
	HasUppercase   bool `json:"hasUppercase" yaml:"hasUppercase"`
	HasLowercase   bool `json:"hasLowercase" yaml:"hasLowercase"`
	HasNumber      bool `json:"hasNumber" yaml:"hasNumber"`
	HasSpecialChar bool `json:"hasSpecialChar" yaml:"hasSpecialChar"`
	NotCommon      bool `json:"notCommon" yaml:"notCommon"`
	NotSequential  bool `json:"notSequential" yaml:"notSequential"`
}

// Score weights for satisfied checks. They sum to 100.
const (
	weightLength     = 20
	weightUppercase  = 15
	weightLowercase  = 15
	weightNumber     = 15
	weightSpecial    = 15
	weightNotCommon  = 10
	weightSequential = 10
)

// points returns the weighted sum of satisfied checks.
func (c Checks) points() int {
	total := 0
	for _, w := range []struct {
		ok     bool
		weight int
	}{
		{c.MinLength, weightLength},
		{c.HasUppercase, weightUppercase},
		{c.HasLowercase, weightLowercase},
		{c.HasNumber, weightNumber},
		{c.HasSpecialChar, weightSpecial},
		{c.NotCommon, weightNotCommon},
		{c.NotSequential, weightSequential},
	} {
		if w.ok {
			total += w.weight
		}
	}
	return total
}
