// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package strength classifies candidate passwords.
//
// # Evaluation
//
// Evaluate scores a password from 0 to 100 by summing fixed weights for the
// checks it satisfies (length, character classes, not common, not
// sequential) plus small length and entropy bonuses. The result carries an
// entropy estimate, a coarse crack-time bucket, a validity verdict and an
// ordered list of suggestions suitable for rendering next to a form field.
//
// Evaluate is pure and total: every string, including the empty string and
// non-ASCII input, produces a Result. Use an Evaluator when the call should
// also be recorded in Prometheus metrics.
//
// # Similarity
//
// IsSimilar compares a new password with a previous one using the
// Levenshtein edit distance returned by Distance.
package strength
