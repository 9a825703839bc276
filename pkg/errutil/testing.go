// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"maps"
	"slices"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestingT is the subset of *testing.T the assertions need.
type TestingT interface {
	Errorf(format string, args ...any)
	FailNow()
	Helper()
}

// requireOops stops the test unless err is, or wraps, an oops error.
func requireOops(t TestingT, err error) (oops.OopsError, bool) {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr, ok
}

// AssertErrorCode asserts that err carries code, as reported by Code.
func AssertErrorCode(t TestingT, err error, code string) bool {
	t.Helper()
	if _, ok := requireOops(t, err); !ok {
		return false
	}
	return assert.Equal(t, code, Code(err), "code of error %q", err.Error())
}

// AssertErrorContext asserts that err's oops context maps key to value.
// Context from wrapped oops errors is included.
func AssertErrorContext(t TestingT, err error, key string, value any) bool {
	t.Helper()
	oopsErr, ok := requireOops(t, err)
	if !ok {
		return false
	}
	ctx := oopsErr.Context()
	got, ok := ctx[key]
	if !ok {
		return assert.Fail(t, "missing error context key",
			"key %q not in %v", key, slices.Sorted(maps.Keys(ctx)))
	}
	return assert.Equal(t, value, got, "error context %q", key)
}
