// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strength

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Registered(t *testing.T) {
	NewEvaluator().Evaluate("warmup")

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	registered := make(map[string]bool)
	for _, family := range families {
		registered[family.GetName()] = true
	}

	for _, name := range []string{
		"pwstrength_evaluate_duration_seconds",
		"pwstrength_evaluations_total",
	} {
		assert.True(t, registered[name], "metric %q should be registered", name)
	}
}

func TestEvaluator_RecordsVerdict(t *testing.T) {
	tests := []struct {
		password string
		verdict  string
	}{
		{"password", VerdictWeak},
		{"bluecarpetwalks", VerdictModerate},
		{"Gx7#pLm2!vQz", VerdictStrong},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.verdict, func(t *testing.T) {
			before := testutil.ToFloat64(evaluations.WithLabelValues(tt.verdict))

			res := e.Evaluate(tt.password)

			assert.Equal(t, Evaluate(tt.password), res)
			assert.Equal(t, tt.verdict, res.Verdict())
			assert.Equal(t, before+1, testutil.ToFloat64(evaluations.WithLabelValues(tt.verdict)))
		})
	}
}

func TestEvaluator_ObservesDuration(t *testing.T) {
	NewEvaluator().Evaluate("Tr0ub4dor&3")
	assert.GreaterOrEqual(t, testutil.CollectAndCount(evaluateDuration), 1)
}
