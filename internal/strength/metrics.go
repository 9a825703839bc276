// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strength

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pwstrength_evaluate_duration_seconds",
		Help:    "Histogram of password evaluation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})

	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pwstrength_evaluations_total",
		Help: "Total number of password evaluations by verdict",
	}, []string{"verdict"})
)

// Verdict labels.
const (
	VerdictWeak     = "weak"
	VerdictModerate = "moderate"
	VerdictStrong   = "strong"
)

// Verdict returns the metric label for a result.
func (r Result) Verdict() string {
	switch {
	case r.Score >= StrongScore:
		return VerdictStrong
	case r.Score >= ModerateScore:
		return VerdictModerate
	default:
		return VerdictWeak
	}
}

// Evaluator wraps Evaluate with metrics.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator creates an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// Evaluate classifies password and records the verdict and latency.
func (e *Evaluator) Evaluate(password string) Result {
	start := e.now()
	res := Evaluate(password)
	evaluateDuration.Observe(e.now().Sub(start).Seconds())
	evaluations.WithLabelValues(res.Verdict()).Inc()
	return res
}

