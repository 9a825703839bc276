// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package breach

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values.
const (
	sourceLocal = "local"
	sourceRange = "range"

	resultExposed = "exposed"
	resultClean   = "clean"
	resultError   = "error"
)

var (
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pwstrength_breach_lookups_total",
		Help: "Total number of breach lookups by source and result",
	}, []string{"source", "result"})

	rangeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pwstrength_breach_range_cache_hits_total",
		Help: "Total number of range lookups served from the prefix cache",
	})

	rangeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pwstrength_breach_range_requests_total",
		Help: "Total number of HTTP requests to the range API by status class",
	}, []string{"status"})
)

func recordLookup(source string, exposed bool) {
	result := resultClean
	if exposed {
		result = resultExposed
	}
	lookups.WithLabelValues(source, result).Inc()
}
