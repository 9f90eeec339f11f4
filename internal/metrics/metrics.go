// Package metrics exposes Prometheus diagnostics for the analytics
// pipeline. Everything here is informational: drop counters explain why
// rows left the canonical table, they are never part of a result contract.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the service.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// RowsIngested counts raw rows seen by the call-log normalizer.
var RowsIngested = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "recall",
	Name:      "rows_ingested_total",
	Help:      "Raw rows read from uploaded call-log files",
})

// RowsDropped counts rows removed during normalization, by cause.
var RowsDropped = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "recall",
	Name:      "rows_dropped_total",
	Help:      "Rows dropped during call-log normalization",
}, []string{"cause"})

// Drop causes used with RowsDropped.
const (
	CauseNoTimestamp   = "no_timestamp"
	CauseBlockedPhone  = "blocked_phone"
	CauseShortPhone    = "short_phone"
	CauseInvalidNumber = "invalid_number"
	CauseRepeatedDigit = "repeated_digit"
)

// RecallEvents counts detected recall events per window.
var RecallEvents = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "recall",
	Name:      "events_total",
	Help:      "Recall events detected, partitioned by latency window",
}, []string{"window"})

// AgentsRanked tracks the size of the last generated agent ranking.
var AgentsRanked = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "recall",
	Name:      "agents_ranked",
	Help:      "Number of agents in the most recent ranking",
})
