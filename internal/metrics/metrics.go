// Package metrics holds the Prometheus collectors shared by every binary.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fintrack"

// ─── Recurring automation ───────────────────────────────────────────────────

// RecurringApplied counts transactions materialised from recurring rules.
var RecurringApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "recurring",
	Name:      "applied_total",
	Help:      "Transactions created from recurring rules.",
}, []string{"frequency"})

// RecurringFailed counts due rules whose application failed.
var RecurringFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "recurring",
	Name:      "failed_total",
	Help:      "Due recurring rules that could not be applied.",
}, []string{"frequency"})

// RecurringSkipped counts malformed rules left out of a scan.
var RecurringSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "recurring",
	Name:      "skipped_total",
	Help:      "Malformed recurring rules skipped during scans.",
})

// AutomationRuns counts day-guarded automation invocations by outcome
// (ran, skipped, error).
var AutomationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "automation",
	Name:      "runs_total",
	Help:      "Recurring automation invocations by outcome.",
}, []string{"outcome"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route pattern and status code.",
}, []string{"route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// RateLimited counts write requests rejected by the per-client limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
})

// ─── Sync ───────────────────────────────────────────────────────────────────

// SheetsSynced counts transactions appended to the spreadsheet by result.
var SheetsSynced = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "sync",
	Name:      "sheets_rows_total",
	Help:      "Transactions exported to Google Sheets by result.",
}, []string{"result"})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
