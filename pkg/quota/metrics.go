package quota

import (
	"math"
	"net/http"

	metrics "github.com/docker/go-metrics"
)

// Metrics publishes the adjuster's per-tick decisions as Prometheus
// gauges, via docker/go-metrics. It is pure observability: nothing it
// records feeds back into allocation (adjuster.go never reads from
// it). A nil *Metrics (the zero value returned by disabling it) makes
// every method a no-op, so wiring it is optional.
type Metrics struct {
	ns *metrics.Namespace

	rateLimit metrics.LabeledGauge
	headroom  metrics.LabeledGauge
	ruQuota   metrics.LabeledGauge
}

// NewMetrics builds a Metrics instance under the "bgquota"/"adjuster"
// namespace and registers it with docker/go-metrics' default registry,
// so a caller can serve it with Handler.
func NewMetrics() *Metrics {
	ns := metrics.NewNamespace("bgquota", "adjuster", nil)

	m := &Metrics{
		ns: ns,
		rateLimit: ns.NewLabeledGauge(
			"rate_limit",
			"Current per-second rate-limit setpoint written to a background group's sub-limiter.",
			metrics.Unit("per_second"),
			"dim", "group",
		),
		headroom: ns.NewLabeledGauge(
			"available_quota",
			"Estimated spare capacity computed for a dimension on its most recent adjustment.",
			metrics.Unit("per_second"),
			"dim",
		),
		ruQuota: ns.NewLabeledGauge(
			"ru_quota",
			"Administrative resource-unit weight of a background group, as last observed.",
			metrics.Unit("ru"),
			"group",
		),
	}
	metrics.Register(ns)
	return m
}

// Handler exposes the registered namespaces (including this one) as a
// Prometheus scrape endpoint.
func Handler() http.Handler {
	return metrics.Handler()
}

// observeRateLimit records one group's freshly written setpoint for a
// dimension. +Inf is reported as the largest finite float64 so the
// gauge stays a valid Prometheus sample rather than emitting +Inf.
func (m *Metrics) observeRateLimit(dim ResourceType, group string, limit float64) {
	if m == nil {
		return
	}
	if math.IsInf(limit, 1) {
		limit = math.MaxFloat64
	}
	m.rateLimit.WithValues(dim.String(), group).Set(limit)
}

// observeHeadroom records a dimension's available_quota for this tick.
func (m *Metrics) observeHeadroom(dim ResourceType, availableQuota float64) {
	if m == nil {
		return
	}
	m.headroom.WithValues(dim.String()).Set(availableQuota)
}

// observeRUQuota records a group's administrative weight.
func (m *Metrics) observeRUQuota(group string, ruQuota float64) {
	if m == nil {
		return
	}
	m.ruQuota.WithValues(group).Set(ruQuota)
}
