// Package metrics exposes Prometheus counters for the link lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
	OutcomeConsumed = "consumed"
	OutcomeError    = "error"
)

var (
	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediashare_links_created_total",
		Help: "Total number of share links created",
	})

	LinksDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediashare_links_destroyed_total",
		Help: "Total number of share links destroyed by an admin",
	})

	linkResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediashare_link_resolutions_total",
		Help: "Total link resolution attempts by outcome",
	}, []string{"outcome"})
)

// RecordResolution counts one resolution attempt.
func RecordResolution(outcome string) {
	linkResolutions.WithLabelValues(outcome).Inc()
}
