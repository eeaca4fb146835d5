package blocklist

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainsBlocked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blocklist",
		Subsystem: "snapshot",
		Name:      "domains_blocked",
		Help:      "Number of domains in the current blocklist snapshot",
	})

	updatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blocklist",
		Subsystem: "snapshot",
		Name:      "updates_total",
		Help:      "Number of completed blocklist updates",
	})

	lastUpdate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blocklist",
		Subsystem: "snapshot",
		Name:      "last_update_timestamp_seconds",
		Help:      "Unix time of the last completed blocklist update",
	})

	sourceResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blocklist",
		Subsystem: "source",
		Name:      "results_total",
		Help:      "Outcome of each list source per update",
	}, []string{"result"})
)

const (
	resultOK          = "ok"
	resultUnavailable = "unavailable"
	resultParseError  = "parse_error"
)

// RegisterMetrics registers the blocklist collectors on r.
func RegisterMetrics(r prometheus.Registerer) {
	r.MustRegister(domainsBlocked, updatesTotal, lastUpdate, sourceResults)
}
