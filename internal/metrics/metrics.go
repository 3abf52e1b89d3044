package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChecksTotal counts completed check passes, whatever the outcome.
	ChecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commutewatch_checks_total",
		Help: "Total number of commute checks performed.",
	})

	// CheckErrorsTotal counts passes that failed on transport or
	// persistence errors.
	CheckErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commutewatch_check_errors_total",
		Help: "Total number of commute checks that failed with an error.",
	})

	// AlertsSentTotal counts alerts actually delivered.
	AlertsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commutewatch_alerts_sent_total",
		Help: "Total number of alerts delivered.",
	})

	// TravelSeconds is the traffic-aware travel time of the last
	// successful check.
	TravelSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commutewatch_travel_seconds",
		Help: "Traffic-aware travel time reported by the last check.",
	})

	// DelaySeconds is the traffic delay of the last successful check.
	DelaySeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commutewatch_delay_seconds",
		Help: "Traffic delay reported by the last check.",
	})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
