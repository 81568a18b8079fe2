package complete

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds completion request metrics.
type Metrics struct {
	Requests *prometheus.CounterVec
	Items    prometheus.Histogram
	Duration *prometheus.HistogramVec
}

// NewMetrics registers completion metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kalc_completion_requests_total",
			Help: "Completion requests by the strategy that answered them.",
		}, []string{"strategy"}),
		Items: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kalc_completion_items",
			Help:    "Number of items returned per completion request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kalc_completion_seconds",
			Help:    "Time spent answering a completion request, compile included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
	}
}

func (m *Metrics) observe(strategy Strategy, items int, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.Requests.WithLabelValues(string(strategy)).Inc()
	m.Items.Observe(float64(items))
	m.Duration.WithLabelValues(string(strategy)).Observe(elapsed.Seconds())
}
