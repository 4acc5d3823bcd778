package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Recorder holds the conversion metrics. A nil *Recorder records nothing.
type Recorder struct {
	gatherer    prometheus.Gatherer
	conversions *prometheus.CounterVec
	duration    prometheus.Histogram
	records     prometheus.Counter
}

func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		gatherer: reg,
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reimburse_conversions_total",
			Help: "Conversions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reimburse_conversion_seconds",
			Help:    "Wall time of one conversion.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reimburse_records_total",
			Help: "Expense records written to finished workbooks.",
		}),
	}
	reg.MustRegister(r.conversions, r.duration, r.records)
	return r
}

func (r *Recorder) ObserveConversion(outcome string, elapsed time.Duration, records int) {
	if r == nil {
		return
	}
	r.conversions.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
	if records > 0 {
		r.records.Add(float64(records))
	}
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
