package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once        sync.Once
	registry    *prom.Registry
	stageDur    *prom.HistogramVec
	runDur      prom.Histogram
	taskResults *prom.CounterVec
	runOutcomes *prom.CounterVec
	bytes       prom.Counter
	retries     prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// (idempotent). A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDur = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docrotate",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDur = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docrotate",
			Name:      "run_duration_seconds",
			Help:      "Total conversion run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.taskResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docrotate",
			Name:      "task_results_total",
			Help:      "Conversion task results by target format and outcome",
		}, []string{"target", "result"})
		pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docrotate",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.bytes = prom.NewCounter(prom.CounterOpts{
			Namespace: "docrotate",
			Name:      "bytes_converted_total",
			Help:      "Total source bytes successfully converted",
		})
		pr.retries = prom.NewCounter(prom.CounterOpts{
			Namespace: "docrotate",
			Name:      "conversion_retries_total",
			Help:      "Total conversion attempts beyond the first",
		})
		reg.MustRegister(pr.stageDur, pr.runDur, pr.taskResults, pr.runOutcomes, pr.bytes, pr.retries)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDur == nil {
		return
	}
	p.stageDur.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDur == nil {
		return
	}
	p.runDur.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(target string, result ResultLabel) {
	if p == nil || p.taskResults == nil {
		return
	}
	p.taskResults.WithLabelValues(target, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddBytesConverted(n int64) {
	if p == nil || p.bytes == nil || n <= 0 {
		return
	}
	p.bytes.Add(float64(n))
}

func (p *PrometheusRecorder) IncRetries(n int) {
	if p == nil || p.retries == nil || n <= 0 {
		return
	}
	p.retries.Add(float64(n))
}

// Handler returns an http.Handler serving this recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
