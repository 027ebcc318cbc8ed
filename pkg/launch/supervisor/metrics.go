package supervisor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "craftlaunch"

// Launch attempt results.
const (
	ResultStarted = "started"
	ResultFailed  = "failed"
)

// Metrics are the supervisor's prometheus collectors.
type Metrics struct {
	Attempts         *prometheus.CounterVec
	RunningInstances prometheus.Gauge
	Exits            *prometheus.CounterVec
	PipelineSeconds  prometheus.Histogram
}

// NewMetrics builds the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "launch_attempts_total",
			Help:      "Launch attempts by result.",
		}, []string{"result"}),
		RunningInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "running_instances",
			Help:      "Game processes currently running.",
		}),
		Exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "process_exits_total",
			Help:      "Game process exits, split by abnormal termination.",
		}, []string{"abnormal"}),
		PipelineSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "launch_pipeline_seconds",
			Help:      "Time from launch request to process spawn or failure.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Attempts, m.RunningInstances, m.Exits, m.PipelineSeconds)
	}
	return m
}

func (m *Metrics) observeAttempt(result string, seconds float64) {
	m.Attempts.WithLabelValues(result).Inc()
	m.PipelineSeconds.Observe(seconds)
}

func (m *Metrics) observeStart() {
	m.RunningInstances.Inc()
}

func (m *Metrics) observeExit(abnormal bool) {
	m.RunningInstances.Dec()
	m.Exits.WithLabelValues(strconv.FormatBool(abnormal)).Inc()
}
