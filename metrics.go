package labops

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics counts what the lab operations did. Each instance owns its registry so tests can
// create as many as they like.
type Metrics struct {
	registry      *prometheus.Registry
	orders        *prometheus.CounterVec
	transfers     *prometheus.CounterVec
	flowcells     *prometheus.CounterVec
	observations  *prometheus.CounterVec
	scheduledRuns *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labops",
			Name:      "orders_submitted_total",
			Help:      "Submitted orders by order type and outcome.",
		}, []string{"type", "outcome"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labops",
			Name:      "transfer_entities_total",
			Help:      "Entities visited by status transfers by kind, stage and result.",
		}, []string{"kind", "stage", "result"}),
		flowcells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labops",
			Name:      "flowcell_transfers_total",
			Help:      "Flowcell transfers by outcome.",
		}, []string{"outcome"}),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labops",
			Name:      "observation_uploads_total",
			Help:      "Observation uploads by outcome.",
		}, []string{"outcome"}),
		scheduledRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labops",
			Name:      "scheduled_runs_total",
			Help:      "Scheduled jobs by job name and outcome.",
		}, []string{"job", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.orders,
		m.transfers,
		m.flowcells,
		m.observations,
		m.scheduledRuns,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveOrder(orderType OrderType, err error) {
	m.orders.WithLabelValues(string(orderType), outcome(err)).Inc()
}

func (m *Metrics) ObserveTransfer(report TransferReport) {
	kind, stage := string(report.Kind), string(report.Stage)
	m.transfers.WithLabelValues(kind, stage, "updated").Add(float64(report.Updated))
	m.transfers.WithLabelValues(kind, stage, "skipped").Add(float64(report.Skipped))
	m.transfers.WithLabelValues(kind, stage, "failed").Add(float64(report.Failed))
}

func (m *Metrics) ObserveFlowcell(err error) {
	m.flowcells.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveObservationUpload(err error) {
	m.observations.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveScheduledRun(job string, err error) {
	m.scheduledRuns.WithLabelValues(job, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}
