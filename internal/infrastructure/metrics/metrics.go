package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the counters emitted by the conversation pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	InboundMessages    *prometheus.CounterVec
	FlowsStarted       *prometheus.CounterVec
	FlowsCompleted     *prometheus.CounterVec
	FlowsCancelled     *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	OutboundFailures   *prometheus.CounterVec
	LifecycleChanges   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		InboundMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payme", Name: "inbound_messages_total",
			Help: "Inbound chat messages accepted from webhooks.",
		}, []string{"channel"}),
		FlowsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payme", Name: "flows_started_total",
			Help: "Conversation flows started.",
		}, []string{"flow"}),
		FlowsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payme", Name: "flows_completed_total",
			Help: "Conversation flows that reached completion.",
		}, []string{"flow"}),
		FlowsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payme", Name: "flows_cancelled_total",
			Help: "Conversation flows cancelled by the user or the opt-in gate.",
		}, []string{"flow"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payme", Name: "validation_failures_total",
			Help: "Inputs rejected by a step validator.",
		}, []string{"flow", "step"}),
		OutboundFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payme", Name: "outbound_failures_total",
			Help: "Outbound deliveries that failed.",
		}, []string{"channel", "kind"}),
		LifecycleChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payme", Name: "agreement_status_changes_total",
			Help: "Agreement status changes applied by the lifecycle tick.",
		}, []string{"status"}),
		gatherer: g,
	}
	reg.MustRegister(m.InboundMessages, m.FlowsStarted, m.FlowsCompleted, m.FlowsCancelled,
		m.ValidationFailures, m.OutboundFailures, m.LifecycleChanges)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Inbound(channel string) {
	if m == nil {
		return
	}
	m.InboundMessages.WithLabelValues(channel).Inc()
}

func (m *Metrics) FlowStarted(flow string) {
	if m == nil {
		return
	}
	m.FlowsStarted.WithLabelValues(flow).Inc()
}

func (m *Metrics) FlowCompleted(flow string) {
	if m == nil {
		return
	}
	m.FlowsCompleted.WithLabelValues(flow).Inc()
}

func (m *Metrics) FlowCancelled(flow string) {
	if m == nil {
		return
	}
	m.FlowsCancelled.WithLabelValues(flow).Inc()
}

func (m *Metrics) ValidationFailed(flow, step string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(flow, step).Inc()
}

func (m *Metrics) OutboundFailed(channel, kind string) {
	if m == nil {
		return
	}
	m.OutboundFailures.WithLabelValues(channel, kind).Inc()
}

func (m *Metrics) StatusChanged(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LifecycleChanges.WithLabelValues(status).Add(float64(n))
}
