package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records gateway callbacks, settlements and payouts.
type WorkflowMetrics struct {
	webhookDuration *prometheus.HistogramVec
	webhookOutcome  *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	payouts         *prometheus.CounterVec
	outboxPublished prometheus.Counter
	outboxFailed    prometheus.Counter
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	webhookDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of inbound webhook processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	webhookOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_outcome",
		Help: "Inbound webhook outcomes by provider and result.",
	}, []string{"provider", "outcome"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Settlement runs by result.",
	}, []string{"outcome"})
	payouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_total",
		Help: "Payout executions by result.",
	}, []string{"outcome"})
	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_published",
		Help: "Outbox events successfully published.",
	})
	outboxFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_failed",
		Help: "Outbox publish attempts that failed.",
	})
	reg.MustRegister(webhookDuration, webhookOutcome, settlements, payouts, outboxPublished, outboxFailed)
	return &WorkflowMetrics{
		webhookDuration: webhookDuration,
		webhookOutcome:  webhookOutcome,
		settlements:     settlements,
		payouts:         payouts,
		outboxPublished: outboxPublished,
		outboxFailed:    outboxFailed,
	}
}

// ObserveWebhook records the duration and outcome of one webhook delivery.
func (m *WorkflowMetrics) ObserveWebhook(provider, outcome string, duration time.Duration) {
	if m == nil || m.webhookDuration == nil {
		return
	}
	provider = normalizeLabel(provider)
	m.webhookDuration.WithLabelValues(provider).Observe(duration.Seconds())
	m.webhookOutcome.WithLabelValues(provider, normalizeLabel(outcome)).Inc()
}

// IncSettlement counts a settlement run.
func (m *WorkflowMetrics) IncSettlement(outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPayout counts a payout execution.
func (m *WorkflowMetrics) IncPayout(outcome string) {
	if m == nil || m.payouts == nil {
		return
	}
	m.payouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncOutboxPublished counts a successfully published outbox event.
func (m *WorkflowMetrics) IncOutboxPublished() {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.Inc()
}

// IncOutboxFailed counts a failed outbox publish attempt.
func (m *WorkflowMetrics) IncOutboxFailed() {
	if m == nil || m.outboxFailed == nil {
		return
	}
	m.outboxFailed.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
