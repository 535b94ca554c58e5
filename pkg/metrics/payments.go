package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics records checkout session and webhook reconciliation activity.
type PaymentMetrics struct {
	sessionsCreated  prometheus.Counter
	sessionsDegraded prometheus.Counter
	webhookEvents    *prometheus.CounterVec
	webhookRejected  prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	sessionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created",
		Help: "Checkout sessions opened at the payment gateway.",
	})
	sessionsDegraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_degraded",
		Help: "Order confirmations that proceeded without a checkout session.",
	})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events",
		Help: "Verified payment webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	webhookRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_webhook_rejected",
		Help: "Webhook deliveries rejected for bad signatures.",
	})
	reg.MustRegister(sessionsCreated, sessionsDegraded, webhookEvents, webhookRejected)
	return &PaymentMetrics{
		sessionsCreated:  sessionsCreated,
		sessionsDegraded: sessionsDegraded,
		webhookEvents:    webhookEvents,
		webhookRejected:  webhookRejected,
	}
}

// IncSessionCreated counts a successfully opened checkout session.
func (m *PaymentMetrics) IncSessionCreated() {
	if m == nil || m.sessionsCreated == nil {
		return
	}
	m.sessionsCreated.Inc()
}

// IncSessionDegraded counts a confirmation that fell back to the pending flow.
func (m *PaymentMetrics) IncSessionDegraded() {
	if m == nil || m.sessionsDegraded == nil {
		return
	}
	m.sessionsDegraded.Inc()
}

// IncWebhookEvent counts a verified webhook event by type and outcome.
func (m *PaymentMetrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// IncWebhookRejected counts a delivery that failed signature verification.
func (m *PaymentMetrics) IncWebhookRejected() {
	if m == nil || m.webhookRejected == nil {
		return
	}
	m.webhookRejected.Inc()
}
