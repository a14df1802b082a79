package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics tracks gateway interactions worth alerting on.
type PaymentMetrics struct {
	initializeAttempts *prometheus.CounterVec
	unitScaleRetries   prometheus.Counter
	verifyOutcomes     *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment gateway metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initializeAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initialize_attempts_total",
		Help: "Hosted checkout initialize attempts by outcome.",
	}, []string{"outcome"})
	unitScaleRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_unit_scale_retries_total",
		Help: "Initialize calls retried with the amount rescaled to minor units.",
	})
	verifyOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verify_total",
		Help: "Gateway verification calls by settlement outcome.",
	}, []string{"outcome"})
	reg.MustRegister(initializeAttempts, unitScaleRetries, verifyOutcomes)
	return &PaymentMetrics{
		initializeAttempts: initializeAttempts,
		unitScaleRetries:   unitScaleRetries,
		verifyOutcomes:     verifyOutcomes,
	}
}

// IncInitialize records one initialize attempt labeled by outcome.
func (m *PaymentMetrics) IncInitialize(outcome string) {
	if m == nil || m.initializeAttempts == nil {
		return
	}
	m.initializeAttempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncUnitScaleRetry records one minor-unit retry.
func (m *PaymentMetrics) IncUnitScaleRetry() {
	if m == nil || m.unitScaleRetries == nil {
		return
	}
	m.unitScaleRetries.Inc()
}

// IncVerify records one verify call labeled by outcome.
func (m *PaymentMetrics) IncVerify(outcome string) {
	if m == nil || m.verifyOutcomes == nil {
		return
	}
	m.verifyOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
