package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records outcomes of the checkout-to-order pipeline.
type CheckoutMetrics struct {
	finalizations   *prometheus.CounterVec
	finalizeSeconds *prometheus.HistogramVec
	gatewaySeconds  *prometheus.HistogramVec
	stockRejections prometheus.Counter
}

// NewCheckoutMetrics registers the pipeline metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	finalizations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_finalizations_total",
		Help: "Finalization attempts by outcome.",
	}, []string{"outcome"})
	finalizeSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_finalize_duration_seconds",
		Help:    "Duration of finalize transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	gatewaySeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Duration of payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	stockRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_stock_rejections_total",
		Help: "Finalizations rejected for insufficient stock.",
	})
	reg.MustRegister(finalizations, finalizeSeconds, gatewaySeconds, stockRejections)
	return &CheckoutMetrics{
		finalizations:   finalizations,
		finalizeSeconds: finalizeSeconds,
		gatewaySeconds:  gatewaySeconds,
		stockRejections: stockRejections,
	}
}

// ObserveFinalization records one finalize attempt and its duration.
func (c *CheckoutMetrics) ObserveFinalization(outcome string, duration time.Duration) {
	if c == nil || c.finalizations == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.finalizations.WithLabelValues(label).Inc()
	c.finalizeSeconds.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveGatewayCall records the duration of a named gateway operation.
func (c *CheckoutMetrics) ObserveGatewayCall(operation string, duration time.Duration) {
	if c == nil || c.gatewaySeconds == nil {
		return
	}
	c.gatewaySeconds.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncStockRejection counts a finalize turned away by the inventory ledger.
func (c *CheckoutMetrics) IncStockRejection() {
	if c == nil || c.stockRejections == nil {
		return
	}
	c.stockRejections.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
