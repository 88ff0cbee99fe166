package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BatchesTotal      prometheus.Counter
	ValidationsTotal  *prometheus.CounterVec
	PaymentsTotal     *prometheus.CounterVec
	PaymentSatsTotal  prometheus.Counter
	PaymentFeesTotal  prometheus.Counter
	PhaseDurationSecs *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		BatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satpay_batches_total",
			Help: "Total number of batch executions started",
		}),
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "satpay_recipient_validations_total",
			Help: "Recipient validations by kind, result, and error code",
		}, []string{"kind", "result", "code"}),
		PaymentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "satpay_payments_total",
			Help: "Payment attempts by result and error code",
		}, []string{"result", "code"}),
		PaymentSatsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satpay_payment_sats_total",
			Help: "Total satoshis successfully sent",
		}),
		PaymentFeesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satpay_payment_fee_sats_total",
			Help: "Total satoshis paid in routing fees",
		}),
		PhaseDurationSecs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "satpay_phase_duration_seconds",
			Help:    "Duration of pipeline phases",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"phase"}),
	}
}

func (m *Metrics) IncrementBatches() {
	m.BatchesTotal.Inc()
}

func (m *Metrics) ObserveValidation(kind string, valid bool, code string) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.ValidationsTotal.WithLabelValues(kind, result, code).Inc()
}

func (m *Metrics) ObservePayment(success bool, code string, sats, feeSats int64) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.PaymentsTotal.WithLabelValues(result, code).Inc()
	if success {
		m.PaymentSatsTotal.Add(float64(sats))
		m.PaymentFeesTotal.Add(float64(feeSats))
	}
}

func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.PhaseDurationSecs.WithLabelValues(phase).Observe(d.Seconds())
}
