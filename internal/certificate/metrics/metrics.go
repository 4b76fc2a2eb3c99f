package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the certificate module.
type Metrics struct {
	Issued      prometheus.Counter
	Revoked     prometheus.Counter
	QRGenerated prometheus.Counter
}

// New creates a new Metrics instance with all certificate module metrics registered.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certifynow_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certifynow_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		QRGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certifynow_qr_artifacts_generated_total",
			Help: "Total number of QR artifacts generated",
		}),
	}
}

// IncrementIssued records a successful issuance.
func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.Issued.Inc()
	}
}

// IncrementRevoked records a revocation.
func (m *Metrics) IncrementRevoked() {
	if m != nil {
		m.Revoked.Inc()
	}
}

// IncrementQRGenerated records one QR artifact generation.
func (m *Metrics) IncrementQRGenerated() {
	if m != nil {
		m.QRGenerated.Inc()
	}
}
