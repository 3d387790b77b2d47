package metrics

import (
	"errors"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
)

// Export outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeInvalid       = "invalid"
	OutcomeConflict      = "conflict"
	OutcomePublishFailed = "publish_failed"
)

// Domain holds the sink configuration collectors.
// A nil *Domain is valid and records nothing.
type Domain struct {
	exports    *prometheus.CounterVec
	violations *prometheus.CounterVec
	configured prometheus.Gauge
}

// NewDomain registers the collectors on reg, reusing ones already registered
// there.
func NewDomain(reg prometheus.Registerer) (*Domain, error) {
	exports, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sink_exports_total", Help: "sink export attempts by outcome"},
		[]string{"sink_type", "outcome"},
	))
	if err != nil {
		return nil, err
	}
	violations, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sink_validation_violations_total", Help: "validation violations by field"},
		[]string{"sink_type", "field"},
	))
	if err != nil {
		return nil, err
	}
	configured, err := register(reg, prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sinks_configured", Help: "sinks currently in the catalog"},
	))
	if err != nil {
		return nil, err
	}
	return &Domain{exports: exports, violations: violations, configured: configured}, nil
}

// ProvideDomain registers on the default registry served at /metrics.
func ProvideDomain() (*Domain, error) { return NewDomain(prometheus.DefaultRegisterer) }

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (d *Domain) ObserveExport(sinkType, outcome string) {
	if d == nil {
		return
	}
	d.exports.WithLabelValues(sinkType, outcome).Inc()
}

var indexRe = regexp.MustCompile(`\[\d+\]`)

// ObserveViolations counts one violation per path; list indexes are folded
// so options.nodes[3] is counted as options.nodes[].
func (d *Domain) ObserveViolations(sinkType string, paths []string) {
	if d == nil {
		return
	}
	for _, p := range paths {
		d.violations.WithLabelValues(sinkType, indexRe.ReplaceAllString(p, "[]")).Inc()
	}
}

func (d *Domain) SetConfigured(n int) {
	if d == nil {
		return
	}
	d.configured.Set(float64(n))
}

// Exports is the sink_exports_total vector, labelled sink_type and outcome.
func (d *Domain) Exports() *prometheus.CounterVec { return d.exports }

// Configured is the sinks_configured gauge.
func (d *Domain) Configured() prometheus.Gauge { return d.configured }
