package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewPromHttpHandler returns the /metrics handler.
func NewPromHttpHandler() http.Handler { return promhttp.Handler() }

// ProvideMetrics is the fx provider for the handler mounted at /metrics.
func ProvideMetrics() http.Handler { return NewPromHttpHandler() }
