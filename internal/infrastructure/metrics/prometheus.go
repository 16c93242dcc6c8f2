package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

var _ inventory.Metrics = (*Registry)(nil)

// Registry métricas del ledger y del servidor HTTP sobre un registro propio.
type Registry struct {
	reg *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	retries           *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registra los colectores bajo el namespace dado (p.ej. "inventory_ledger").
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operaciones del ledger por tipo y resultado",
		}, []string{"operation", "result"}),
		operationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duración de las operaciones del ledger, reintentos incluidos",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Reintentos por conflicto de concurrencia",
		}, []string{"operation"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y status",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// ObserveOperation cuenta la operación y registra su duración.
func (r *Registry) ObserveOperation(op, result string, d time.Duration) {
	r.operations.WithLabelValues(op, result).Inc()
	r.operationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncRetry cuenta un reintento de la operación.
func (r *Registry) IncRetry(op string) {
	r.retries.WithLabelValues(op).Inc()
}

// ObserveHTTP registra una petición ya respondida. path es la ruta registrada, no la URL.
func (r *Registry) ObserveHTTP(method, path, status string, d time.Duration) {
	r.httpRequests.WithLabelValues(method, path, status).Inc()
	r.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler expone el registro en formato Prometheus.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer acceso al registro (tests).
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
