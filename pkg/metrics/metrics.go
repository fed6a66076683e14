package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics métricas del ledger con registro privado (sin globales).
type Metrics struct {
	registry *prometheus.Registry

	StockMovements      *prometheus.CounterVec
	Operations          *prometheus.CounterVec
	TransactionDuration *prometheus.HistogramVec
	Backups             *prometheus.CounterVec
	SideEffectFailures  *prometheus.CounterVec
}

// Outcome etiquetas de resultado.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// New crea las métricas bajo el namespace dado (p. ej. "ledger").
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ledger"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Movimientos de inventario escritos en el ledger",
		},
		[]string{"direction", "reference"},
	)

	m.Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operaciones de negocio por resultado",
		},
		[]string{"op", "outcome"},
	)

	m.TransactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Duración de las transacciones incluyendo la espera en la cola de escritura",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"op"},
	)

	m.Backups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Respaldos y restauraciones por resultado",
		},
		[]string{"op", "outcome"},
	)

	m.SideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Efectos posteriores al commit que fallaron",
		},
		[]string{"op"},
	)

	registry.MustRegister(m.StockMovements, m.Operations, m.TransactionDuration, m.Backups, m.SideEffectFailures)
	return m
}

// Handler expone las métricas para Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry devuelve el registro privado.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordMovement cuenta un movimiento escrito.
func (m *Metrics) RecordMovement(direction, reference string) {
	if m == nil {
		return
	}
	m.StockMovements.WithLabelValues(direction, reference).Inc()
}

// RecordOperation registra resultado y duración de una operación transaccional.
func (m *Metrics) RecordOperation(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome(err)).Inc()
	m.TransactionDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordBackup registra un respaldo o restauración.
func (m *Metrics) RecordBackup(op string, err error) {
	if m == nil {
		return
	}
	m.Backups.WithLabelValues(op, outcome(err)).Inc()
}

// RecordSideEffectFailure cuenta un efecto posterior al commit fallido.
func (m *Metrics) RecordSideEffectFailure(op string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(op).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
