package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Indicators interface {
	IncrementTx(contract, method, status string)
	ObserveTxDepth(depth int)
	IncrementEvent(eventType string)
	IncrementSlashingTransition(status string)
}

type PromIndicators struct {
	txTotal             *prometheus.CounterVec
	txDepth             prometheus.Histogram
	eventsTotal         *prometheus.CounterVec
	slashingTransitions *prometheus.CounterVec
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(reg prometheus.Registerer) *PromIndicators {
	return &PromIndicators{
		txTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "tx_total",
				Help:      "number of executed messages by contract, method and status (success, error)",
			},
			[]string{"contract", "method", "status"},
		),
		txDepth: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "tx_submsg_depth",
				Help:      "deepest sub message dispatch reached by a transaction",
				Buckets:   prometheus.LinearBuckets(0, 1, 8),
			},
		),
		eventsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "events_total",
				Help:      "number of committed events by type",
			},
			[]string{"type"},
		),
		slashingTransitions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "slashing_transitions_total",
				Help:      "number of slashing request transitions by resulting status",
			},
			[]string{"status"},
		),
	}
}

func (p *PromIndicators) IncrementTx(contract, method, status string) {
	p.txTotal.WithLabelValues(contract, method, status).Inc()
}

func (p *PromIndicators) ObserveTxDepth(depth int) {
	p.txDepth.Observe(float64(depth))
}

func (p *PromIndicators) IncrementEvent(eventType string) {
	p.eventsTotal.WithLabelValues(eventType).Inc()
}

func (p *PromIndicators) IncrementSlashingTransition(status string) {
	p.slashingTransitions.WithLabelValues(status).Inc()
}
