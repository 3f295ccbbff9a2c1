// internal/utils/metrics/collector.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pumpfun_watcher"

// MetricType представляет тип метрики
type MetricType string

const (
	PricesDeliveredType  MetricType = "prices_delivered"
	LastPriceType        MetricType = "last_price"
	LastSlotType         MetricType = "last_slot"
	MessageFailuresType  MetricType = "message_failures"
	SessionStateType     MetricType = "session_state"
	StateTransitionsType MetricType = "state_transitions"
	ReconnectDelayType   MetricType = "reconnect_delay"
	ResolverLatencyType  MetricType = "resolver_latency"
	CurveGraduatedType   MetricType = "curve_graduated"
)

// Collector владеет собственным реестром, поэтому несколько экземпляров
// (например, в тестах) не конфликтуют в prometheus.DefaultRegisterer.
type Collector struct {
	registry *prometheus.Registry
	metrics  sync.Map

	pricesDelivered  *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	lastSlot         *prometheus.GaugeVec
	messageFailures  *prometheus.CounterVec
	sessionState     *prometheus.GaugeVec
	stateTransitions *prometheus.CounterVec
	reconnectDelay   *prometheus.HistogramVec
	resolverLatency  *prometheus.HistogramVec
	curveGraduated   *prometheus.GaugeVec
}

// NewCollector создает новый экземпляр коллектора метрик
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		pricesDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prices_delivered_total",
				Help:      "Total number of prices delivered to the sink",
			},
			[]string{"market"},
		),
		lastPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price_sol",
				Help:      "Last delivered display price in SOL per token",
			},
			[]string{"market", "mint"},
		),
		lastSlot: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_slot",
				Help:      "Slot of the last delivered notification",
			},
			[]string{"market"},
		),
		messageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "message_failures_total",
				Help:      "Notifications that failed to parse, decode or reach the sink",
			},
			[]string{"market"},
		),
		sessionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_state",
				Help:      "1 for the current connection state of each market",
			},
			[]string{"market", "state"},
		),
		stateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Connection state machine transitions",
			},
			[]string{"from", "to"},
		),
		reconnectDelay: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconnect_delay_seconds",
				Help:      "Backoff delay scheduled before a reconnect",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 6),
			},
			[]string{"market"},
		),
		resolverLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolver_latency_seconds",
				Help:      "Latency of decimals and pair address lookups",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"resolver", "status"},
		),
		curveGraduated: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "curve_complete",
				Help:      "1 once the bonding curve reports completion",
			},
			[]string{"market"},
		),
	}
	c.initializeMetrics()
	return c
}

func (c *Collector) initializeMetrics() {
	metricsMap := map[MetricType]prometheus.Collector{
		PricesDeliveredType:  c.pricesDelivered,
		LastPriceType:        c.lastPrice,
		LastSlotType:         c.lastSlot,
		MessageFailuresType:  c.messageFailures,
		SessionStateType:     c.sessionState,
		StateTransitionsType: c.stateTransitions,
		ReconnectDelayType:   c.reconnectDelay,
		ResolverLatencyType:  c.resolverLatency,
		CurveGraduatedType:   c.curveGraduated,
	}

	for metricType, metric := range metricsMap {
		c.metrics.Store(metricType, metric)
		c.registry.MustRegister(metric)
	}
}

// Registry возвращает реестр для экспорта и тестов.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Reset сбрасывает все метрики (полезно для тестирования)
func (c *Collector) Reset() {
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.GaugeVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})
}
