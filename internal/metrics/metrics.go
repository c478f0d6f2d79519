package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ModelSelections    *prometheus.CounterVec
	FormatterFallbacks prometheus.Counter
	EmergentFailures   prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = New()
		prometheus.MustRegister(global.ModelSelections, global.FormatterFallbacks, global.EmergentFailures)
	})
	return global
}

// New returns an unregistered set, for callers with their own registry.
func New() *Metrics {
	return &Metrics{
		ModelSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "friday",
			Name:      "model_selections_total",
			Help:      "Total chat models built, by provider route",
		}, []string{"provider"}),
		FormatterFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "friday",
			Name:      "formatter_fallbacks_total",
			Help:      "Total formatter lookups that fell back to the default formatter",
		}),
		EmergentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "friday",
			Name:      "emergent_failures_total",
			Help:      "Total universal-key calls whose error was returned as a chat message",
		}),
	}
}
