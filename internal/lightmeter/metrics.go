package lightmeter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry   *prometheus.Registry
	Lux        prometheus.Gauge
	RawCount   prometheus.Gauge
	Recorded   prometheus.Counter
	ReadErrors prometheus.Counter
}

// Each meter gets its own registry, so several can live in one process
func NewMetrics(m *LightMeter) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	metrics := &Metrics{
		Registry: reg,
		Lux: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lightmeter",
			Subsystem: "bh1750",
			Name:      "lux",
			Help:      "Most recent recorded illuminance.",
		}),
		RawCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lightmeter",
			Subsystem: "bh1750",
			Name:      "raw_count",
			Help:      "Most recent raw data register value.",
		}),
		Recorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lightmeter",
			Subsystem: "bh1750",
			Name:      "readings_total",
			Help:      "Readings recorded to the results database.",
		}),
		ReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lightmeter",
			Subsystem: "bh1750",
			Name:      "read_errors_total",
			Help:      "Failed measurements.",
		}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "lightmeter",
		Subsystem: "bh1750",
		Name:      "enabled",
	}, func() float64 {
		if m.Enabled() {
			return 1
		}
		return 0
	})
	if m.BH1750 != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "lightmeter",
			Subsystem: "bh1750",
			Name:      "mtreg",
		}, func() float64 {
			m.mu.Lock()
			defer m.mu.Unlock()
			return float64(m.MTReg())
		})
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "lightmeter",
			Subsystem: "bh1750",
			Name:      "resolution_coefficient",
		}, func() float64 {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.ResolutionCoefficient()
		})
	}
	return metrics
}

func (mt *Metrics) Observe(result LuxResults) {
	mt.Lux.Set(result.Lux)
	mt.RawCount.Set(float64(result.Raw))
	mt.Recorded.Inc()
}

func (mt *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(mt.Registry, promhttp.HandlerOpts{})
}
