// Package metrics exports store and collaborator activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/QzDevz/TrashBin-IoT/internal/alerts"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

const namespace = "trashcand"

// Recorder implements the poller observer, the alert notifier and a store
// listener on top of Prometheus collectors.
type Recorder struct {
	transitions    *prom.CounterVec
	usageEntries   *prom.CounterVec
	refreshes      *prom.CounterVec
	alerts         *prom.CounterVec
	refreshLatency prom.Histogram
	trashLevel     prom.Gauge
	connected      prom.Gauge
	historyLength  prom.Gauge
}

// NewRecorder registers the collectors on reg. A nil reg gets a fresh
// registry, which is handy in tests.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed store transitions by action type",
		}, []string{"type"}),
		usageEntries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "usage_entries_total",
			Help:      "Usage entries appended by action",
		}, []string{"action"}),
		refreshes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Telemetry refresh cycles by result",
		}, []string{"result"}),
		alerts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts raised by kind",
		}, []string{"kind"}),
		refreshLatency: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of telemetry refresh cycles including retries",
			Buckets:   prom.DefBuckets,
		}),
		trashLevel: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "trash_level",
			Help:      "Last reported fill level in percent",
		}),
		connected: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the device is connected",
		}),
		historyLength: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "usage_history_length",
			Help:      "Entries currently held in the bounded usage log",
		}),
	}
	reg.MustRegister(
		r.transitions, r.usageEntries, r.refreshes, r.alerts,
		r.refreshLatency, r.trashLevel, r.connected, r.historyLength,
	)
	return r
}

// RegisterRuntime adds the Go and process collectors to reg.
func RegisterRuntime(reg *prom.Registry) {
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
}

// Observe is a store listener.
func (r *Recorder) Observe(c store.Change) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(c.Action.Type()).Inc()
	if a, ok := c.Action.(analytics.AddUsageEntry); ok {
		r.usageEntries.WithLabelValues(string(a.Action)).Inc()
	}
	r.trashLevel.Set(float64(c.Current.Device.Status.TrashLevel))
	if c.Current.Device.IsConnected {
		r.connected.Set(1)
	} else {
		r.connected.Set(0)
	}
	r.historyLength.Set(float64(len(c.Current.Analytics.DailyUsage)))
}

func (r *Recorder) ObserveRefresh(d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	r.refreshes.WithLabelValues(result).Inc()
	r.refreshLatency.Observe(d.Seconds())
}

func (r *Recorder) Notify(a alerts.Alert) {
	if r == nil {
		return
	}
	r.alerts.WithLabelValues(string(a.Kind)).Inc()
}

// HTTPHandler serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
