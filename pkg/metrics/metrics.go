package metrics

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type manager struct {
	namespace string
	system    string
	registry  *prometheus.Registry
}

var defaultManager = &manager{
	namespace: "default",
	system:    "default",
	registry:  prometheus.NewRegistry(),
}

// SetupMetricsManager binds every vector created afterwards to ns/system and registry.
func SetupMetricsManager(ns, system string, registry *prometheus.Registry) {
	defaultManager = &manager{
		namespace: ns,
		system:    system,
		registry:  registry,
	}
	registry.Register(collectors.NewGoCollector())
}

func emptyLabels(labels []string) []string {
	return make([]string, len(labels))
}

func NewCounterVec(name string, labels []string) *prometheus.CounterVec {
	m := defaultManager
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: FmtFixer(m.namespace),
		Subsystem: FmtFixer(m.system),
		Name:      FmtFixer(name),
		Help:      fmt.Sprintf("%s count of /%s/%s", name, m.namespace, m.system),
	}, labels)
	vec.WithLabelValues(emptyLabels(labels)...).Add(0)
	m.registry.Register(vec)
	return vec
}

func NewHistogramVec(name string, labels []string) *prometheus.HistogramVec {
	m := defaultManager
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: FmtFixer(m.namespace),
		Subsystem: FmtFixer(m.system),
		Name:      FmtFixer(name),
		Help:      fmt.Sprintf("%s duration of /%s/%s", name, m.namespace, m.system),
	}, labels)
	m.registry.Register(vec)
	return vec
}

func NewGaugeVec(name string, labels []string) *prometheus.GaugeVec {
	m := defaultManager
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: FmtFixer(m.namespace),
		Subsystem: FmtFixer(m.system),
		Name:      FmtFixer(name),
		Help:      fmt.Sprintf("%s gauge of /%s/%s", name, m.namespace, m.system),
	}, labels)
	m.registry.Register(vec)
	return vec
}

func DefaultExportHandler() gin.HandlerFunc {
	registry := defaultManager.registry
	h := promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func FmtFixer(in string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(in)
}
