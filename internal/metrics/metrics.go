// Package metrics exposes Prometheus metrics for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tile sources reported on tile_requests_total.
const (
	SourceHit     = "hit"
	SourceArchive = "archive"
	SourceBlank   = "blank"
)

type Provider struct {
	reg       *prometheus.Registry
	buildInfo *prometheus.GaugeVec
}

// Init creates a registry with Go and process collectors and a build info gauge.
func Init(version string) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version"},
	)
	reg.MustRegister(build)
	if version == "" {
		version = "dev"
	}
	build.WithLabelValues(version).Set(1)

	return &Provider{reg: reg, buildInfo: build}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Metrics holds the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	TileRequests   *prometheus.CounterVec
	ArchiveLookup  prometheus.Histogram
	SampleDuration *prometheus.HistogramVec
	AreaCache      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TileRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tile_requests_total",
			Help: "Tile requests by layer and serving source.",
		}, []string{"layer", "source"}),
		ArchiveLookup: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tile_archive_lookup_seconds",
			Help:    "Latency of MBTiles archive lookups.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		SampleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sample_duration_seconds",
			Help:    "Duration of dataset sampling by geometry kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		AreaCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "area_cache_results_total",
			Help: "Area interpolation cache lookups by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.TileRequests, m.ArchiveLookup, m.SampleDuration, m.AreaCache)
	}
	return m
}

func (m *Metrics) ObserveTile(layer, source string) {
	if m == nil {
		return
	}
	m.TileRequests.WithLabelValues(layer, source).Inc()
}

func (m *Metrics) ObserveArchiveLookup(seconds float64) {
	if m == nil {
		return
	}
	m.ArchiveLookup.Observe(seconds)
}

func (m *Metrics) ObserveSample(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.SampleDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) ObserveAreaCache(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.AreaCache.WithLabelValues(outcome).Inc()
}
