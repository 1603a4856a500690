package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface with client_golang collectors.
// A CLI run has no scrape endpoint, so the registry is typically exported
// with [Prometheus.WriteTextfile] for the node_exporter textfile collector.
type Prometheus struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageRuns     *prometheus.CounterVec
	entryErrors   *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec
	cacheBytes   *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	p := &Prometheus{
		registry: reg,
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "themecheck_stage_duration_seconds",
			Help:    "Wall time of each pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage"}),
		stageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "themecheck_stage_runs_total",
			Help: "Pipeline stage executions by result.",
		}, []string{"stage", "result"}),
		entryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "themecheck_entry_errors_total",
			Help: "Recoverable per-theme failures by stage and error code.",
		}, []string{"stage", "code"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "themecheck_cache_lookups_total",
			Help: "Response cache lookups by host and result.",
		}, []string{"host", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "themecheck_cache_stored_bytes_total",
			Help: "Bytes of response text written to the cache.",
		}, []string{"host"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "themecheck_http_responses_total",
			Help: "HTTP responses by host and status code.",
		}, []string{"host", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "themecheck_http_request_duration_seconds",
			Help:    "Latency of HTTP requests that produced a response.",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "themecheck_http_errors_total",
			Help: "HTTP requests that failed without a response.",
		}, []string{"host"}),
	}
	reg.MustRegister(
		p.stageDuration, p.stageRuns, p.entryErrors,
		p.cacheLookups, p.cacheBytes,
		p.requests, p.requestDuration, p.requestErrors,
	)
	return p
}

// Register installs p as the pipeline, cache and HTTP hooks.
func (p *Prometheus) Register() {
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

// WriteTextfile writes all collected metrics in text exposition format.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

func (p *Prometheus) OnStageStart(context.Context, string, int) {}

func (p *Prometheus) OnStageComplete(_ context.Context, stage string, _ int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.stageRuns.WithLabelValues(stage, result).Inc()
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Prometheus) OnEntryError(_ context.Context, stage, code string) {
	p.entryErrors.WithLabelValues(stage, code).Inc()
}

func (p *Prometheus) OnCacheHit(_ context.Context, host string) {
	p.cacheLookups.WithLabelValues(host, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, host string) {
	p.cacheLookups.WithLabelValues(host, "miss").Inc()
}

func (p *Prometheus) OnCacheStore(_ context.Context, host string, size int) {
	p.cacheBytes.WithLabelValues(host).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, statusCode int, d time.Duration) {
	p.requests.WithLabelValues(host, strconv.Itoa(statusCode)).Inc()
	p.requestDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.requestErrors.WithLabelValues(host).Inc()
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
