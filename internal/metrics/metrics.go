// Package metrics 定义 Prometheus 指标，使用独立的 Registry。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	PageCache       *prometheus.CounterVec
	AppErrors       *prometheus.CounterVec
	RateLimited     *prometheus.CounterVec
	PostsCreated    prometheus.Counter
	CommentsCreated prometheus.Counter
	CacheClears     prometheus.Counter
}

func NewRegistry() *Registry {
	m := &Registry{
		registry: prometheus.NewRegistry(),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yatube_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		PageCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_page_cache_requests_total",
				Help: "Page cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),
		AppErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_app_errors_total",
				Help: "Application errors by error code",
			},
			[]string{"code"},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_posts_created_total",
			Help: "Posts created",
		}),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_comments_created_total",
			Help: "Comments created",
		}),
		CacheClears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_page_cache_clears_total",
			Help: "Explicit page cache clears",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.RequestsTotal,
		m.PageCache,
		m.AppErrors,
		m.RateLimited,
		m.PostsCreated,
		m.CommentsCreated,
		m.CacheClears,
	)
	return m
}

// ObserveRequest route 为 gin 的路由模板，未匹配的请求记为 "unmatched"
func (m *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Registry) RecordCache(result string) {
	m.PageCache.WithLabelValues(result).Inc()
}

func (m *Registry) RecordError(code int) {
	m.AppErrors.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler 暴露 /metrics
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
