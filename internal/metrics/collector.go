// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector owns every instrument. A nil *Collector is valid and records nothing.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	uploadsTotal     prometheus.Counter
	uploadBytesTotal prometheus.Counter

	generationsTotal          *prometheus.CounterVec
	generationRejectionsTotal *prometheus.CounterVec

	rendersTotal   *prometheus.CounterVec
	renderDuration prometheus.Histogram

	logger *zap.Logger
}

func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	c.uploadsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of files saved to the upload directory",
	})
	c.uploadBytesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upload_bytes_total",
		Help:      "Total bytes written to the upload directory",
	})

	c.generationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of STL files emitted",
		},
		[]string{"page", "format"},
	)
	c.generationRejectionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_rejections_total",
			Help:      "Generation requests rejected before any file was written",
		},
		[]string{"page"},
	)

	c.rendersTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Viewport renders by outcome",
		},
		[]string{"status"},
	)
	c.renderDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Viewport render duration in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordUpload(size int64) {
	if c == nil {
		return
	}
	c.uploadsTotal.Inc()
	c.uploadBytesTotal.Add(float64(size))
}

func (c *Collector) RecordGeneration(page, format string) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(page, format).Inc()
}

func (c *Collector) RecordRejection(page string) {
	if c == nil {
		return
	}
	c.generationRejectionsTotal.WithLabelValues(page).Inc()
}

// RecordRender counts a render attempt; failed renders do not feed the duration histogram.
func (c *Collector) RecordRender(ok bool, duration time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
		c.logger.Debug("render failed", zap.Duration("duration", duration))
	} else {
		c.renderDuration.Observe(duration.Seconds())
	}
	c.rendersTotal.WithLabelValues(status).Inc()
}
