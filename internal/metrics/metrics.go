package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Croco1609/collectorPerso/internal/httpx"
)

// Metrics agrupa el registry propio y los instrumentos de la API.
type Metrics struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	articles prometheus.Gauge
}

// New crea un registry con los collectors de Go y del proceso.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by method, route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"method", "route", "status"},
	)

	articles := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_articles_total",
		Help: "Number of articles in the catalog at the last sample",
	})

	registry.MustRegister(duration, articles)

	return &Metrics{registry: registry, duration: duration, articles: articles}
}

// Middleware mide cada request desde que entra hasta que termina.
// La ruta se lee después de next: chi recién la conoce al rutear.
func (metrics *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.duration.
			WithLabelValues(r.Method, httpx.RoutePattern(r), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// SetArticles publica el último conteo de artículos.
func (metrics *Metrics) SetArticles(total int64) {
	metrics.articles.Set(float64(total))
}

// Handler expone el registry para GET /metrics.
func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
