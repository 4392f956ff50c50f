package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы генерации для метки outcome.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics хранит счётчики генераций на собственном реестре.
type Metrics struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	codes       prometheus.Counter
	slides      prometheus.Counter
	duration    prometheus.Histogram
}

// New регистрирует метрики сервиса и стандартные метрики процесса.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pptxgen",
			Name:      "generations_total",
			Help:      "Number of template fill requests by outcome.",
		}, []string{"outcome"}),
		codes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pptxgen",
			Name:      "codes_filled_total",
			Help:      "Number of running numbers written into documents.",
		}),
		slides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pptxgen",
			Name:      "slides_generated_total",
			Help:      "Number of filled slides produced.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pptxgen",
			Name:      "generation_duration_seconds",
			Help:      "Time spent filling a template.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	m.registry.MustRegister(
		m.generations, m.codes, m.slides, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSuccess учитывает успешную генерацию.
func (m *Metrics) ObserveSuccess(codes, slides int, elapsed time.Duration) {
	m.generations.WithLabelValues(OutcomeOK).Inc()
	m.codes.Add(float64(codes))
	m.slides.Add(float64(slides))
	m.duration.Observe(elapsed.Seconds())
}

// ObserveFailure учитывает неудачную генерацию с указанным исходом.
func (m *Metrics) ObserveFailure(outcome string) {
	m.generations.WithLabelValues(outcome).Inc()
}

// Registry нужен для тестов и дополнительной регистрации.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
