package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	reg         *prometheus.Registry
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
	updates     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sklad_bot",
			Name:      "api_requests_total",
			Help:      "Запросы к REST API склада.",
		}, []string{"method", "route", "code"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sklad_bot",
			Name:      "api_request_duration_seconds",
			Help:      "Длительность запросов к REST API склада.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sklad_bot",
			Name:      "telegram_updates_total",
			Help:      "Обработанные апдейты Telegram.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiDuration, m.updates,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveAPI code=0 означает транспортную ошибку (ответа не было).
func (m *Metrics) ObserveAPI(method, route string, code int, d time.Duration) {
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.apiDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Update(kind string) {
	m.updates.WithLabelValues(kind).Inc()
}
