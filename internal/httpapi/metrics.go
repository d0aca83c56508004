package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/John-Robertt/bgpfilter-go/internal/store"
)

type apiMetrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	appErrors *prometheus.CounterVec
	imported  prometheus.Counter
}

func newAPIMetrics(reg *prometheus.Registry, st *store.Store) *apiMetrics {
	m := &apiMetrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bgpfilter_http_requests_total",
			Help: "HTTP requests by ServeMux pattern and status.",
		}, []string{"pattern", "status"}),
		appErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bgpfilter_app_errors_total",
			Help: "Application errors returned to clients.",
		}, []string{"stage", "code"}),
		imported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgpfilter_imported_rules_total",
			Help: "Rules added to the store by imports.",
		}),
	}
	rules := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "bgpfilter_rules",
		Help: "Rules currently held in the store.",
	}, func() float64 { return float64(st.Len()) })

	reg.MustRegister(m.requests, m.appErrors, m.imported, rules)
	return m
}

func (m *apiMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *apiMetrics) incRequest(pattern string, status int) {
	m.requests.WithLabelValues(pattern, strconv.Itoa(status)).Inc()
}

func (m *apiMetrics) incAppError(stage, code string) {
	stage = strings.TrimSpace(stage)
	code = strings.TrimSpace(code)
	if stage == "" {
		stage = "(unknown)"
	}
	if code == "" {
		code = "(unknown)"
	}
	m.appErrors.WithLabelValues(stage, code).Inc()
}
