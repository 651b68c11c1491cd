package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(apiRequestsTotal, apiRateLimitedTotal, adminLoginTotal) }

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgauto_api_requests_total",
			Help: "Admin API requests by route pattern and status code.",
		},
		[]string{"route", "code"},
	)

	apiRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tgauto_api_rate_limited_total",
			Help: "Admin API requests rejected by the per-client limiter.",
		},
	)

	adminLoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgauto_admin_login_total",
			Help: "Admin login attempts.",
		},
		[]string{"status"}, // 'authorized', 'unauthorized'
	)
)

func IncAPIRequest(route string, code int) {
	apiRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func IncAPIRateLimited() { apiRateLimitedTotal.Inc() }

func IncAdminLogin(status string) {
	adminLoginTotal.WithLabelValues(norm(status)).Inc()
}
