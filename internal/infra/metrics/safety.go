package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(blacklistSize, accountRisk, accountFaulted, leaseLost) }

var (
	blacklistSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tgauto_blacklist_entries",
			Help: "Active blacklist entries by kind.",
		},
		[]string{"kind"}, // permanent|temporary
	)

	accountRisk = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tgauto_account_risk_level",
			Help: "Risk level per account: 0 low, 1 medium, 2 high.",
		},
		[]string{"account"},
	)

	accountFaulted = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tgauto_account_faulted",
			Help: "1 while the account is faulted and not taking tasks.",
		},
		[]string{"account"},
	)

	leaseLost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgauto_account_lease_lost_total",
			Help: "Account leases lost to another process or failed refreshes.",
		},
		[]string{"account"},
	)
)

func SetBlacklistSize(permanent, temporary int) {
	blacklistSize.WithLabelValues("permanent").Set(float64(permanent))
	blacklistSize.WithLabelValues("temporary").Set(float64(temporary))
}

func SetAccountRisk(account string, score int) {
	accountRisk.WithLabelValues(account).Set(float64(score))
}

func SetAccountFaulted(account string, faulted bool) {
	v := 0.0
	if faulted {
		v = 1
	}
	accountFaulted.WithLabelValues(account).Set(v)
}

func IncLeaseLost(account string) {
	leaseLost.WithLabelValues(account).Inc()
}
