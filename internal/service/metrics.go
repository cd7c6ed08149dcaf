package service

import "github.com/prometheus/client_golang/prometheus"

var (
	ShotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shots_total",
			Help: "Fired shots by result",
		},
		[]string{"result"},
	)
	PurchasesSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_settled_total",
			Help: "TON purchases flipped to PAID",
		},
		[]string{"item"},
	)
	AntibotBlocks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "antibot_blocks_total",
		Help: "Accounts blocked by the too-fast-actions check",
	})
	ReferralRewards = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "referral_rewards_total",
		Help: "Referral rewards paid to referrers",
	})
	TaskClaims = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "task_claims_total",
		Help: "Successful task claims",
	})
)

func init() {
	prometheus.MustRegister(ShotsTotal)
	prometheus.MustRegister(PurchasesSettled)
	prometheus.MustRegister(AntibotBlocks)
	prometheus.MustRegister(ReferralRewards)
	prometheus.MustRegister(TaskClaims)
}
