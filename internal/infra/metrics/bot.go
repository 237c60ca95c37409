package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Inbound Telegram updates by kind (command/text/callback).",
		},
		[]string{"kind"},
	)

	accessDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_denied_total",
			Help: "Rejected actions by reason (banned/not_admin/not_authorized).",
		},
		[]string{"reason"},
	)

	codesRedeemedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_codes_redeemed_total",
			Help: "Code redemption attempts by outcome.",
		},
		[]string{"outcome"}, // ok, not_found, used, expired
	)

	codesPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_codes_purged_total",
			Help: "Expired codes removed by the purge sweep.",
		},
	)

	broadcastDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Broadcast fan-out deliveries by operation and result.",
		},
		[]string{"op", "result"}, // op: send/edit/resend, result: ok/failed
	)

	pollVotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_votes_total",
			Help: "Poll vote attempts by outcome.",
		},
		[]string{"outcome"}, // accepted, already_voted, not_eligible, not_found
	)
)

func init() {
	register(
		updatesTotal, accessDeniedTotal, codesRedeemedTotal,
		codesPurgedTotal, broadcastDeliveries, pollVotesTotal,
	)
}

func IncUpdate(kind string)               { updatesTotal.WithLabelValues(kind).Inc() }
func IncAccessDenied(reason string)       { accessDeniedTotal.WithLabelValues(reason).Inc() }
func IncCodeRedeemed(outcome string)      { codesRedeemedTotal.WithLabelValues(outcome).Inc() }
func AddCodesPurged(n int)                { codesPurgedTotal.Add(float64(n)) }
func IncBroadcastDelivery(op, res string) { broadcastDeliveries.WithLabelValues(op, res).Inc() }
func IncPollVote(outcome string)          { pollVotesTotal.WithLabelValues(outcome).Inc() }
