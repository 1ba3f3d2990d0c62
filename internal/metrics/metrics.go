package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExchangesTotal counts authorization-code exchanges by result.
	ExchangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgate_identity_exchanges_total",
		Help: "Authorization code exchanges against the identity provider.",
	}, []string{"result"})

	// RefreshesTotal counts token refresh requests. "cached" means the fast
	// path served a still-valid access token without a provider round trip.
	RefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgate_token_refreshes_total",
		Help: "Token refresh service requests.",
	}, []string{"result"})

	// VerificationsTotal counts gateway consent verification handshakes.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgate_gateway_verifications_total",
		Help: "Tool gateway consent verification outcomes.",
	}, []string{"result"})
)
