package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics counts ledger activity for the /metrics endpoint.
type Metrics struct {
	CommissionsCalculated prometheus.Counter
	CommissionsSkipped    *prometheus.CounterVec
	CommissionsRecalced   prometheus.Counter
	CommissionsDisputed   prometheus.Counter
	PayoutsCreated        prometheus.Counter
	PayoutsCompleted      prometheus.Counter
	PayoutsFailed         prometheus.Counter
	PayoutsCancelled      prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommissionsCalculated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vendopay_commissions_calculated_total",
			Help: "Commissions persisted in calculated status.",
		}),
		CommissionsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vendopay_commissions_skipped_total",
			Help: "Order line items that produced no new commission.",
		}, []string{"reason"}),
		CommissionsRecalced: factory.NewCounter(prometheus.CounterOpts{
			Name: "vendopay_commissions_recalculated_total",
			Help: "Commissions rewritten by a recalculation run.",
		}),
		CommissionsDisputed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vendopay_commissions_disputed_total",
			Help: "Commissions moved into the disputed state.",
		}),
		PayoutsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vendopay_payouts_created_total",
			Help: "Payout batches created.",
		}),
		PayoutsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vendopay_payouts_completed_total",
			Help: "Payouts settled successfully.",
		}),
		PayoutsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vendopay_payouts_failed_total",
			Help: "Payouts reported as failed by the payment rail.",
		}),
		PayoutsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "vendopay_payouts_cancelled_total",
			Help: "Payouts cancelled before settlement.",
		}),
	}
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
