// AngelaMos | 2026
// metrics.go

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TxOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postboard",
		Name:      "transactions_total",
		Help:      "Finished database transactions by outcome.",
	}, []string{"outcome"})

	AccountNameCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "postboard",
		Name:      "account_name_collisions_total",
		Help:      "Generated account name candidates rejected as already taken.",
	})

	UseCaseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postboard",
		Name:      "use_case_errors_total",
		Help:      "Service use case failures by use case and error kind.",
	}, []string{"use_case", "kind"})
)

// ObserveUseCase records err against useCase when non-nil and returns it.
func ObserveUseCase(useCase string, err error) error {
	if err != nil {
		UseCaseErrors.WithLabelValues(useCase, KindOf(err).String()).Inc()
	}
	return err
}
