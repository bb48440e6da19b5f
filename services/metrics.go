package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cardMoves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "card_moves_total",
		Help:      "Card moves by outcome.",
	}, []string{"result"})

	partialFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "partial_failures_total",
		Help:      "Multi-step writes that stopped after at least one persisted step.",
	}, []string{"operation"})

	orderingAnomalies = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "ordering_anomalies_total",
		Help:      "Children found by the read model that their parent order array does not list.",
	})

	reconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "reconcile_repairs_total",
		Help:      "Order arrays and card moves rewritten by the reconciler.",
	}, []string{"kind"})

	invitationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "invitation_transitions_total",
		Help:      "Board invitations created or answered, by resulting status.",
	}, []string{"status"})
)
