package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
	outcomeDusting  = "dusting"
	outcomeSafe     = "safe"

	resultOK    = "ok"
	resultError = "error"
)

var (
	monitorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idefi",
		Subsystem: "monitor",
		Name:      "calls_total",
		Help:      "Monitor calls by outcome.",
	}, []string{"outcome"})

	dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idefi",
		Subsystem: "monitor",
		Name:      "dispatches_total",
		Help:      "Dusting notifications dispatched by result.",
	}, []string{"result"})
)
