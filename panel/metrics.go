package panel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var prefSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "idefi",
	Subsystem: "panel",
	Name:      "preference_saves_total",
	Help:      "Preference saves by result.",
}, []string{"result"})
