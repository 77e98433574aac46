// Package metricsio implements metric.Recorder with Prometheus counters.
package metricsio

import (
	"strconv"

	"github.com/gnames/gncoleta/internal/ent/metric"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gncoleta"

type metricsio struct {
	envelopes   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	propagation *prometheus.CounterVec
}

// New registers counters in reg and returns a Recorder. Each registry can
// hold only one set of these counters.
func New(reg prometheus.Registerer) (metric.Recorder, error) {
	res := metricsio{
		envelopes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelope_total",
			Help:      "Results of store and workflow operations by status.",
		}, []string{"op", "status"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_transitions_total",
			Help:      "Suggestion status transitions.",
		}, []string{"from", "to"}),
		propagation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagation_total",
			Help:      "Accepted suggestions copied into collections.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{
		res.envelopes, res.transitions, res.propagation,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

func (m *metricsio) Envelope(op string, status int) {
	m.envelopes.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

func (m *metricsio) Transition(from, to model.SuggestionStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *metricsio) Propagation(ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	m.propagation.WithLabelValues(result).Inc()
}
