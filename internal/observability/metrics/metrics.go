package metrics

import "github.com/prometheus/client_golang/prometheus"

// TriageMetrics exposes counters/histograms for the triage pipeline.
type TriageMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	oracleTotal      *prometheus.CounterVec
	escalationsTotal *prometheus.CounterVec
	dialogueTurns    prometheus.Histogram
}

func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firsttier",
			Subsystem: "triage",
			Name:      "decisions_total",
			Help:      "Triage decisions by outcome (escalate_now, dialogue)",
		}, []string{"outcome"}),
		oracleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firsttier",
			Subsystem: "oracle",
			Name:      "requests_total",
			Help:      "Text oracle calls by kind and status",
		}, []string{"kind", "status"}),
		escalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firsttier",
			Subsystem: "escalation",
			Name:      "total",
			Help:      "Escalations by trigger reason and scheduling result",
		}, []string{"reason", "scheduled"}),
		dialogueTurns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "firsttier",
			Subsystem: "dialogue",
			Name:      "turns_per_conversation",
			Help:      "Number of turns a conversation reached before ending",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.decisionsTotal, m.oracleTotal, m.escalationsTotal, m.dialogueTurns)
	return m
}

func (m *TriageMetrics) ObserveDecision(outcome string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(outcome).Inc()
}

func (m *TriageMetrics) ObserveOracle(kind, status string) {
	if m == nil {
		return
	}
	m.oracleTotal.WithLabelValues(kind, status).Inc()
}

func (m *TriageMetrics) ObserveEscalation(reason string, scheduled bool) {
	if m == nil {
		return
	}
	label := "false"
	if scheduled {
		label = "true"
	}
	m.escalationsTotal.WithLabelValues(reason, label).Inc()
}

func (m *TriageMetrics) ObserveDialogueTurns(turns int) {
	if m == nil {
		return
	}
	m.dialogueTurns.Observe(float64(turns))
}
