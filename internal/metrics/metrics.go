package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the quiz collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	AnswersTotal      *prometheus.CounterVec
	AttemptsCompleted *prometheus.CounterVec
	MergesTotal       *prometheus.CounterVec
	MergeConflicts    prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "sessions_started_total",
			Help:      "Quiz sessions that received their questions.",
		}),
		AnswersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "answers_total",
			Help:      "Accepted answers by correctness.",
		}, []string{"correct"}),
		AttemptsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "attempts_completed_total",
			Help:      "Completed attempts by pass state.",
		}, []string{"passed"}),
		MergesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "record_merges_total",
			Help:      "Record merges by result (ok, error).",
		}, []string{"result"}),
		MergeConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "record_merge_conflicts_total",
			Help:      "Optimistic upserts retried after a version conflict.",
		}),
	}
	reg.MustRegister(m.SessionsStarted, m.AnswersTotal, m.AttemptsCompleted, m.MergesTotal, m.MergeConflicts)
	return m
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

func (m *Metrics) Answer(correct bool) {
	if m == nil {
		return
	}
	m.AnswersTotal.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) AttemptCompleted(passed bool) {
	if m == nil {
		return
	}
	m.AttemptsCompleted.WithLabelValues(strconv.FormatBool(passed)).Inc()
}

func (m *Metrics) Merge(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MergesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.MergeConflicts.Inc()
}
