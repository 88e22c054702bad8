package metrics

import "github.com/prometheus/client_golang/prometheus"

// PollMetrics holds Prometheus metrics for poll activity and reward payouts.
type PollMetrics struct {
	PollsCreated         prometheus.Counter
	PollsEnded           prometheus.Counter
	VotesCast            *prometheus.CounterVec
	RewardsGranted       *prometheus.CounterVec
	RewardsFailed        *prometheus.CounterVec
	RecipientsPaid       prometheus.Counter
	RecipientsUnresolved prometheus.Counter
}

// NewPollMetrics creates and registers poll metrics on the given registry.
func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	m := &PollMetrics{
		PollsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_created_total",
			Help:      "Total number of polls created.",
		}),
		PollsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_force_ended_total",
			Help:      "Total number of polls closed early by an administrator.",
		}),
		VotesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Total number of vote attempts, by poll type and result.",
		}, []string{"type", "result"}),
		RewardsGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "granted_total",
			Help:      "Total number of rewards handed out, by reward type.",
		}, []string{"type"}),
		RewardsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "failed_total",
			Help:      "Total number of rewards that failed to apply, by reward type.",
		}, []string{"type"}),
		RecipientsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "recipients_total",
			Help:      "Total number of voters paid.",
		}),
		RecipientsUnresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "unresolved_total",
			Help:      "Total number of eligible voters skipped because they could not be resolved.",
		}),
	}

	reg.MustRegister(m.PollsCreated, m.PollsEnded, m.VotesCast, m.RewardsGranted,
		m.RewardsFailed, m.RecipientsPaid, m.RecipientsUnresolved)
	return m
}

// ObserveVote records one vote attempt.
func (m *PollMetrics) ObserveVote(pollType string, accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.VotesCast.WithLabelValues(pollType, result).Inc()
}
