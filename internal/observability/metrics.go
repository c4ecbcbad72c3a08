package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	membershipActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trailmate",
		Subsystem: "activities",
		Name:      "membership_actions_total",
		Help:      "Membership actions performed on activities, by action and outcome.",
	}, []string{"action", "outcome"})

	onboardingTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trailmate",
		Subsystem: "onboarding",
		Name:      "transitions_total",
		Help:      "Onboarding steps persisted, by source and target step.",
	}, []string{"from", "to"})

	bestEffortFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trailmate",
		Subsystem: "consistency",
		Name:      "best_effort_failures_total",
		Help:      "Secondary writes that failed without failing the primary operation.",
	}, []string{"operation"})

	eventPublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trailmate",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Activity events that could not be delivered to a sink.",
	}, []string{"sink"})

	lastActivityCreated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trailmate",
		Subsystem: "activities",
		Name:      "last_activity_created_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity created.",
	})
)

func init() {
	prometheus.MustRegister(membershipActions, onboardingTransitions, bestEffortFailures, eventPublishFailures, lastActivityCreated)
}

// RecordMembershipAction counts a join, leave or cancel attempt.
func RecordMembershipAction(action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	membershipActions.WithLabelValues(action, outcome).Inc()
}

// RecordOnboardingTransition counts a persisted step change.
func RecordOnboardingTransition(from, to string) {
	onboardingTransitions.WithLabelValues(from, to).Inc()
}

// RecordBestEffortFailure counts a tolerated secondary write failure.
func RecordBestEffortFailure(operation string) {
	bestEffortFailures.WithLabelValues(operation).Inc()
}

// RecordPublishFailure counts an event that a sink rejected.
func RecordPublishFailure(sink string) {
	eventPublishFailures.WithLabelValues(sink).Inc()
}

// RecordActivityCreated updates the creation watermark gauge.
func RecordActivityCreated(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastActivityCreated.Set(float64(ts.Unix()))
}
