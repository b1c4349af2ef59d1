// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProfileUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentortracker_profile_updates_total",
		Help: "Profile partial updates by outcome.",
	}, []string{"outcome"})

	GroupPointAwards = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentortracker_group_point_awards_total",
		Help: "Successful bulk point awards.",
	})

	GroupMembersUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentortracker_group_members_updated_total",
		Help: "Member records changed by bulk point awards.",
	})

	GroupMemberUpdateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentortracker_group_member_update_failures_total",
		Help: "Member increments that failed during a bulk point award.",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentortracker_events_published_total",
		Help: "Domain events sent to Kafka by type and outcome.",
	}, []string{"type", "outcome"})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentortracker_events_processed_total",
		Help: "Domain events consumed by the worker by type and outcome.",
	}, []string{"type", "outcome"})
)
