package models

import "time"

const (
	EventProfileUpdated   = "profile.updated"
	EventGroupPointsAdded = "group.points_added"
)

// Event is published to Kafka after a successful write.
type Event struct {
	Type         string    `json:"type"`
	Email        string    `json:"email,omitempty"`
	MentorName   string    `json:"mentor_name,omitempty"`
	Fields       []string  `json:"fields,omitempty"`
	PointsAdded  int       `json:"points_added,omitempty"`
	UpdatedCount int       `json:"updated_count,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Key picks the partition key so events about one group or one user stay
// ordered.
func (e Event) Key() string {
	if e.MentorName != "" && e.Type == EventGroupPointsAdded {
		return e.MentorName
	}
	return e.Email
}

// LeaderboardEntry is one group's accumulated points.
type LeaderboardEntry struct {
	MentorName string `json:"mentorName"`
	Points     int64  `json:"points"`
}

// Activity is one entry of a group's recent point awards.
type Activity struct {
	PointsAdded  int       `json:"pointsAdded"`
	UpdatedCount int       `json:"updatedCount"`
	OccurredAt   time.Time `json:"occurredAt"`
}
