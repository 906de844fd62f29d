package models

import "time"

// ActivityType classifies an audit-trail entry.
type ActivityType string

const (
	ActivityCreated         ActivityType = "created"
	ActivityStatusChanged   ActivityType = "status_changed"
	ActivityPriorityChanged ActivityType = "priority_changed"
	ActivityAssigned        ActivityType = "assigned"
	ActivityImageAdded      ActivityType = "image_added"
	ActivityResolved        ActivityType = "resolved"
	ActivityEscalated       ActivityType = "escalated"
	ActivityReopened        ActivityType = "reopened"
	ActivityUpdated         ActivityType = "updated"
)

// IssueActivity is one immutable entry in an issue's audit trail.
// Entries are only ever appended, never edited or removed.
type IssueActivity struct {
	ID          string       `json:"id"`
	IssueID     string       `json:"issue_id"`
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`

	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name"`
	ActorRole Role   `json:"actor_role"`

	// PreviousValue/NewValue capture the before/after of the field the
	// entry records (status, priority, assignee). Empty for entries that
	// have no value pair, such as image_added.
	PreviousValue string `json:"previous_value,omitempty"`
	NewValue      string `json:"new_value,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
