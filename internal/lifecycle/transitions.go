package lifecycle

import "github.com/propdesk/propdesk/internal/models"

// transitions defines the set of allowed status transitions.
// Each key is a source status, and the value is the set of valid target
// statuses. Escalation is reachable from every active status; exiting
// escalated re-enters the normal flow at the owner's discretion.
var transitions = map[models.IssueStatus]map[models.IssueStatus]bool{
	models.IssueStatusOpen: {
		models.IssueStatusTriaged:   true,
		models.IssueStatusAssigned:  true,
		models.IssueStatusEscalated: true,
	},
	models.IssueStatusTriaged: {
		models.IssueStatusAssigned:  true,
		models.IssueStatusEscalated: true,
	},
	models.IssueStatusAssigned: {
		models.IssueStatusInProgress: true,
		models.IssueStatusEscalated:  true,
	},
	models.IssueStatusInProgress: {
		models.IssueStatusPendingApproval: true,
		models.IssueStatusResolved:        true,
		models.IssueStatusEscalated:       true,
	},
	models.IssueStatusPendingApproval: {
		models.IssueStatusResolved:  true,
		models.IssueStatusEscalated: true,
	},
	models.IssueStatusResolved: {
		models.IssueStatusClosed: true,
		models.IssueStatusOpen:   true, // reopen
	},
	models.IssueStatusEscalated: {
		models.IssueStatusTriaged:    true,
		models.IssueStatusAssigned:   true,
		models.IssueStatusInProgress: true,
		models.IssueStatusResolved:   true,
		models.IssueStatusClosed:     true,
	},
	models.IssueStatusClosed: {
		models.IssueStatusOpen: true, // explicit reopen only
	},
}

// ValidTransition returns true if the status change from -> to is allowed.
func ValidTransition(from, to models.IssueStatus) bool {
	targets, ok := transitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Transitions returns the allowed target statuses for the given status.
func Transitions(from models.IssueStatus) []models.IssueStatus {
	var out []models.IssueStatus
	for to, ok := range transitions[from] {
		if ok {
			out = append(out, to)
		}
	}
	return out
}

// roleMayTransition applies role gating to transitions out of a status.
// Managers drive the normal flow but may not decide escalations; that is
// the owner's call. Admins may do both. Tenants never transition.
func roleMayTransition(role models.Role, from models.IssueStatus) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleOwner:
		return from == models.IssueStatusEscalated
	case models.RoleManager:
		return from != models.IssueStatusEscalated
	}
	return false
}

// activityTypeFor picks the audit-trail entry type for a transition.
func activityTypeFor(from, to models.IssueStatus) models.ActivityType {
	switch {
	case to == models.IssueStatusResolved:
		return models.ActivityResolved
	case to == models.IssueStatusEscalated:
		return models.ActivityEscalated
	case to == models.IssueStatusOpen &&
		(from == models.IssueStatusResolved || from == models.IssueStatusClosed):
		return models.ActivityReopened
	default:
		return models.ActivityStatusChanged
	}
}
