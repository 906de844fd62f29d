package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/propdesk/propdesk/internal/models"
)

var allStatuses = []models.IssueStatus{
	models.IssueStatusOpen,
	models.IssueStatusTriaged,
	models.IssueStatusAssigned,
	models.IssueStatusInProgress,
	models.IssueStatusPendingApproval,
	models.IssueStatusResolved,
	models.IssueStatusClosed,
	models.IssueStatusEscalated,
}

func TestValidTransition_AllowedPairs(t *testing.T) {
	allowed := []struct {
		from, to models.IssueStatus
	}{
		{models.IssueStatusOpen, models.IssueStatusTriaged},
		{models.IssueStatusOpen, models.IssueStatusAssigned},
		{models.IssueStatusOpen, models.IssueStatusEscalated},
		{models.IssueStatusTriaged, models.IssueStatusAssigned},
		{models.IssueStatusTriaged, models.IssueStatusEscalated},
		{models.IssueStatusAssigned, models.IssueStatusInProgress},
		{models.IssueStatusAssigned, models.IssueStatusEscalated},
		{models.IssueStatusInProgress, models.IssueStatusPendingApproval},
		{models.IssueStatusInProgress, models.IssueStatusResolved},
		{models.IssueStatusInProgress, models.IssueStatusEscalated},
		{models.IssueStatusPendingApproval, models.IssueStatusResolved},
		{models.IssueStatusPendingApproval, models.IssueStatusEscalated},
		{models.IssueStatusResolved, models.IssueStatusClosed},
		{models.IssueStatusResolved, models.IssueStatusOpen},
		{models.IssueStatusEscalated, models.IssueStatusTriaged},
		{models.IssueStatusEscalated, models.IssueStatusAssigned},
		{models.IssueStatusEscalated, models.IssueStatusInProgress},
		{models.IssueStatusEscalated, models.IssueStatusResolved},
		{models.IssueStatusEscalated, models.IssueStatusClosed},
		{models.IssueStatusClosed, models.IssueStatusOpen},
	}

	allowedSet := make(map[[2]models.IssueStatus]bool)
	for _, pair := range allowed {
		allowedSet[[2]models.IssueStatus{pair.from, pair.to}] = true
		assert.True(t, ValidTransition(pair.from, pair.to), "%s -> %s should be allowed", pair.from, pair.to)
	}

	// Everything not in the list above is rejected.
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if allowedSet[[2]models.IssueStatus{from, to}] {
				continue
			}
			assert.False(t, ValidTransition(from, to), "%s -> %s should be rejected", from, to)
		}
	}
}

func TestValidTransition_UnknownStatus(t *testing.T) {
	assert.False(t, ValidTransition("bogus", models.IssueStatusOpen))
	assert.False(t, ValidTransition(models.IssueStatusOpen, "bogus"))
}

func TestTransitions_Closed(t *testing.T) {
	// closed is terminal; only an explicit reopen exits it
	targets := Transitions(models.IssueStatusClosed)
	assert.Equal(t, []models.IssueStatus{models.IssueStatusOpen}, targets)
}

func TestRoleMayTransition(t *testing.T) {
	tests := []struct {
		role models.Role
		from models.IssueStatus
		want bool
	}{
		{models.RoleManager, models.IssueStatusOpen, true},
		{models.RoleManager, models.IssueStatusResolved, true},
		{models.RoleManager, models.IssueStatusEscalated, false},
		{models.RoleOwner, models.IssueStatusEscalated, true},
		{models.RoleOwner, models.IssueStatusOpen, false},
		{models.RoleOwner, models.IssueStatusResolved, false},
		{models.RoleAdmin, models.IssueStatusOpen, true},
		{models.RoleAdmin, models.IssueStatusEscalated, true},
		{models.RoleTenant, models.IssueStatusOpen, false},
		{models.RoleTenant, models.IssueStatusEscalated, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roleMayTransition(tt.role, tt.from), "%s from %s", tt.role, tt.from)
	}
}

func TestActivityTypeFor(t *testing.T) {
	assert.Equal(t, models.ActivityResolved, activityTypeFor(models.IssueStatusInProgress, models.IssueStatusResolved))
	assert.Equal(t, models.ActivityEscalated, activityTypeFor(models.IssueStatusOpen, models.IssueStatusEscalated))
	assert.Equal(t, models.ActivityReopened, activityTypeFor(models.IssueStatusResolved, models.IssueStatusOpen))
	assert.Equal(t, models.ActivityReopened, activityTypeFor(models.IssueStatusClosed, models.IssueStatusOpen))
	assert.Equal(t, models.ActivityStatusChanged, activityTypeFor(models.IssueStatusOpen, models.IssueStatusTriaged))
}
