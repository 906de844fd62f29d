package lifecycle

import (
	"time"

	"github.com/propdesk/propdesk/internal/models"
)

// SLAPolicy maps each priority to its response-time target. The numbers
// are operational policy, not law; callers load them from config.
type SLAPolicy struct {
	Targets map[models.IssuePriority]time.Duration
}

// DefaultSLAPolicy returns the stock response targets:
// urgent 4h, high 24h, medium 72h, low 168h.
func DefaultSLAPolicy() SLAPolicy {
	return SLAPolicy{
		Targets: map[models.IssuePriority]time.Duration{
			models.IssuePriorityUrgent: 4 * time.Hour,
			models.IssuePriorityHigh:   24 * time.Hour,
			models.IssuePriorityMedium: 72 * time.Hour,
			models.IssuePriorityLow:    168 * time.Hour,
		},
	}
}

// Target returns the response target for a priority, falling back to the
// medium target for unknown priorities.
func (p SLAPolicy) Target(priority models.IssuePriority) time.Duration {
	if d, ok := p.Targets[priority]; ok {
		return d
	}
	return p.Targets[models.IssuePriorityMedium]
}

// Breached reports whether the issue has exceeded its response target.
// It is a pure function of the record and the clock; the result is never
// stored. An issue closed without a resolution timestamp is not counted.
func (p SLAPolicy) Breached(issue *models.Issue, now time.Time) bool {
	if issue.Status == models.IssueStatusClosed && issue.ResolvedAt == nil {
		return false
	}
	end := now
	if issue.ResolvedAt != nil {
		end = *issue.ResolvedAt
	}
	return end.Sub(issue.ReportedAt) > p.Target(issue.Priority)
}

// Remaining returns how long until the issue breaches its target.
// Negative values mean the target has already passed. For resolved
// issues it reports the margin at resolution time.
func (p SLAPolicy) Remaining(issue *models.Issue, now time.Time) time.Duration {
	end := now
	if issue.ResolvedAt != nil {
		end = *issue.ResolvedAt
	}
	return p.Target(issue.Priority) - end.Sub(issue.ReportedAt)
}
