package health

import (
	"time"

	"github.com/propdesk/propdesk/internal/lifecycle"
	"github.com/propdesk/propdesk/internal/models"
)

// Score represents the computed maintenance health of a property.
type Score struct {
	Total              int
	BacklogLoad        int // 0-25
	SLACompliance      int // 0-30
	EscalationPressure int // 0-20
	UrgentLoad         int // 0-10
	ResolutionRecency  int // 0-15
}

// Scorer computes health scores for properties from their issue history.
type Scorer struct {
	sla lifecycle.SLAPolicy
}

// NewScorer returns a Scorer using the given SLA policy for breach checks.
func NewScorer(sla lifecycle.SLAPolicy) *Scorer {
	return &Scorer{sla: sla}
}

// Compute scores a property (0-100) from its full issue list, closed
// included. Higher is healthier.
func (s *Scorer) Compute(issues []*models.Issue, now time.Time) *Score {
	h := &Score{}

	var active, breaching, escalated, urgentOpen int
	var lastResolved time.Time
	for _, issue := range issues {
		if issue.Status.Active() {
			active++
			if issue.Priority == models.IssuePriorityUrgent {
				urgentOpen++
			}
		}
		if issue.Status == models.IssueStatusEscalated {
			escalated++
		}
		if s.sla.Breached(issue, now) {
			breaching++
		}
		if issue.ResolvedAt != nil && issue.ResolvedAt.After(lastResolved) {
			lastResolved = *issue.ResolvedAt
		}
	}

	// Backlog load (25 pts): fewer active issues relative to total = better.
	h.BacklogLoad = scoreBacklog(active, len(issues), 25)

	// SLA compliance (30 pts): every breaching issue costs points.
	h.SLACompliance = scoreBreaches(breaching, 30)

	// Escalation pressure (20 pts): escalations waiting on an owner hurt.
	h.EscalationPressure = scoreEscalations(escalated, 20)

	// Urgent load (10 pts): any open urgent issue hurts.
	h.UrgentLoad = scoreUrgent(urgentOpen, 10)

	// Resolution recency (15 pts): a property that resolves issues
	// regularly is being looked after. No issues at all also counts.
	if len(issues) == 0 {
		h.ResolutionRecency = 15
	} else {
		h.ResolutionRecency = scoreRecency(lastResolved, now, 15)
	}

	h.Total = h.BacklogLoad + h.SLACompliance + h.EscalationPressure + h.UrgentLoad + h.ResolutionRecency
	return h
}

func scoreBacklog(active, total, maxPoints int) int {
	if total == 0 {
		return maxPoints
	}
	ratio := float64(active) / float64(total)
	return int(float64(maxPoints) * (1 - ratio*0.8))
}

func scoreBreaches(breaching, maxPoints int) int {
	switch {
	case breaching == 0:
		return maxPoints
	case breaching == 1:
		return int(float64(maxPoints) * 0.6)
	case breaching <= 3:
		return int(float64(maxPoints) * 0.3)
	default:
		return 0
	}
}

func scoreEscalations(escalated, maxPoints int) int {
	switch {
	case escalated == 0:
		return maxPoints
	case escalated == 1:
		return int(float64(maxPoints) * 0.5)
	default:
		return int(float64(maxPoints) * 0.2)
	}
}

func scoreUrgent(urgentOpen, maxPoints int) int {
	if urgentOpen == 0 {
		return maxPoints
	}
	return 0
}

// scoreRecency converts time since the last resolution to points.
func scoreRecency(t, now time.Time, maxPoints int) int {
	if t.IsZero() {
		return 0
	}
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 7:
		return maxPoints
	case days <= 30:
		return int(float64(maxPoints) * 0.75)
	case days <= 90:
		return int(float64(maxPoints) * 0.4)
	default:
		return int(float64(maxPoints) * 0.1)
	}
}
