package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/store"
)

// Manager owns all issue lifecycle mutations. Every mutation goes through
// the transition table and role gating, and appends exactly one audit
// activity in the same store transaction as the record update.
type Manager struct {
	store store.Store
	sla   SLAPolicy
	now   func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithSLAPolicy overrides the default SLA targets.
func WithSLAPolicy(p SLAPolicy) Option {
	return func(m *Manager) { m.sla = p }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager backed by the given store.
func NewManager(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store: s,
		sla:   DefaultSLAPolicy(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SLA returns the manager's active SLA policy.
func (m *Manager) SLA() SLAPolicy { return m.sla }

// Breached reports whether the issue currently exceeds its SLA target.
func (m *Manager) Breached(issue *models.Issue) bool {
	return m.sla.Breached(issue, m.now())
}

// CreateInput holds the fields for reporting a new issue.
type CreateInput struct {
	PropertyID  string
	Unit        string
	Title       string
	Description string
	Location    string
	Category    models.IssueCategory
	Priority    models.IssuePriority
}

// Create reports a new issue. Any authenticated role may report. The
// issue starts open with a single "created" audit entry.
func (m *Manager) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.Issue, error) {
	if !models.ValidRole(actor.Role) {
		return nil, &UnauthorizedError{Role: actor.Role, Action: "report issues"}
	}
	if in.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "required"}
	}
	if in.Description == "" {
		return nil, &ValidationError{Field: "description", Reason: "required"}
	}
	if in.Category == "" {
		in.Category = models.IssueCategoryOther
	}
	if in.Priority == "" {
		in.Priority = models.IssuePriorityMedium
	}

	// Surface a clean not-found before the insert hits the FK.
	if _, err := m.store.GetProperty(ctx, in.PropertyID); err != nil {
		return nil, err
	}

	now := m.now()
	issue := &models.Issue{
		PropertyID:   in.PropertyID,
		Unit:         in.Unit,
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		Category:     in.Category,
		Priority:     in.Priority,
		Status:       models.IssueStatusOpen,
		ReporterID:   actor.ID,
		ReporterName: actor.Name,
		ReporterRole: actor.Role,
		ReportedAt:   now,
	}

	seed := &models.IssueActivity{
		Type:        models.ActivityCreated,
		Description: fmt.Sprintf("issue reported: %s", in.Title),
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		NewValue:    string(models.IssueStatusOpen),
		CreatedAt:   now,
	}

	if err := m.store.CreateIssue(ctx, issue, seed); err != nil {
		return nil, err
	}
	return m.store.GetIssue(ctx, issue.ID)
}

// Get returns an issue with its images and audit trail. Tenants may only
// view issues they reported.
func (m *Manager) Get(ctx context.Context, actor models.Actor, id string) (*models.Issue, error) {
	issue, err := m.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTenant && issue.ReporterID != actor.ID {
		return nil, &UnauthorizedError{Role: actor.Role, Action: "view other reporters' issues"}
	}
	return issue, nil
}

// List returns issues matching the filter. Tenants are restricted to
// their own reports regardless of the filter.
func (m *Manager) List(ctx context.Context, actor models.Actor, filter store.IssueListFilter) ([]*models.Issue, error) {
	if actor.Role == models.RoleTenant {
		filter.ReporterID = actor.ID
	}
	return m.store.ListIssues(ctx, filter)
}

// Transition moves an issue to a new status. It validates the target
// against the transition table and the actor's role, applies the status
// side effects, and appends one audit entry — all or nothing.
func (m *Manager) Transition(ctx context.Context, actor models.Actor, id string, to models.IssueStatus, notes string) (*models.Issue, error) {
	issue, err := m.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	from := issue.Status
	if !roleMayTransition(actor.Role, from) {
		return nil, &UnauthorizedError{Role: actor.Role, Action: fmt.Sprintf("transition issues out of %s", from)}
	}
	if !ValidTransition(from, to) {
		return nil, &InvalidTransitionError{From: from, To: to}
	}
	if to == models.IssueStatusEscalated && notes == "" {
		return nil, &ValidationError{Field: "reason", Reason: "escalation requires a reason"}
	}

	now := m.now()
	issue.Status = to

	actType := activityTypeFor(from, to)
	description := fmt.Sprintf("status changed from %s to %s", from, to)

	switch actType {
	case models.ActivityResolved:
		issue.ResolutionNotes = notes
		issue.ResolvedByID = actor.ID
		issue.ResolvedByName = actor.Name
		issue.ResolvedAt = &now
		description = "issue resolved"
		if notes != "" {
			description = fmt.Sprintf("issue resolved: %s", notes)
		}
	case models.ActivityEscalated:
		issue.EscalationReason = notes
		issue.EscalatedByID = actor.ID
		issue.EscalatedByName = actor.Name
		issue.EscalatedAt = &now
		description = fmt.Sprintf("escalated: %s", notes)
	case models.ActivityReopened:
		issue.ResolutionNotes = ""
		issue.ResolvedByID = ""
		issue.ResolvedByName = ""
		issue.ResolvedAt = nil
		description = "issue reopened"
		if notes != "" {
			description = fmt.Sprintf("issue reopened: %s", notes)
		}
	}

	act := &models.IssueActivity{
		Type:          actType,
		Description:   description,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		ActorRole:     actor.Role,
		PreviousValue: string(from),
		NewValue:      string(to),
		CreatedAt:     now,
	}

	if err := m.store.UpdateIssue(ctx, issue, act); err != nil {
		return nil, err
	}
	return m.store.GetIssue(ctx, id)
}

// Escalate flags an issue for an owner decision. Valid from any active
// status; the reason is required.
func (m *Manager) Escalate(ctx context.Context, actor models.Actor, id, reason string) (*models.Issue, error) {
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "escalation requires a reason"}
	}
	return m.Transition(ctx, actor, id, models.IssueStatusEscalated, reason)
}

// AssignInput holds assignment details.
type AssignInput struct {
	AssigneeID    string
	AssigneeName  string
	AssigneeType  models.AssigneeType
	ScheduledDate *time.Time
	TimeSlot      string
}

// Assign moves an issue to assigned and records who will work it, with
// an optional schedule. Follows the same table and role gating as any
// other transition.
func (m *Manager) Assign(ctx context.Context, actor models.Actor, id string, in AssignInput) (*models.Issue, error) {
	if in.AssigneeName == "" {
		return nil, &ValidationError{Field: "assignee", Reason: "required"}
	}
	if in.AssigneeType == "" {
		in.AssigneeType = models.AssigneeTypeStaff
	}

	issue, err := m.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	from := issue.Status
	if !roleMayTransition(actor.Role, from) {
		return nil, &UnauthorizedError{Role: actor.Role, Action: fmt.Sprintf("transition issues out of %s", from)}
	}
	if !ValidTransition(from, models.IssueStatusAssigned) {
		return nil, &InvalidTransitionError{From: from, To: models.IssueStatusAssigned}
	}

	now := m.now()
	issue.Status = models.IssueStatusAssigned
	issue.AssigneeID = in.AssigneeID
	issue.AssigneeName = in.AssigneeName
	issue.AssigneeType = in.AssigneeType
	issue.ScheduledDate = in.ScheduledDate
	issue.TimeSlot = in.TimeSlot
	issue.AssignedAt = &now

	act := &models.IssueActivity{
		Type:          models.ActivityAssigned,
		Description:   fmt.Sprintf("assigned to %s (%s)", in.AssigneeName, in.AssigneeType),
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		ActorRole:     actor.Role,
		PreviousValue: string(from),
		NewValue:      string(models.IssueStatusAssigned),
		CreatedAt:     now,
	}

	if err := m.store.UpdateIssue(ctx, issue, act); err != nil {
		return nil, err
	}
	return m.store.GetIssue(ctx, id)
}

// SetPriority changes an issue's priority. Managers and admins only.
func (m *Manager) SetPriority(ctx context.Context, actor models.Actor, id string, priority models.IssuePriority) (*models.Issue, error) {
	if actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
		return nil, &UnauthorizedError{Role: actor.Role, Action: "change priority"}
	}
	switch priority {
	case models.IssuePriorityUrgent, models.IssuePriorityHigh, models.IssuePriorityMedium, models.IssuePriorityLow:
	default:
		return nil, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", priority)}
	}

	issue, err := m.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.Priority == priority {
		return issue, nil
	}

	prev := issue.Priority
	issue.Priority = priority

	act := &models.IssueActivity{
		Type:          models.ActivityPriorityChanged,
		Description:   fmt.Sprintf("priority changed from %s to %s", prev, priority),
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		ActorRole:     actor.Role,
		PreviousValue: string(prev),
		NewValue:      string(priority),
		CreatedAt:     m.now(),
	}

	if err := m.store.UpdateIssue(ctx, issue, act); err != nil {
		return nil, err
	}
	return m.store.GetIssue(ctx, id)
}

// UpdateInput holds partial field updates. Nil pointers leave the field
// unchanged. Status and priority changes go through Transition and
// SetPriority, not here.
type UpdateInput struct {
	Title         *string
	Description   *string
	Location      *string
	Unit          *string
	EstimatedCost *float64
	ActualCost    *float64
	Payer         *models.CostPayer
	CostNotes     *string
}

// Update applies field-level edits. Managers and admins only.
func (m *Manager) Update(ctx context.Context, actor models.Actor, id string, in UpdateInput) (*models.Issue, error) {
	if actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
		return nil, &UnauthorizedError{Role: actor.Role, Action: "edit issues"}
	}

	issue, err := m.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if in.Title != nil && *in.Title != "" {
		issue.Title = *in.Title
		changed = true
	}
	if in.Description != nil && *in.Description != "" {
		issue.Description = *in.Description
		changed = true
	}
	if in.Location != nil {
		issue.Location = *in.Location
		changed = true
	}
	if in.Unit != nil {
		issue.Unit = *in.Unit
		changed = true
	}
	if in.EstimatedCost != nil {
		issue.EstimatedCost = in.EstimatedCost
		changed = true
	}
	if in.ActualCost != nil {
		issue.ActualCost = in.ActualCost
		changed = true
	}
	if in.Payer != nil {
		issue.Payer = *in.Payer
		changed = true
	}
	if in.CostNotes != nil {
		issue.CostNotes = *in.CostNotes
		changed = true
	}
	if !changed {
		return nil, &ValidationError{Field: "update", Reason: "no fields to update"}
	}

	act := &models.IssueActivity{
		Type:        models.ActivityUpdated,
		Description: "issue details updated",
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		CreatedAt:   m.now(),
	}

	if err := m.store.UpdateIssue(ctx, issue, act); err != nil {
		return nil, err
	}
	return m.store.GetIssue(ctx, id)
}

// ImageInput holds a photo attachment.
type ImageInput struct {
	URL     string
	Tag     models.ImageTag
	Caption string
}

// AddImage attaches a photo to an issue. Tenants may only attach to
// their own reports.
func (m *Manager) AddImage(ctx context.Context, actor models.Actor, id string, in ImageInput) (*models.Issue, error) {
	if in.URL == "" {
		return nil, &ValidationError{Field: "url", Reason: "required"}
	}
	if in.Tag == "" {
		in.Tag = models.ImageTagOther
	}

	issue, err := m.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTenant && issue.ReporterID != actor.ID {
		return nil, &UnauthorizedError{Role: actor.Role, Action: "attach images to other reporters' issues"}
	}

	now := m.now()
	img := &models.IssueImage{
		IssueID:      issue.ID,
		URL:          in.URL,
		Tag:          in.Tag,
		Caption:      in.Caption,
		UploadedByID: actor.ID,
		UploadedAt:   now,
	}
	act := &models.IssueActivity{
		Type:        models.ActivityImageAdded,
		Description: fmt.Sprintf("%s photo added", in.Tag),
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		NewValue:    string(in.Tag),
		CreatedAt:   now,
	}

	if err := m.store.AddIssueImage(ctx, img, act); err != nil {
		return nil, err
	}
	return m.store.GetIssue(ctx, id)
}

// Attention returns all issues waiting on an owner decision.
func (m *Manager) Attention(ctx context.Context) ([]*models.Issue, error) {
	return m.store.ListIssues(ctx, store.IssueListFilter{
		Statuses: []models.IssueStatus{models.IssueStatusEscalated},
	})
}

// Metrics aggregates issue counts and SLA standing, optionally scoped
// to one property. Breach status is computed on read, never stored.
type Metrics struct {
	Total              int                          `json:"total"`
	ByStatus           map[models.IssueStatus]int   `json:"by_status"`
	ByPriority         map[models.IssuePriority]int `json:"by_priority"`
	AvgResolutionHours float64                      `json:"avg_resolution_hours"`
	Breaching          int                          `json:"breaching"`
	OpenEscalations    int                          `json:"open_escalations"`
}

// ComputeMetrics builds Metrics for all issues (including closed).
func (m *Manager) ComputeMetrics(ctx context.Context, propertyID string) (*Metrics, error) {
	issues, err := m.store.ListIssues(ctx, store.IssueListFilter{
		PropertyID: propertyID,
		ShowClosed: true,
	})
	if err != nil {
		return nil, err
	}

	now := m.now()
	metrics := &Metrics{
		ByStatus:   make(map[models.IssueStatus]int),
		ByPriority: make(map[models.IssuePriority]int),
	}

	var resolvedCount int
	var resolutionHours float64
	for _, issue := range issues {
		metrics.Total++
		metrics.ByStatus[issue.Status]++
		metrics.ByPriority[issue.Priority]++

		if issue.ResolvedAt != nil {
			resolvedCount++
			resolutionHours += issue.ResolvedAt.Sub(issue.ReportedAt).Hours()
		}
		if m.sla.Breached(issue, now) {
			metrics.Breaching++
		}
		if issue.Status == models.IssueStatusEscalated {
			metrics.OpenEscalations++
		}
	}
	if resolvedCount > 0 {
		metrics.AvgResolutionHours = resolutionHours / float64(resolvedCount)
	}
	return metrics, nil
}
