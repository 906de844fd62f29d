package models

import "time"

// IssueStatus represents the lifecycle state of a maintenance issue.
type IssueStatus string

const (
	IssueStatusOpen            IssueStatus = "open"
	IssueStatusTriaged         IssueStatus = "triaged"
	IssueStatusAssigned        IssueStatus = "assigned"
	IssueStatusInProgress      IssueStatus = "in_progress"
	IssueStatusPendingApproval IssueStatus = "pending_approval"
	IssueStatusResolved        IssueStatus = "resolved"
	IssueStatusClosed          IssueStatus = "closed"
	IssueStatusEscalated       IssueStatus = "escalated"
)

// Terminal reports whether the status ends the normal workflow.
// Only an explicit reopen exits a terminal status.
func (s IssueStatus) Terminal() bool {
	return s == IssueStatusClosed
}

// Active reports whether the issue is still in the working flow
// (neither resolved nor closed).
func (s IssueStatus) Active() bool {
	switch s {
	case IssueStatusOpen, IssueStatusTriaged, IssueStatusAssigned,
		IssueStatusInProgress, IssueStatusPendingApproval, IssueStatusEscalated:
		return true
	}
	return false
}

// IssuePriority represents the urgency of an issue and drives its SLA target.
type IssuePriority string

const (
	IssuePriorityUrgent IssuePriority = "urgent"
	IssuePriorityHigh   IssuePriority = "high"
	IssuePriorityMedium IssuePriority = "medium"
	IssuePriorityLow    IssuePriority = "low"
)

// IssueCategory represents the kind of problem being reported.
type IssueCategory string

const (
	IssueCategoryMaintenance IssueCategory = "maintenance"
	IssueCategoryPlumbing    IssueCategory = "plumbing"
	IssueCategoryElectrical  IssueCategory = "electrical"
	IssueCategoryHVAC        IssueCategory = "hvac"
	IssueCategoryAppliance   IssueCategory = "appliance"
	IssueCategoryStructural  IssueCategory = "structural"
	IssueCategoryPest        IssueCategory = "pest"
	IssueCategorySafety      IssueCategory = "safety"
	IssueCategoryOther       IssueCategory = "other"
)

// AssigneeType distinguishes in-house staff from external vendors.
type AssigneeType string

const (
	AssigneeTypeStaff  AssigneeType = "staff"
	AssigneeTypeVendor AssigneeType = "vendor"
)

// CostPayer identifies who pays for a repair.
type CostPayer string

const (
	CostPayerOwner     CostPayer = "owner"
	CostPayerTenant    CostPayer = "tenant"
	CostPayerInsurance CostPayer = "insurance"
	CostPayerWarranty  CostPayer = "warranty"
)

// ImageTag marks where in the repair flow a photo was taken.
type ImageTag string

const (
	ImageTagBefore ImageTag = "before"
	ImageTagAfter  ImageTag = "after"
	ImageTagOther  ImageTag = "other"
)

// IssueImage is a photo attached to an issue.
type IssueImage struct {
	ID      string   `json:"id"`
	IssueID string   `json:"issue_id"`
	URL     string   `json:"url"`
	Tag     ImageTag `json:"tag"`
	Caption string   `json:"caption,omitempty"`

	UploadedByID string    `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Issue is a reported property problem tracked through its lifecycle.
type Issue struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Unit       string `json:"unit,omitempty"`

	Title       string        `json:"title"`
	Description string        `json:"description"`
	Location    string        `json:"location,omitempty"`
	Category    IssueCategory `json:"category"`
	Priority    IssuePriority `json:"priority"`
	Status      IssueStatus   `json:"status"`

	ReporterID   string `json:"reporter_id"`
	ReporterName string `json:"reporter_name"`
	ReporterRole Role   `json:"reporter_role"`

	AssigneeID    string       `json:"assignee_id,omitempty"`
	AssigneeName  string       `json:"assignee_name,omitempty"`
	AssigneeType  AssigneeType `json:"assignee_type,omitempty"`
	ScheduledDate *time.Time   `json:"scheduled_date,omitempty"`
	TimeSlot      string       `json:"time_slot,omitempty"`

	EstimatedCost *float64  `json:"estimated_cost,omitempty"`
	ActualCost    *float64  `json:"actual_cost,omitempty"`
	Payer         CostPayer `json:"payer,omitempty"`
	CostNotes     string    `json:"cost_notes,omitempty"`

	ResolutionNotes string `json:"resolution_notes,omitempty"`
	ResolvedByID    string `json:"resolved_by_id,omitempty"`
	ResolvedByName  string `json:"resolved_by_name,omitempty"`

	EscalationReason string     `json:"escalation_reason,omitempty"`
	EscalatedByID    string     `json:"escalated_by_id,omitempty"`
	EscalatedByName  string     `json:"escalated_by_name,omitempty"`
	EscalatedAt      *time.Time `json:"escalated_at,omitempty"`

	ReportedAt time.Time  `json:"reported_at"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Loaded on demand by GetIssue; not populated by list queries.
	Images     []IssueImage    `json:"images,omitempty"`
	Activities []IssueActivity `json:"activities,omitempty"`
}
