package store

import (
	"context"
	"errors"

	"github.com/propdesk/propdesk/internal/models"
)

// ErrNotFound is wrapped by all "no such record" errors so callers can
// distinguish missing records from rule violations with errors.Is.
var ErrNotFound = errors.New("not found")

// IssueListFilter specifies filters for listing issues.
// Zero-value slice/string fields are ignored. Closed issues are excluded
// unless ShowClosed is set.
type IssueListFilter struct {
	PropertyID string
	ReporterID string
	AssigneeID string
	Statuses   []models.IssueStatus
	Priorities []models.IssuePriority
	Categories []models.IssueCategory
	ShowClosed bool
}

// Store defines the persistence interface for propdesk.
//
// Issue mutations take the activity entry to append so that the record
// update and its audit-trail entry commit in one transaction. Issues are
// never hard-deleted; the audit trail is append-only.
type Store interface {
	// Properties
	CreateProperty(ctx context.Context, p *models.Property) error
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	GetPropertyByName(ctx context.Context, name string) (*models.Property, error)
	ListProperties(ctx context.Context) ([]*models.Property, error)
	UpdateProperty(ctx context.Context, p *models.Property) error
	DeleteProperty(ctx context.Context, id string) error

	// Vendors
	CreateVendor(ctx context.Context, v *models.Vendor) error
	GetVendor(ctx context.Context, id string) (*models.Vendor, error)
	ListVendors(ctx context.Context, trade string) ([]*models.Vendor, error)
	UpdateVendor(ctx context.Context, v *models.Vendor) error
	DeleteVendor(ctx context.Context, id string) error

	// Issues
	CreateIssue(ctx context.Context, issue *models.Issue, seed *models.IssueActivity) error
	GetIssue(ctx context.Context, id string) (*models.Issue, error)
	ListIssues(ctx context.Context, filter IssueListFilter) ([]*models.Issue, error)
	UpdateIssue(ctx context.Context, issue *models.Issue, act *models.IssueActivity) error
	AddIssueImage(ctx context.Context, img *models.IssueImage, act *models.IssueActivity) error
	ListActivities(ctx context.Context, issueID string) ([]models.IssueActivity, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
