package lifecycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/store"
)

var (
	tenant  = models.Actor{ID: "t1", Name: "Terry Tenant", Role: models.RoleTenant}
	manager = models.Actor{ID: "m1", Name: "Pat Manager", Role: models.RoleManager}
	owner   = models.Actor{ID: "o1", Name: "Olive Owner", Role: models.RoleOwner}
	admin   = models.Actor{ID: "a1", Name: "Alex Admin", Role: models.RoleAdmin}
)

func newTestManager(t *testing.T, opts ...Option) (*Manager, store.Store, string) {
	t.Helper()
	dir := t.TempDir()

	s, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	p := &models.Property{Name: "Maple Court", Address: "12 Maple St", Units: 8}
	require.NoError(t, s.CreateProperty(context.Background(), p))

	return NewManager(s, opts...), s, p.ID
}

func reportIssue(t *testing.T, m *Manager, propertyID string) *models.Issue {
	t.Helper()
	issue, err := m.Create(context.Background(), tenant, CreateInput{
		PropertyID:  propertyID,
		Title:       "Leaky faucet",
		Description: "Kitchen faucet drips constantly",
		Location:    "kitchen",
		Category:    models.IssueCategoryPlumbing,
		Priority:    models.IssuePriorityMedium,
	})
	require.NoError(t, err)
	return issue
}

// forceStatus puts an issue into an arbitrary status for test setup,
// bypassing the transition rules.
func forceStatus(t *testing.T, s store.Store, id string, status models.IssueStatus) {
	t.Helper()
	ctx := context.Background()
	issue, err := s.GetIssue(ctx, id)
	require.NoError(t, err)
	issue.Status = status
	require.NoError(t, s.UpdateIssue(ctx, issue, nil))
}

func TestCreate(t *testing.T) {
	m, _, propertyID := newTestManager(t)

	issue := reportIssue(t, m, propertyID)

	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Equal(t, models.IssueCategoryPlumbing, issue.Category)
	assert.Equal(t, tenant.ID, issue.ReporterID)
	assert.Equal(t, models.RoleTenant, issue.ReporterRole)
	assert.False(t, issue.ReportedAt.IsZero())

	require.Len(t, issue.Activities, 1)
	assert.Equal(t, models.ActivityCreated, issue.Activities[0].Type)
	assert.Equal(t, string(models.IssueStatusOpen), issue.Activities[0].NewValue)
}

func TestCreate_Validation(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	var vErr *ValidationError

	_, err := m.Create(ctx, tenant, CreateInput{PropertyID: propertyID, Description: "no title"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)

	_, err = m.Create(ctx, tenant, CreateInput{PropertyID: propertyID, Title: "no description"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "description", vErr.Field)
}

func TestCreate_PropertyNotFound(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Create(context.Background(), tenant, CreateInput{
		PropertyID:  "nope",
		Title:       "t",
		Description: "d",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreate_DefaultsCategoryAndPriority(t *testing.T) {
	m, _, propertyID := newTestManager(t)

	issue, err := m.Create(context.Background(), manager, CreateInput{
		PropertyID:  propertyID,
		Title:       "Broken thing",
		Description: "Something is broken",
	})
	require.NoError(t, err)
	assert.Equal(t, models.IssueCategoryOther, issue.Category)
	assert.Equal(t, models.IssuePriorityMedium, issue.Priority)
}

// TestTransition_Grid drives every (from, to) status pair through the
// manager and checks that allowed pairs succeed with exactly one new
// audit entry, and disallowed pairs leave the record untouched.
func TestTransition_Grid(t *testing.T) {
	m, s, propertyID := newTestManager(t)
	ctx := context.Background()

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			issue := reportIssue(t, m, propertyID)
			forceStatus(t, s, issue.ID, from)

			before, err := s.GetIssue(ctx, issue.ID)
			require.NoError(t, err)

			updated, err := m.Transition(ctx, admin, issue.ID, to, "needs a decision")

			if ValidTransition(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, updated.Status)
				require.Len(t, updated.Activities, len(before.Activities)+1, "%s -> %s", from, to)
				last := updated.Activities[len(updated.Activities)-1]
				assert.Equal(t, string(from), last.PreviousValue)
				assert.Equal(t, string(to), last.NewValue)
			} else {
				var itErr *InvalidTransitionError
				require.ErrorAs(t, err, &itErr, "%s -> %s", from, to)
				assert.Equal(t, from, itErr.From)
				assert.Equal(t, to, itErr.To)

				after, err := s.GetIssue(ctx, issue.ID)
				require.NoError(t, err)
				assert.Equal(t, before.Status, after.Status)
				assert.Len(t, after.Activities, len(before.Activities))
			}
		}
	}
}

func TestTransition_ExampleFlow(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)
	assert.Equal(t, models.IssueStatusOpen, issue.Status)

	issue, err := m.Transition(ctx, manager, issue.ID, models.IssueStatusTriaged, "")
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusTriaged, issue.Status)

	_, err = m.Transition(ctx, manager, issue.ID, models.IssueStatusClosed, "")
	var itErr *InvalidTransitionError
	assert.ErrorAs(t, err, &itErr)
}

func TestTransition_NotFound(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Transition(context.Background(), manager, "missing", models.IssueStatusTriaged, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransition_RoleGating(t *testing.T) {
	m, s, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)

	// Tenants never transition, even their own issues.
	var uErr *UnauthorizedError
	_, err := m.Transition(ctx, tenant, issue.ID, models.IssueStatusTriaged, "")
	require.ErrorAs(t, err, &uErr)

	// Owners may not drive the normal forward flow.
	_, err = m.Transition(ctx, owner, issue.ID, models.IssueStatusTriaged, "")
	require.ErrorAs(t, err, &uErr)

	// Managers may not decide escalations...
	forceStatus(t, s, issue.ID, models.IssueStatusEscalated)
	_, err = m.Transition(ctx, manager, issue.ID, models.IssueStatusClosed, "")
	require.ErrorAs(t, err, &uErr)

	// ...but owners may.
	updated, err := m.Transition(ctx, owner, issue.ID, models.IssueStatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusClosed, updated.Status)
}

func TestEscalate(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)
	issue, err := m.Transition(ctx, manager, issue.ID, models.IssueStatusTriaged, "")
	require.NoError(t, err)

	issue, err = m.Escalate(ctx, manager, issue.ID, "water damage spreading to unit below")
	require.NoError(t, err)

	assert.Equal(t, models.IssueStatusEscalated, issue.Status)
	assert.Equal(t, "water damage spreading to unit below", issue.EscalationReason)
	assert.Equal(t, manager.ID, issue.EscalatedByID)
	require.NotNil(t, issue.EscalatedAt)

	// The pre-escalation status is recoverable from the audit trail.
	require.GreaterOrEqual(t, len(issue.Activities), 2)
	last := issue.Activities[len(issue.Activities)-1]
	assert.Equal(t, models.ActivityEscalated, last.Type)
	assert.Equal(t, string(models.IssueStatusTriaged), last.PreviousValue)
}

func TestEscalate_ReasonRequired(t *testing.T) {
	m, _, propertyID := newTestManager(t)

	issue := reportIssue(t, m, propertyID)
	_, err := m.Escalate(context.Background(), manager, issue.ID, "")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestResolve_FieldsPersistThroughClose(t *testing.T) {
	m, s, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)
	forceStatus(t, s, issue.ID, models.IssueStatusInProgress)

	issue, err := m.Transition(ctx, manager, issue.ID, models.IssueStatusResolved, "replaced washer")
	require.NoError(t, err)
	assert.Equal(t, "replaced washer", issue.ResolutionNotes)
	assert.Equal(t, manager.Name, issue.ResolvedByName)
	require.NotNil(t, issue.ResolvedAt)
	resolvedAt := *issue.ResolvedAt

	issue, err = m.Transition(ctx, manager, issue.ID, models.IssueStatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusClosed, issue.Status)
	require.NotNil(t, issue.ResolvedAt)
	assert.Equal(t, resolvedAt, *issue.ResolvedAt)
	assert.Equal(t, manager.Name, issue.ResolvedByName)
}

func TestReopen_ClearsResolution(t *testing.T) {
	m, s, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)
	forceStatus(t, s, issue.ID, models.IssueStatusInProgress)

	issue, err := m.Transition(ctx, manager, issue.ID, models.IssueStatusResolved, "done")
	require.NoError(t, err)

	issue, err = m.Transition(ctx, manager, issue.ID, models.IssueStatusOpen, "still dripping")
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Nil(t, issue.ResolvedAt)
	assert.Empty(t, issue.ResolutionNotes)
	assert.Empty(t, issue.ResolvedByName)

	last := issue.Activities[len(issue.Activities)-1]
	assert.Equal(t, models.ActivityReopened, last.Type)
}

func TestAssign(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)
	scheduled := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	issue, err := m.Assign(ctx, manager, issue.ID, AssignInput{
		AssigneeID:    "v1",
		AssigneeName:  "Ace Plumbing",
		AssigneeType:  models.AssigneeTypeVendor,
		ScheduledDate: &scheduled,
		TimeSlot:      "morning",
	})
	require.NoError(t, err)

	assert.Equal(t, models.IssueStatusAssigned, issue.Status)
	assert.Equal(t, "Ace Plumbing", issue.AssigneeName)
	assert.Equal(t, models.AssigneeTypeVendor, issue.AssigneeType)
	assert.Equal(t, "morning", issue.TimeSlot)
	require.NotNil(t, issue.AssignedAt)
	require.NotNil(t, issue.ScheduledDate)

	last := issue.Activities[len(issue.Activities)-1]
	assert.Equal(t, models.ActivityAssigned, last.Type)
	assert.Equal(t, string(models.IssueStatusOpen), last.PreviousValue)
	assert.Equal(t, string(models.IssueStatusAssigned), last.NewValue)
}

func TestAssign_InvalidFromStatus(t *testing.T) {
	m, s, propertyID := newTestManager(t)

	issue := reportIssue(t, m, propertyID)
	forceStatus(t, s, issue.ID, models.IssueStatusInProgress)

	_, err := m.Assign(context.Background(), manager, issue.ID, AssignInput{AssigneeName: "Someone"})
	var itErr *InvalidTransitionError
	assert.ErrorAs(t, err, &itErr)
}

func TestSetPriority(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)

	issue, err := m.SetPriority(ctx, manager, issue.ID, models.IssuePriorityUrgent)
	require.NoError(t, err)
	assert.Equal(t, models.IssuePriorityUrgent, issue.Priority)

	last := issue.Activities[len(issue.Activities)-1]
	assert.Equal(t, models.ActivityPriorityChanged, last.Type)
	assert.Equal(t, string(models.IssuePriorityMedium), last.PreviousValue)
	assert.Equal(t, string(models.IssuePriorityUrgent), last.NewValue)

	// Tenants may not change priority.
	_, err = m.SetPriority(ctx, tenant, issue.ID, models.IssuePriorityLow)
	var uErr *UnauthorizedError
	assert.ErrorAs(t, err, &uErr)

	// No-op change appends nothing.
	issue, err = m.SetPriority(ctx, manager, issue.ID, models.IssuePriorityUrgent)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPriorityChanged, issue.Activities[len(issue.Activities)-1].Type)
	assert.Len(t, issue.Activities, 2)
}

func TestUpdate(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)

	cost := 125.50
	payer := models.CostPayerOwner
	issue, err := m.Update(ctx, manager, issue.ID, UpdateInput{
		EstimatedCost: &cost,
		Payer:         &payer,
	})
	require.NoError(t, err)
	require.NotNil(t, issue.EstimatedCost)
	assert.Equal(t, 125.50, *issue.EstimatedCost)
	assert.Equal(t, models.CostPayerOwner, issue.Payer)
	assert.Equal(t, models.ActivityUpdated, issue.Activities[len(issue.Activities)-1].Type)

	_, err = m.Update(ctx, manager, issue.ID, UpdateInput{})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = m.Update(ctx, tenant, issue.ID, UpdateInput{EstimatedCost: &cost})
	var uErr *UnauthorizedError
	assert.ErrorAs(t, err, &uErr)
}

func TestAddImage(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)

	issue, err := m.AddImage(ctx, tenant, issue.ID, ImageInput{
		URL: "file:///photos/faucet.jpg",
		Tag: models.ImageTagBefore,
	})
	require.NoError(t, err)
	require.Len(t, issue.Images, 1)
	assert.Equal(t, models.ImageTagBefore, issue.Images[0].Tag)
	assert.Equal(t, tenant.ID, issue.Images[0].UploadedByID)
	assert.Equal(t, models.ActivityImageAdded, issue.Activities[len(issue.Activities)-1].Type)

	// A different tenant cannot attach to someone else's report.
	otherTenant := models.Actor{ID: "t2", Name: "Other Tenant", Role: models.RoleTenant}
	_, err = m.AddImage(ctx, otherTenant, issue.ID, ImageInput{URL: "file:///x.jpg"})
	var uErr *UnauthorizedError
	assert.ErrorAs(t, err, &uErr)
}

func TestTenantVisibility(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	mine := reportIssue(t, m, propertyID)

	otherTenant := models.Actor{ID: "t2", Name: "Other Tenant", Role: models.RoleTenant}
	theirs, err := m.Create(ctx, otherTenant, CreateInput{
		PropertyID:  propertyID,
		Title:       "Broken heater",
		Description: "No heat in bedroom",
		Category:    models.IssueCategoryHVAC,
	})
	require.NoError(t, err)

	// Tenant list is scoped to their own reports.
	issues, err := m.List(ctx, tenant, store.IssueListFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, mine.ID, issues[0].ID)

	// Tenant cannot fetch someone else's issue.
	_, err = m.Get(ctx, tenant, theirs.ID)
	var uErr *UnauthorizedError
	assert.ErrorAs(t, err, &uErr)

	// Managers see everything.
	issues, err = m.List(ctx, manager, store.IssueListFilter{})
	require.NoError(t, err)
	assert.Len(t, issues, 2)
}

func TestAttention(t *testing.T) {
	m, _, propertyID := newTestManager(t)
	ctx := context.Background()

	issue := reportIssue(t, m, propertyID)
	other := reportIssue(t, m, propertyID)

	_, err := m.Escalate(ctx, manager, issue.ID, "over budget")
	require.NoError(t, err)

	attention, err := m.Attention(ctx)
	require.NoError(t, err)
	require.Len(t, attention, 1)
	assert.Equal(t, issue.ID, attention[0].ID)
	assert.NotEqual(t, other.ID, attention[0].ID)
}

func TestComputeMetrics(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m, s, propertyID := newTestManager(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	// One urgent issue reported 5 hours ago: breaching.
	breaching := reportIssue(t, m, propertyID)
	rec, err := s.GetIssue(ctx, breaching.ID)
	require.NoError(t, err)
	rec.Priority = models.IssuePriorityUrgent
	rec.ReportedAt = now.Add(-5 * time.Hour)
	require.NoError(t, s.UpdateIssue(ctx, rec, nil))

	// One resolved in 2 hours, then closed.
	resolved := reportIssue(t, m, propertyID)
	rec, err = s.GetIssue(ctx, resolved.ID)
	require.NoError(t, err)
	rec.ReportedAt = now.Add(-2 * time.Hour)
	rec.Status = models.IssueStatusInProgress
	require.NoError(t, s.UpdateIssue(ctx, rec, nil))
	_, err = m.Transition(ctx, manager, resolved.ID, models.IssueStatusResolved, "fixed")
	require.NoError(t, err)
	_, err = m.Transition(ctx, manager, resolved.ID, models.IssueStatusClosed, "")
	require.NoError(t, err)

	// One escalated.
	escalated := reportIssue(t, m, propertyID)
	_, err = m.Escalate(ctx, manager, escalated.ID, "structural concern")
	require.NoError(t, err)

	metrics, err := m.ComputeMetrics(ctx, propertyID)
	require.NoError(t, err)

	assert.Equal(t, 3, metrics.Total)
	assert.Equal(t, 1, metrics.ByStatus[models.IssueStatusOpen])
	assert.Equal(t, 1, metrics.ByStatus[models.IssueStatusClosed])
	assert.Equal(t, 1, metrics.ByStatus[models.IssueStatusEscalated])
	assert.Equal(t, 1, metrics.Breaching)
	assert.Equal(t, 1, metrics.OpenEscalations)
	assert.InDelta(t, 2.0, metrics.AvgResolutionHours, 0.01)
}
