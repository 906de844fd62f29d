package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/propdesk/propdesk/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Properties ---

func (s *SQLiteStore) CreateProperty(ctx context.Context, p *models.Property) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (id, name, address, units, manager_name, owner_name, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Address, p.Units, p.ManagerName, p.OwnerName, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	return s.getProperty(ctx, "id = ?", id)
}

func (s *SQLiteStore) GetPropertyByName(ctx context.Context, name string) (*models.Property, error) {
	return s.getProperty(ctx, "name = ?", name)
}

func (s *SQLiteStore) getProperty(ctx context.Context, where string, arg any) (*models.Property, error) {
	p := &models.Property{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, units, manager_name, owner_name, notes, created_at, updated_at
		FROM properties WHERE `+where, arg,
	).Scan(&p.ID, &p.Name, &p.Address, &p.Units, &p.ManagerName, &p.OwnerName, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("property %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProperties(ctx context.Context) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, units, manager_name, owner_name, notes, created_at, updated_at
		FROM properties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var properties []*models.Property
	for rows.Next() {
		p := &models.Property{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Units, &p.ManagerName, &p.OwnerName, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (s *SQLiteStore) UpdateProperty(ctx context.Context, p *models.Property) error {
	p.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE properties SET name=?, address=?, units=?, manager_name=?, owner_name=?, notes=?, updated_at=?
		WHERE id=?`,
		p.Name, p.Address, p.Units, p.ManagerName, p.OwnerName, p.Notes, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("property %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteProperty(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Vendors ---

func (s *SQLiteStore) CreateVendor(ctx context.Context, v *models.Vendor) error {
	if v.ID == "" {
		v.ID = newULID()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vendors (id, name, trade, phone, email, hourly_rate, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Trade, v.Phone, v.Email, v.HourlyRate, v.Notes, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create vendor: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	v := &models.Vendor{}
	var rate sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, trade, phone, email, hourly_rate, notes, created_at, updated_at
		FROM vendors WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.Trade, &v.Phone, &v.Email, &rate, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vendor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	if rate.Valid {
		v.HourlyRate = &rate.Float64
	}
	return v, nil
}

func (s *SQLiteStore) ListVendors(ctx context.Context, trade string) ([]*models.Vendor, error) {
	query := `SELECT id, name, trade, phone, email, hourly_rate, notes, created_at, updated_at FROM vendors`
	var args []any
	if trade != "" {
		query += " WHERE trade = ?"
		args = append(args, trade)
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vendors []*models.Vendor
	for rows.Next() {
		v := &models.Vendor{}
		var rate sql.NullFloat64
		if err := rows.Scan(&v.ID, &v.Name, &v.Trade, &v.Phone, &v.Email, &rate, &v.Notes, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		if rate.Valid {
			v.HourlyRate = &rate.Float64
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (s *SQLiteStore) UpdateVendor(ctx context.Context, v *models.Vendor) error {
	v.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE vendors SET name=?, trade=?, phone=?, email=?, hourly_rate=?, notes=?, updated_at=? WHERE id=?`,
		v.Name, v.Trade, v.Phone, v.Email, v.HourlyRate, v.Notes, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update vendor: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("vendor %s: %w", v.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteVendor(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM vendors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete vendor: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("vendor %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Issues ---

const issueColumns = `id, property_id, unit, title, description, location, category, priority, status,
	reporter_id, reporter_name, reporter_role,
	assignee_id, assignee_name, assignee_type, scheduled_date, time_slot,
	estimated_cost, actual_cost, payer, cost_notes,
	resolution_notes, resolved_by_id, resolved_by_name,
	escalation_reason, escalated_by_id, escalated_by_name, escalated_at,
	reported_at, assigned_at, resolved_at, updated_at`

func (s *SQLiteStore) CreateIssue(ctx context.Context, issue *models.Issue, seed *models.IssueActivity) error {
	if issue.ID == "" {
		issue.ID = newULID()
	}
	now := time.Now().UTC()
	if issue.ReportedAt.IsZero() {
		issue.ReportedAt = now
	}
	issue.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.PropertyID, issue.Unit, issue.Title, issue.Description, issue.Location,
		string(issue.Category), string(issue.Priority), string(issue.Status),
		issue.ReporterID, issue.ReporterName, string(issue.ReporterRole),
		issue.AssigneeID, issue.AssigneeName, string(issue.AssigneeType), issue.ScheduledDate, issue.TimeSlot,
		issue.EstimatedCost, issue.ActualCost, string(issue.Payer), issue.CostNotes,
		issue.ResolutionNotes, issue.ResolvedByID, issue.ResolvedByName,
		issue.EscalationReason, issue.EscalatedByID, issue.EscalatedByName, issue.EscalatedAt,
		issue.ReportedAt, issue.AssignedAt, issue.ResolvedAt, issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}

	if seed != nil {
		seed.IssueID = issue.ID
		if err := insertActivity(ctx, tx, seed); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}

	images, err := s.listImages(ctx, id)
	if err != nil {
		return nil, err
	}
	issue.Images = images

	activities, err := s.ListActivities(ctx, id)
	if err != nil {
		return nil, err
	}
	issue.Activities = activities

	return issue, nil
}

func (s *SQLiteStore) ListIssues(ctx context.Context, filter IssueListFilter) ([]*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues`
	var conditions []string
	var args []any

	if filter.PropertyID != "" {
		conditions = append(conditions, "property_id = ?")
		args = append(args, filter.PropertyID)
	}
	if filter.ReporterID != "" {
		conditions = append(conditions, "reporter_id = ?")
		args = append(args, filter.ReporterID)
	}
	if filter.AssigneeID != "" {
		conditions = append(conditions, "assignee_id = ?")
		args = append(args, filter.AssigneeID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	} else if !filter.ShowClosed {
		conditions = append(conditions, "status != ?")
		args = append(args, string(models.IssueStatusClosed))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, p := range filter.Priorities {
			placeholders[i] = "?"
			args = append(args, string(p))
		}
		conditions = append(conditions, "priority IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			placeholders[i] = "?"
			args = append(args, string(c))
		}
		conditions = append(conditions, "category IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY
		CASE status WHEN 'escalated' THEN 0 WHEN 'open' THEN 1 WHEN 'triaged' THEN 2 WHEN 'assigned' THEN 3 WHEN 'in_progress' THEN 4 WHEN 'pending_approval' THEN 5 WHEN 'resolved' THEN 6 WHEN 'closed' THEN 7 ELSE 8 END,
		CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END,
		reported_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*models.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

func (s *SQLiteStore) UpdateIssue(ctx context.Context, issue *models.Issue, act *models.IssueActivity) error {
	issue.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE issues SET unit=?, title=?, description=?, location=?, category=?, priority=?, status=?,
		assignee_id=?, assignee_name=?, assignee_type=?, scheduled_date=?, time_slot=?,
		estimated_cost=?, actual_cost=?, payer=?, cost_notes=?,
		resolution_notes=?, resolved_by_id=?, resolved_by_name=?,
		escalation_reason=?, escalated_by_id=?, escalated_by_name=?, escalated_at=?,
		assigned_at=?, resolved_at=?, updated_at=?
		WHERE id=?`,
		issue.Unit, issue.Title, issue.Description, issue.Location,
		string(issue.Category), string(issue.Priority), string(issue.Status),
		issue.AssigneeID, issue.AssigneeName, string(issue.AssigneeType), issue.ScheduledDate, issue.TimeSlot,
		issue.EstimatedCost, issue.ActualCost, string(issue.Payer), issue.CostNotes,
		issue.ResolutionNotes, issue.ResolvedByID, issue.ResolvedByName,
		issue.EscalationReason, issue.EscalatedByID, issue.EscalatedByName, issue.EscalatedAt,
		issue.AssignedAt, issue.ResolvedAt, issue.UpdatedAt,
		issue.ID,
	)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue %s: %w", issue.ID, ErrNotFound)
	}

	if act != nil {
		act.IssueID = issue.ID
		if err := insertActivity(ctx, tx, act); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddIssueImage(ctx context.Context, img *models.IssueImage, act *models.IssueActivity) error {
	if img.ID == "" {
		img.ID = newULID()
	}
	if img.UploadedAt.IsZero() {
		img.UploadedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO issue_images (id, issue_id, url, tag, caption, uploaded_by_id, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.IssueID, img.URL, string(img.Tag), img.Caption, img.UploadedByID, img.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("add issue image: %w", err)
	}

	if act != nil {
		act.IssueID = img.IssueID
		if err := insertActivity(ctx, tx, act); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listImages(ctx context.Context, issueID string) ([]models.IssueImage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, url, tag, caption, uploaded_by_id, uploaded_at
		FROM issue_images WHERE issue_id = ? ORDER BY uploaded_at, id`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list issue images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var images []models.IssueImage
	for rows.Next() {
		var img models.IssueImage
		var tag string
		if err := rows.Scan(&img.ID, &img.IssueID, &img.URL, &tag, &img.Caption, &img.UploadedByID, &img.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan issue image: %w", err)
		}
		img.Tag = models.ImageTag(tag)
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLiteStore) ListActivities(ctx context.Context, issueID string) ([]models.IssueActivity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, type, description, actor_id, actor_name, actor_role, previous_value, new_value, created_at
		FROM issue_activities WHERE issue_id = ? ORDER BY created_at, id`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list issue activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []models.IssueActivity
	for rows.Next() {
		var a models.IssueActivity
		var typ, role string
		if err := rows.Scan(&a.ID, &a.IssueID, &typ, &a.Description, &a.ActorID, &a.ActorName, &role, &a.PreviousValue, &a.NewValue, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan issue activity: %w", err)
		}
		a.Type = models.ActivityType(typ)
		a.ActorRole = models.Role(role)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// insertActivity appends an audit-trail entry inside the caller's transaction.
func insertActivity(ctx context.Context, tx *sql.Tx, act *models.IssueActivity) error {
	if act.ID == "" {
		act.ID = newULID()
	}
	if act.CreatedAt.IsZero() {
		act.CreatedAt = time.Now().UTC()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO issue_activities (id, issue_id, type, description, actor_id, actor_name, actor_role, previous_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		act.ID, act.IssueID, string(act.Type), act.Description,
		act.ActorID, act.ActorName, string(act.ActorRole),
		act.PreviousValue, act.NewValue, act.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append issue activity: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(row scanner) (*models.Issue, error) {
	issue := &models.Issue{}
	var category, priority, status, reporterRole, assigneeType, payer string
	var scheduledDate, escalatedAt, assignedAt, resolvedAt sql.NullTime
	var estimatedCost, actualCost sql.NullFloat64

	err := row.Scan(
		&issue.ID, &issue.PropertyID, &issue.Unit, &issue.Title, &issue.Description, &issue.Location,
		&category, &priority, &status,
		&issue.ReporterID, &issue.ReporterName, &reporterRole,
		&issue.AssigneeID, &issue.AssigneeName, &assigneeType, &scheduledDate, &issue.TimeSlot,
		&estimatedCost, &actualCost, &payer, &issue.CostNotes,
		&issue.ResolutionNotes, &issue.ResolvedByID, &issue.ResolvedByName,
		&issue.EscalationReason, &issue.EscalatedByID, &issue.EscalatedByName, &escalatedAt,
		&issue.ReportedAt, &assignedAt, &resolvedAt, &issue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	issue.Category = models.IssueCategory(category)
	issue.Priority = models.IssuePriority(priority)
	issue.Status = models.IssueStatus(status)
	issue.ReporterRole = models.Role(reporterRole)
	issue.AssigneeType = models.AssigneeType(assigneeType)
	issue.Payer = models.CostPayer(payer)
	if scheduledDate.Valid {
		issue.ScheduledDate = &scheduledDate.Time
	}
	if escalatedAt.Valid {
		issue.EscalatedAt = &escalatedAt.Time
	}
	if assignedAt.Valid {
		issue.AssignedAt = &assignedAt.Time
	}
	if resolvedAt.Valid {
		issue.ResolvedAt = &resolvedAt.Time
	}
	return issue, nil
}
