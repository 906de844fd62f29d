package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/propdesk/propdesk/internal/health"
	"github.com/propdesk/propdesk/internal/lifecycle"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/store"
)

// Server wraps the propdesk data layer and exposes it as MCP tools.
// Mutations run as the configured actor, so role gating applies to MCP
// calls the same way it does everywhere else.
type Server struct {
	store   store.Store
	manager *lifecycle.Manager
	scorer  *health.Scorer
	actor   models.Actor
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store, m *lifecycle.Manager, actor models.Actor) *Server {
	return &Server{
		store:   s,
		manager: m,
		scorer:  health.NewScorer(m.SLA()),
		actor:   actor,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("propdesk", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listPropertiesTool())
	srv.AddTool(s.propertyStatusTool())
	srv.AddTool(s.listIssuesTool())
	srv.AddTool(s.reportIssueTool())
	srv.AddTool(s.transitionIssueTool())
	srv.AddTool(s.assignIssueTool())
	srv.AddTool(s.escalateIssueTool())
	srv.AddTool(s.attentionTool())
	srv.AddTool(s.listVendorsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// propdesk_list_properties
func (s *Server) listPropertiesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_list_properties",
		mcp.WithDescription("List all managed properties. Returns a JSON array with id, name, address, units, manager, and owner."),
	)
	return tool, s.handleListProperties
}

func (s *Server) handleListProperties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	properties, err := s.store.ListProperties(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list properties: %v", err)), nil
	}

	type propertyOut struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Address string `json:"address"`
		Units   int    `json:"units"`
		Manager string `json:"manager"`
		Owner   string `json:"owner"`
	}

	out := make([]propertyOut, len(properties))
	for i, p := range properties {
		out[i] = propertyOut{
			ID:      p.ID,
			Name:    p.Name,
			Address: p.Address,
			Units:   p.Units,
			Manager: p.ManagerName,
			Owner:   p.OwnerName,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal properties: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// propdesk_property_status
func (s *Server) propertyStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_property_status",
		mcp.WithDescription("Get a property's issue metrics (counts by status and priority, SLA breaches, average resolution time) and its maintenance health score breakdown. Resolves the property by name."),
		mcp.WithString("property", mcp.Required(), mcp.Description("Property name")),
	)
	return tool, s.handlePropertyStatus
}

func (s *Server) handlePropertyStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	propertyName, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: property"), nil
	}

	p, err := s.resolveProperty(ctx, propertyName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("property not found: %s", propertyName)), nil
	}

	metrics, err := s.manager.ComputeMetrics(ctx, p.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute metrics: %v", err)), nil
	}

	allIssues, _ := s.store.ListIssues(ctx, store.IssueListFilter{PropertyID: p.ID, ShowClosed: true})
	hscore := s.scorer.Compute(allIssues, time.Now().UTC())

	result := map[string]any{
		"property": map[string]any{
			"id":      p.ID,
			"name":    p.Name,
			"address": p.Address,
			"units":   p.Units,
			"manager": p.ManagerName,
			"owner":   p.OwnerName,
		},
		"metrics": metrics,
		"health": map[string]any{
			"total":               hscore.Total,
			"backlog_load":        hscore.BacklogLoad,
			"sla_compliance":      hscore.SLACompliance,
			"escalation_pressure": hscore.EscalationPressure,
			"urgent_load":         hscore.UrgentLoad,
			"resolution_recency":  hscore.ResolutionRecency,
		},
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// propdesk_list_issues
func (s *Server) listIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_list_issues",
		mcp.WithDescription("List maintenance issues, optionally filtered by property, status, priority, and/or category. Closed issues are excluded unless show_closed is true. Each issue has: title, description, location, status (open/triaged/assigned/in_progress/pending_approval/resolved/closed/escalated), priority (urgent/high/medium/low), category, reporter, and assignee."),
		mcp.WithString("property", mcp.Description("Property name to filter by")),
		mcp.WithString("status", mcp.Description("Status filter, comma-separated: open, triaged, assigned, in_progress, pending_approval, resolved, closed, escalated")),
		mcp.WithString("priority", mcp.Description("Priority filter, comma-separated: urgent, high, medium, low")),
		mcp.WithString("category", mcp.Description("Category filter, comma-separated: plumbing, electrical, hvac, appliance, structural, pest, safety, maintenance, other")),
		mcp.WithBoolean("show_closed", mcp.Description("Include closed issues (default false)")),
	)
	return tool, s.handleListIssues
}

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.IssueListFilter{
		ShowClosed: request.GetBool("show_closed", false),
	}

	propertyName := request.GetString("property", "")
	if propertyName != "" {
		p, err := s.resolveProperty(ctx, propertyName)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("property not found: %s", propertyName)), nil
		}
		filter.PropertyID = p.ID
	}

	for _, st := range splitCSV(request.GetString("status", "")) {
		filter.Statuses = append(filter.Statuses, models.IssueStatus(st))
	}
	for _, p := range splitCSV(request.GetString("priority", "")) {
		filter.Priorities = append(filter.Priorities, models.IssuePriority(p))
	}
	for _, c := range splitCSV(request.GetString("category", "")) {
		filter.Categories = append(filter.Categories, models.IssueCategory(c))
	}

	issues, err := s.manager.List(ctx, s.actor, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list issues: %v", err)), nil
	}

	out := make([]map[string]any, len(issues))
	for i, issue := range issues {
		out[i] = issueSummary(issue)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issues: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// propdesk_report_issue
func (s *Server) reportIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_report_issue",
		mcp.WithDescription("Report a new maintenance issue for a property. The issue starts open. Returns the created issue as JSON."),
		mcp.WithString("property", mcp.Required(), mcp.Description("Property name")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short summary of the problem")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What is wrong")),
		mcp.WithString("unit", mcp.Description("Unit or apartment number")),
		mcp.WithString("location", mcp.Description("Where in the unit or building (e.g. kitchen, roof)")),
		mcp.WithString("category", mcp.Description("Category: plumbing, electrical, hvac, appliance, structural, pest, safety, maintenance, other (default: other)")),
		mcp.WithString("priority", mcp.Description("Priority: urgent, high, medium, low (default: medium)")),
	)
	return tool, s.handleReportIssue
}

func (s *Server) handleReportIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	propertyName, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: property"), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}

	p, err := s.resolveProperty(ctx, propertyName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("property not found: %s", propertyName)), nil
	}

	issue, err := s.manager.Create(ctx, s.actor, lifecycle.CreateInput{
		PropertyID:  p.ID,
		Unit:        request.GetString("unit", ""),
		Title:       title,
		Description: description,
		Location:    request.GetString("location", ""),
		Category:    models.IssueCategory(request.GetString("category", "")),
		Priority:    models.IssuePriority(request.GetString("priority", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create issue: %v", err)), nil
	}

	data, err := json.Marshal(issueSummary(issue))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// propdesk_transition_issue
func (s *Server) transitionIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_transition_issue",
		mcp.WithDescription("Move an issue to a new lifecycle status. Only adjacent transitions are allowed (e.g. open->triaged, in_progress->resolved, resolved->closed, resolved->open to reopen). Notes are recorded as resolution notes when resolving."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Target status: open, triaged, assigned, in_progress, pending_approval, resolved, closed")),
		mcp.WithString("notes", mcp.Description("Notes for the audit trail (resolution notes when resolving)")),
	)
	return tool, s.handleTransitionIssue
}

func (s *Server) handleTransitionIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}
	status, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: status"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := s.manager.Transition(ctx, s.actor, issue.ID, models.IssueStatus(status), request.GetString("notes", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("transition failed: %v", err)), nil
	}

	data, err := json.Marshal(issueSummary(updated))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// propdesk_assign_issue
func (s *Server) assignIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_assign_issue",
		mcp.WithDescription("Assign an issue to staff or a vendor and move it to assigned. Optionally records a scheduled date (YYYY-MM-DD) and time slot."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
		mcp.WithString("assignee", mcp.Required(), mcp.Description("Name of the staff member or vendor")),
		mcp.WithString("assignee_type", mcp.Description("Assignee type: staff or vendor (default: staff)")),
		mcp.WithString("scheduled_date", mcp.Description("Scheduled visit date, YYYY-MM-DD")),
		mcp.WithString("time_slot", mcp.Description("Time slot, e.g. morning, 2pm-4pm")),
	)
	return tool, s.handleAssignIssue
}

func (s *Server) handleAssignIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}
	assignee, err := request.RequireString("assignee")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: assignee"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := lifecycle.AssignInput{
		AssigneeName: assignee,
		AssigneeType: models.AssigneeType(request.GetString("assignee_type", "")),
		TimeSlot:     request.GetString("time_slot", ""),
	}
	if dateStr := request.GetString("scheduled_date", ""); dateStr != "" {
		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid scheduled_date %q: use YYYY-MM-DD", dateStr)), nil
		}
		in.ScheduledDate = &d
	}

	updated, err := s.manager.Assign(ctx, s.actor, issue.ID, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assign failed: %v", err)), nil
	}

	data, err := json.Marshal(issueSummary(updated))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// propdesk_escalate_issue
func (s *Server) escalateIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_escalate_issue",
		mcp.WithDescription("Escalate an issue for an owner decision. A reason is required. Only the owner (or an admin) can move the issue out of escalated."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why the issue needs an owner decision")),
	)
	return tool, s.handleEscalateIssue
}

func (s *Server) handleEscalateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}
	reason, err := request.RequireString("reason")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reason"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := s.manager.Escalate(ctx, s.actor, issue.ID, reason)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("escalate failed: %v", err)), nil
	}

	data, err := json.Marshal(issueSummary(updated))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// propdesk_attention
func (s *Server) attentionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_attention",
		mcp.WithDescription("List issues needing attention: everything escalated (waiting on an owner decision) plus active issues past their SLA target."),
	)
	return tool, s.handleAttention
}

func (s *Server) handleAttention(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	escalated, err := s.manager.Attention(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list escalations: %v", err)), nil
	}

	active, err := s.store.ListIssues(ctx, store.IssueListFilter{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list issues: %v", err)), nil
	}

	seen := make(map[string]bool)
	var out []map[string]any
	for _, issue := range escalated {
		entry := issueSummary(issue)
		entry["attention_reason"] = "escalated"
		out = append(out, entry)
		seen[issue.ID] = true
	}
	for _, issue := range active {
		if seen[issue.ID] || !s.manager.Breached(issue) {
			continue
		}
		entry := issueSummary(issue)
		entry["attention_reason"] = "sla_breach"
		out = append(out, entry)
	}
	if out == nil {
		out = []map[string]any{}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issues: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// propdesk_list_vendors
func (s *Server) listVendorsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("propdesk_list_vendors",
		mcp.WithDescription("List service vendors, optionally filtered by trade (e.g. plumbing, electrical)."),
		mcp.WithString("trade", mcp.Description("Trade to filter by")),
	)
	return tool, s.handleListVendors
}

func (s *Server) handleListVendors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendors, err := s.store.ListVendors(ctx, request.GetString("trade", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list vendors: %v", err)), nil
	}

	type vendorOut struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Trade      string   `json:"trade"`
		Phone      string   `json:"phone"`
		Email      string   `json:"email"`
		HourlyRate *float64 `json:"hourly_rate,omitempty"`
	}

	out := make([]vendorOut, len(vendors))
	for i, v := range vendors {
		out[i] = vendorOut{
			ID:         v.ID,
			Name:       v.Name,
			Trade:      v.Trade,
			Phone:      v.Phone,
			Email:      v.Email,
			HourlyRate: v.HourlyRate,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal vendors: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// issueSummary flattens an issue to the fields MCP clients care about.
func issueSummary(issue *models.Issue) map[string]any {
	out := map[string]any{
		"id":          issue.ID,
		"property_id": issue.PropertyID,
		"unit":        issue.Unit,
		"title":       issue.Title,
		"description": issue.Description,
		"location":    issue.Location,
		"category":    string(issue.Category),
		"priority":    string(issue.Priority),
		"status":      string(issue.Status),
		"reporter":    issue.ReporterName,
		"reported_at": issue.ReportedAt.Format(time.RFC3339),
	}
	if issue.AssigneeName != "" {
		out["assignee"] = issue.AssigneeName
		out["assignee_type"] = string(issue.AssigneeType)
	}
	if issue.Status == models.IssueStatusEscalated {
		out["escalation_reason"] = issue.EscalationReason
	}
	if issue.ResolvedAt != nil {
		out["resolved_at"] = issue.ResolvedAt.Format(time.RFC3339)
		out["resolution_notes"] = issue.ResolutionNotes
	}
	return out
}

// resolveProperty tries to find a property by name first, then by ID.
func (s *Server) resolveProperty(ctx context.Context, name string) (*models.Property, error) {
	if p, err := s.store.GetPropertyByName(ctx, name); err == nil {
		return p, nil
	}
	if p, err := s.store.GetProperty(ctx, name); err == nil {
		return p, nil
	}
	return nil, fmt.Errorf("property not found: %s", name)
}

// findIssue finds an issue by full ID or unique prefix.
func (s *Server) findIssue(ctx context.Context, id string) (*models.Issue, error) {
	// Try exact match first
	if issue, err := s.store.GetIssue(ctx, id); err == nil {
		return issue, nil
	}

	// Try prefix match - list all and filter
	upper := strings.ToUpper(id)
	issues, err := s.store.ListIssues(ctx, store.IssueListFilter{ShowClosed: true})
	if err != nil {
		return nil, err
	}

	var matches []*models.Issue
	for _, issue := range issues {
		if strings.HasPrefix(issue.ID, upper) {
			matches = append(matches, issue)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("issue not found: %s", id)
	case 1:
		// Re-fetch to get images and activities loaded
		return s.store.GetIssue(ctx, matches[0].ID)
	default:
		return nil, fmt.Errorf("ambiguous issue ID %s: matches %d issues", id, len(matches))
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
