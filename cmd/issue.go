package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/propdesk/propdesk/internal/lifecycle"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/output"
	"github.com/propdesk/propdesk/internal/store"
)

var (
	issueTitle    string
	issueDesc     string
	issueLocation string
	issueUnit     string
	issuePriority string
	issueCategory string
	issueStatus   string
	issueNotes    string
	issueReason   string
	issueClosed   bool

	issueAssignee     string
	issueAssigneeID   string
	issueAssignVendor bool
	issueSchedule     string
	issueTimeSlot     string

	issueEstCost  float64
	issueActCost  float64
	issuePayer    string
	issueCostNote string

	issueImageURL     string
	issueImageTag     string
	issueImageCaption string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage maintenance issues",
	Long:  "Report, track, and work maintenance issues through their lifecycle.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun("")
	},
}

var issueReportCmd = &cobra.Command{
	Use:   "report <property>",
	Short: "Report a new issue",
	Long:  "Report a new maintenance issue against a property. The issue starts open.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueReportRun(args[0])
	},
}

var issueListCmd = &cobra.Command{
	Use:     "list [property]",
	Aliases: []string{"ls"},
	Short:   "List issues",
	Long:    "List issues. Closed issues are hidden unless --closed is given.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var propertyRef string
		if len(args) > 0 {
			propertyRef = args[0]
		}
		return issueListRun(propertyRef)
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Show issue details with full history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueShowRun(args[0])
	},
}

var issueUpdateCmd = &cobra.Command{
	Use:   "update <issue-id>",
	Short: "Edit issue fields (managers and admins)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueUpdateRun(args[0])
	},
}

var issueTriageCmd = &cobra.Command{
	Use:   "triage <issue-id>",
	Short: "Mark an issue as triaged",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueTransitionRun(args[0], models.IssueStatusTriaged)
	},
}

var issueStartCmd = &cobra.Command{
	Use:   "start <issue-id>",
	Short: "Mark work as started",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueTransitionRun(args[0], models.IssueStatusInProgress)
	},
}

var issueCompleteCmd = &cobra.Command{
	Use:   "complete <issue-id>",
	Short: "Mark work as done, pending approval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueTransitionRun(args[0], models.IssueStatusPendingApproval)
	},
}

var issueResolveCmd = &cobra.Command{
	Use:   "resolve <issue-id>",
	Short: "Mark an issue as resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueTransitionRun(args[0], models.IssueStatusResolved)
	},
}

var issueCloseCmd = &cobra.Command{
	Use:   "close <issue-id>",
	Short: "Close an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueTransitionRun(args[0], models.IssueStatusClosed)
	},
}

var issueReopenCmd = &cobra.Command{
	Use:   "reopen <issue-id>",
	Short: "Reopen a resolved or closed issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueTransitionRun(args[0], models.IssueStatusOpen)
	},
}

var issueEscalateCmd = &cobra.Command{
	Use:   "escalate <issue-id>",
	Short: "Escalate an issue to the owner",
	Long:  "Escalate an active issue. Only an owner or admin can move it out of escalated.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueEscalateRun(args[0])
	},
}

var issueAssignCmd = &cobra.Command{
	Use:   "assign <issue-id>",
	Short: "Assign an issue to staff or a vendor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueAssignRun(args[0])
	},
}

var issuePriorityCmd = &cobra.Command{
	Use:   "priority <issue-id> <priority>",
	Short: "Change issue priority (urgent, high, medium, low)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issuePriorityRun(args[0], args[1])
	},
}

var issueImageCmd = &cobra.Command{
	Use:   "image <issue-id>",
	Short: "Attach a photo to an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueImageRun(args[0])
	},
}

var issueActivityCmd = &cobra.Command{
	Use:   "activity <issue-id>",
	Short: "Show the audit trail for an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueActivityRun(args[0])
	},
}

func init() {
	issueReportCmd.Flags().StringVar(&issueTitle, "title", "", "Issue title (required)")
	issueReportCmd.Flags().StringVar(&issueDesc, "desc", "", "Issue description (required)")
	issueReportCmd.Flags().StringVar(&issueLocation, "location", "", "Where in the unit (e.g. kitchen)")
	issueReportCmd.Flags().StringVar(&issueUnit, "unit", "", "Unit number")
	issueReportCmd.Flags().StringVar(&issueCategory, "category", "", "Category (plumbing, electrical, hvac, ...) - inferred if omitted")
	issueReportCmd.Flags().StringVar(&issuePriority, "priority", "", "Priority: urgent, high, medium, low - inferred if omitted")
	_ = issueReportCmd.MarkFlagRequired("title")
	_ = issueReportCmd.MarkFlagRequired("desc")

	issueListCmd.Flags().StringVar(&issueStatus, "status", "", "Filter by status")
	issueListCmd.Flags().StringVar(&issuePriority, "priority", "", "Filter by priority")
	issueListCmd.Flags().StringVar(&issueCategory, "category", "", "Filter by category")
	issueListCmd.Flags().BoolVar(&issueClosed, "closed", false, "Include closed issues")

	issueUpdateCmd.Flags().StringVar(&issueTitle, "title", "", "New title")
	issueUpdateCmd.Flags().StringVar(&issueDesc, "desc", "", "New description")
	issueUpdateCmd.Flags().StringVar(&issueLocation, "location", "", "New location")
	issueUpdateCmd.Flags().StringVar(&issueUnit, "unit", "", "New unit")
	issueUpdateCmd.Flags().Float64Var(&issueEstCost, "est-cost", 0, "Estimated cost")
	issueUpdateCmd.Flags().Float64Var(&issueActCost, "cost", 0, "Actual cost")
	issueUpdateCmd.Flags().StringVar(&issuePayer, "payer", "", "Who pays: owner, tenant, insurance, warranty")
	issueUpdateCmd.Flags().StringVar(&issueCostNote, "cost-notes", "", "Cost notes")

	for _, c := range []*cobra.Command{issueTriageCmd, issueStartCmd, issueCompleteCmd, issueResolveCmd, issueCloseCmd, issueReopenCmd} {
		c.Flags().StringVar(&issueNotes, "notes", "", "Notes for the audit trail")
	}

	issueEscalateCmd.Flags().StringVar(&issueReason, "reason", "", "Why this is being escalated (required)")
	_ = issueEscalateCmd.MarkFlagRequired("reason")

	issueAssignCmd.Flags().StringVar(&issueAssignee, "to", "", "Assignee name (required)")
	issueAssignCmd.Flags().StringVar(&issueAssigneeID, "id", "", "Assignee ID (e.g. a vendor ID)")
	issueAssignCmd.Flags().BoolVar(&issueAssignVendor, "vendor", false, "Assignee is an external vendor")
	issueAssignCmd.Flags().StringVar(&issueSchedule, "date", "", "Scheduled date (YYYY-MM-DD)")
	issueAssignCmd.Flags().StringVar(&issueTimeSlot, "slot", "", "Time slot (e.g. 9am-12pm)")
	_ = issueAssignCmd.MarkFlagRequired("to")

	issueImageCmd.Flags().StringVar(&issueImageURL, "url", "", "Image URL (required)")
	issueImageCmd.Flags().StringVar(&issueImageTag, "tag", "", "Image tag: before, after, other")
	issueImageCmd.Flags().StringVar(&issueImageCaption, "caption", "", "Caption")
	_ = issueImageCmd.MarkFlagRequired("url")

	issueCmd.AddCommand(issueReportCmd)
	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueUpdateCmd)
	issueCmd.AddCommand(issueTriageCmd)
	issueCmd.AddCommand(issueStartCmd)
	issueCmd.AddCommand(issueCompleteCmd)
	issueCmd.AddCommand(issueResolveCmd)
	issueCmd.AddCommand(issueCloseCmd)
	issueCmd.AddCommand(issueReopenCmd)
	issueCmd.AddCommand(issueEscalateCmd)
	issueCmd.AddCommand(issueAssignCmd)
	issueCmd.AddCommand(issuePriorityCmd)
	issueCmd.AddCommand(issueImageCmd)
	issueCmd.AddCommand(issueActivityCmd)
	rootCmd.AddCommand(issueCmd)
}

func issueReportRun(propertyRef string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolvePropertyRef(ctx, s, propertyRef)
	if err != nil {
		return err
	}

	category := issueCategory
	if category == "" {
		category = classifyCategory(issueTitle + " " + issueDesc)
	}
	priority := issuePriority
	if priority == "" {
		priority = classifyPriority(issueTitle + " " + issueDesc)
	}

	if dryRun {
		ui.DryRunMsg("Would report issue: %s [%s/%s] at %s", issueTitle, priority, category, p.Name)
		return nil
	}

	issue, err := m.Create(ctx, currentActor(), lifecycle.CreateInput{
		PropertyID:  p.ID,
		Unit:        issueUnit,
		Title:       issueTitle,
		Description: issueDesc,
		Location:    issueLocation,
		Category:    models.IssueCategory(category),
		Priority:    models.IssuePriority(priority),
	})
	if err != nil {
		return fmt.Errorf("report issue: %w", err)
	}

	ui.Success("Reported issue %s: %s [%s/%s]", output.Cyan(shortID(issue.ID)), issue.Title, issue.Priority, issue.Category)
	return nil
}

func issueListRun(propertyRef string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	filter := store.IssueListFilter{ShowClosed: issueClosed}
	if issueStatus != "" {
		filter.Statuses = []models.IssueStatus{models.IssueStatus(issueStatus)}
	}
	if issuePriority != "" {
		filter.Priorities = []models.IssuePriority{models.IssuePriority(issuePriority)}
	}
	if issueCategory != "" {
		filter.Categories = []models.IssueCategory{models.IssueCategory(issueCategory)}
	}

	if propertyRef != "" {
		p, err := resolvePropertyRef(ctx, s, propertyRef)
		if err != nil {
			return err
		}
		filter.PropertyID = p.ID
	}

	issues, err := m.List(ctx, currentActor(), filter)
	if err != nil {
		return err
	}

	if len(issues) == 0 {
		ui.Info("No issues found.")
		return nil
	}

	// Property name cache for display
	propertyNames := make(map[string]string)

	now := time.Now().UTC()
	table := ui.Table([]string{"ID", "Property", "Title", "Status", "Priority", "SLA", "Age"})
	for _, issue := range issues {
		propName := propertyNames[issue.PropertyID]
		if propName == "" {
			if p, err := s.GetProperty(ctx, issue.PropertyID); err == nil {
				propName = p.Name
				propertyNames[issue.PropertyID] = propName
			}
		}

		_ = table.Append([]string{
			shortID(issue.ID),
			propName,
			issue.Title,
			output.StatusColor(string(issue.Status)),
			output.PriorityColor(string(issue.Priority)),
			slaCell(m.SLA(), issue, now),
			timeAgo(issue.ReportedAt),
		})
	}
	_ = table.Render()
	return nil
}

// slaCell renders the SLA column: time remaining, BREACH, or "-" for
// issues already out of the working flow.
func slaCell(sla lifecycle.SLAPolicy, issue *models.Issue, now time.Time) string {
	if !issue.Status.Active() {
		return "-"
	}
	if sla.Breached(issue, now) {
		return output.Red("BREACH")
	}
	remaining := sla.Remaining(issue, now)
	if remaining >= 24*time.Hour {
		return fmt.Sprintf("%dd left", int(remaining.Hours()/24))
	}
	return fmt.Sprintf("%dh left", int(remaining.Hours()))
}

func issueShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	propName := ""
	if p, err := s.GetProperty(ctx, issue.PropertyID); err == nil {
		propName = p.Name
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(issue.ID)), issue.Title)
	fmt.Fprintf(ui.Out, "  Property:   %s\n", propName)
	if issue.Unit != "" {
		fmt.Fprintf(ui.Out, "  Unit:       %s\n", issue.Unit)
	}
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(string(issue.Status)))
	fmt.Fprintf(ui.Out, "  Priority:   %s\n", output.PriorityColor(string(issue.Priority)))
	fmt.Fprintf(ui.Out, "  Category:   %s\n", issue.Category)
	if issue.Location != "" {
		fmt.Fprintf(ui.Out, "  Location:   %s\n", issue.Location)
	}
	fmt.Fprintf(ui.Out, "  Desc:       %s\n", issue.Description)
	fmt.Fprintf(ui.Out, "  Reporter:   %s (%s)\n", issue.ReporterName, issue.ReporterRole)

	if issue.AssigneeName != "" {
		fmt.Fprintf(ui.Out, "  Assignee:   %s (%s)\n", issue.AssigneeName, issue.AssigneeType)
		if issue.ScheduledDate != nil {
			slot := issue.TimeSlot
			if slot == "" {
				slot = "any time"
			}
			fmt.Fprintf(ui.Out, "  Scheduled:  %s, %s\n", issue.ScheduledDate.Format("2006-01-02"), slot)
		}
	}

	if issue.Status.Active() {
		now := time.Now().UTC()
		fmt.Fprintf(ui.Out, "  SLA:        %s\n", slaCell(m.SLA(), issue, now))
	}

	if issue.EstimatedCost != nil {
		fmt.Fprintf(ui.Out, "  Est. cost:  $%.2f\n", *issue.EstimatedCost)
	}
	if issue.ActualCost != nil {
		payer := string(issue.Payer)
		if payer == "" {
			payer = "unassigned"
		}
		fmt.Fprintf(ui.Out, "  Cost:       $%.2f (payer: %s)\n", *issue.ActualCost, payer)
	}

	if issue.EscalationReason != "" {
		fmt.Fprintf(ui.Out, "  Escalated:  %s by %s\n", issue.EscalationReason, issue.EscalatedByName)
	}
	if issue.ResolutionNotes != "" {
		fmt.Fprintf(ui.Out, "  Resolution: %s (by %s)\n", issue.ResolutionNotes, issue.ResolvedByName)
	}

	fmt.Fprintf(ui.Out, "  Reported:   %s\n", issue.ReportedAt.Format(time.RFC3339))
	if issue.ResolvedAt != nil {
		fmt.Fprintf(ui.Out, "  Resolved:   %s\n", issue.ResolvedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", issue.ID)

	if len(issue.Images) > 0 {
		fmt.Fprintln(ui.Out)
		fmt.Fprintf(ui.Out, "  Images:\n")
		for _, img := range issue.Images {
			caption := img.Caption
			if caption != "" {
				caption = " - " + caption
			}
			fmt.Fprintf(ui.Out, "    [%s] %s%s\n", img.Tag, img.URL, caption)
		}
	}

	if len(issue.Activities) > 0 {
		fmt.Fprintln(ui.Out)
		fmt.Fprintf(ui.Out, "  History:\n")
		for _, act := range issue.Activities {
			printActivity(act)
		}
	}

	return nil
}

func printActivity(act models.IssueActivity) {
	line := fmt.Sprintf("    %s  %-18s %s", act.CreatedAt.Format("2006-01-02 15:04"), act.Type, act.ActorName)
	if act.PreviousValue != "" || act.NewValue != "" {
		line += fmt.Sprintf("  %s -> %s", act.PreviousValue, act.NewValue)
	}
	fmt.Fprintln(ui.Out, line)
	if act.Description != "" {
		fmt.Fprintf(ui.Out, "      %s\n", act.Description)
	}
}

func issueUpdateRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	in := lifecycle.UpdateInput{}
	if issueTitle != "" {
		in.Title = &issueTitle
	}
	if issueDesc != "" {
		in.Description = &issueDesc
	}
	if issueLocation != "" {
		in.Location = &issueLocation
	}
	if issueUnit != "" {
		in.Unit = &issueUnit
	}
	if issueEstCost > 0 {
		in.EstimatedCost = &issueEstCost
	}
	if issueActCost > 0 {
		in.ActualCost = &issueActCost
	}
	if issuePayer != "" {
		payer := models.CostPayer(issuePayer)
		in.Payer = &payer
	}
	if issueCostNote != "" {
		in.CostNotes = &issueCostNote
	}

	if dryRun {
		ui.DryRunMsg("Would update issue %s", shortID(issue.ID))
		return nil
	}

	updated, err := m.Update(ctx, currentActor(), issue.ID, in)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}

	ui.Success("Updated issue %s", output.Cyan(shortID(updated.ID)))
	return nil
}

func issueTransitionRun(id string, to models.IssueStatus) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would move issue %s: %s -> %s", shortID(issue.ID), issue.Status, to)
		return nil
	}

	updated, err := m.Transition(ctx, currentActor(), issue.ID, to, issueNotes)
	if err != nil {
		return err
	}

	ui.Success("Issue %s is now %s", output.Cyan(shortID(updated.ID)), output.StatusColor(string(updated.Status)))
	return nil
}

func issueEscalateRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would escalate issue %s: %s", shortID(issue.ID), issueReason)
		return nil
	}

	updated, err := m.Escalate(ctx, currentActor(), issue.ID, issueReason)
	if err != nil {
		return err
	}

	ui.Warning("Escalated issue %s: %s", output.Cyan(shortID(updated.ID)), issueReason)
	return nil
}

func issueAssignRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	in := lifecycle.AssignInput{
		AssigneeID:   issueAssigneeID,
		AssigneeName: issueAssignee,
		TimeSlot:     issueTimeSlot,
	}
	if issueAssignVendor {
		in.AssigneeType = models.AssigneeTypeVendor
	}
	if issueSchedule != "" {
		date, err := time.Parse("2006-01-02", issueSchedule)
		if err != nil {
			return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", issueSchedule)
		}
		in.ScheduledDate = &date
	}

	if dryRun {
		ui.DryRunMsg("Would assign issue %s to %s", shortID(issue.ID), issueAssignee)
		return nil
	}

	updated, err := m.Assign(ctx, currentActor(), issue.ID, in)
	if err != nil {
		return err
	}

	ui.Success("Assigned issue %s to %s", output.Cyan(shortID(updated.ID)), updated.AssigneeName)
	return nil
}

func issuePriorityRun(id, priority string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would set issue %s priority: %s -> %s", shortID(issue.ID), issue.Priority, priority)
		return nil
	}

	updated, err := m.SetPriority(ctx, currentActor(), issue.ID, models.IssuePriority(priority))
	if err != nil {
		return err
	}

	ui.Success("Issue %s priority is now %s", output.Cyan(shortID(updated.ID)), output.PriorityColor(string(updated.Priority)))
	return nil
}

func issueImageRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would attach image to issue %s: %s", shortID(issue.ID), issueImageURL)
		return nil
	}

	updated, err := m.AddImage(ctx, currentActor(), issue.ID, lifecycle.ImageInput{
		URL:     issueImageURL,
		Tag:     models.ImageTag(issueImageTag),
		Caption: issueImageCaption,
	})
	if err != nil {
		return err
	}

	ui.Success("Attached image to issue %s (%d total)", output.Cyan(shortID(updated.ID)), len(updated.Images))
	return nil
}

func issueActivityRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	activities, err := s.ListActivities(ctx, issue.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(issue.ID)), issue.Title)
	for _, act := range activities {
		printActivity(act)
	}
	return nil
}

// findIssue finds an issue by full ID or prefix match. Closed issues
// remain addressable.
func findIssue(ctx context.Context, s store.Store, id string) (*models.Issue, error) {
	// Try exact match first
	if issue, err := s.GetIssue(ctx, id); err == nil {
		return issue, nil
	}

	// Try prefix match - list all and filter
	upper := strings.ToUpper(id)
	issues, err := s.ListIssues(ctx, store.IssueListFilter{ShowClosed: true})
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
		return s.GetIssue(ctx, matches[0].ID)
	default:
		return nil, fmt.Errorf("ambiguous issue ID %s: matches %d issues", id, len(matches))
	}
}

// shortID returns a truncated ULID for display (first 12 chars).
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
