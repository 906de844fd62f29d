package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/propdesk/propdesk/internal/health"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/output"
	"github.com/propdesk/propdesk/internal/store"
)

var (
	propertyAddress string
	propertyUnits   int
	propertyManager string
	propertyOwner   string
	propertyNotes   string
)

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Manage properties",
	Long:  "Add, remove, list, and show managed properties.",
}

var propertyAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return propertyAddRun(args[0])
	},
}

var propertyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		return propertyListRun()
	},
}

var propertyShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show property detail with issue metrics and health",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return propertyShowRun(args[0])
	},
}

var propertyUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update property fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return propertyUpdateRun(args[0])
	},
}

var propertyRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a property",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return propertyRemoveRun(args[0])
	},
}

func init() {
	propertyAddCmd.Flags().StringVar(&propertyAddress, "address", "", "Street address")
	propertyAddCmd.Flags().IntVar(&propertyUnits, "units", 1, "Number of units")
	propertyAddCmd.Flags().StringVar(&propertyManager, "manager", "", "Property manager name")
	propertyAddCmd.Flags().StringVar(&propertyOwner, "owner", "", "Owner name")
	propertyAddCmd.Flags().StringVar(&propertyNotes, "notes", "", "Free-form notes")

	propertyUpdateCmd.Flags().StringVar(&propertyAddress, "address", "", "New street address")
	propertyUpdateCmd.Flags().IntVar(&propertyUnits, "units", 0, "New unit count")
	propertyUpdateCmd.Flags().StringVar(&propertyManager, "manager", "", "New property manager name")
	propertyUpdateCmd.Flags().StringVar(&propertyOwner, "owner", "", "New owner name")
	propertyUpdateCmd.Flags().StringVar(&propertyNotes, "notes", "", "New notes")

	propertyCmd.AddCommand(propertyAddCmd)
	propertyCmd.AddCommand(propertyListCmd)
	propertyCmd.AddCommand(propertyShowCmd)
	propertyCmd.AddCommand(propertyUpdateCmd)
	propertyCmd.AddCommand(propertyRemoveCmd)
	rootCmd.AddCommand(propertyCmd)
}

func propertyAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p := &models.Property{
		Name:        name,
		Address:     propertyAddress,
		Units:       propertyUnits,
		ManagerName: propertyManager,
		OwnerName:   propertyOwner,
		Notes:       propertyNotes,
	}

	if dryRun {
		ui.DryRunMsg("Would add property: %s (%s)", name, propertyAddress)
		return nil
	}

	if err := s.CreateProperty(context.Background(), p); err != nil {
		return fmt.Errorf("add property: %w", err)
	}

	ui.Success("Added property %s: %s", output.Cyan(shortID(p.ID)), name)
	return nil
}

func propertyListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	properties, err := s.ListProperties(ctx)
	if err != nil {
		return err
	}

	if len(properties) == 0 {
		ui.Info("No properties. Use 'propdesk property add <name>' to get started.")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Address", "Units", "Open Issues"})
	for _, p := range properties {
		issues, _ := s.ListIssues(ctx, store.IssueListFilter{PropertyID: p.ID})

		_ = table.Append([]string{
			shortID(p.ID),
			output.Cyan(p.Name),
			p.Address,
			fmt.Sprintf("%d", p.Units),
			fmt.Sprintf("%d", len(issues)),
		})
	}
	_ = table.Render()
	return nil
}

func propertyShowRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolvePropertyRef(ctx, s, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(p.Name))
	if p.Address != "" {
		fmt.Fprintf(ui.Out, "  Address:    %s\n", p.Address)
	}
	fmt.Fprintf(ui.Out, "  Units:      %d\n", p.Units)
	if p.ManagerName != "" {
		fmt.Fprintf(ui.Out, "  Manager:    %s\n", p.ManagerName)
	}
	if p.OwnerName != "" {
		fmt.Fprintf(ui.Out, "  Owner:      %s\n", p.OwnerName)
	}
	if p.Notes != "" {
		fmt.Fprintf(ui.Out, "  Notes:      %s\n", p.Notes)
	}
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", p.ID)
	fmt.Fprintln(ui.Out)

	// Metrics
	metrics, err := m.ComputeMetrics(ctx, p.ID)
	if err != nil {
		return err
	}

	active := 0
	for status, n := range metrics.ByStatus {
		if status.Active() {
			active += n
		}
	}

	fmt.Fprintf(ui.Out, "  Issues:     %d total, %d active\n", metrics.Total, active)
	if metrics.Breaching > 0 {
		fmt.Fprintf(ui.Out, "  SLA:        %s\n", output.Red(fmt.Sprintf("%d breaching", metrics.Breaching)))
	}
	if metrics.OpenEscalations > 0 {
		fmt.Fprintf(ui.Out, "  Escalated:  %s\n", output.Red(fmt.Sprintf("%d", metrics.OpenEscalations)))
	}
	if metrics.AvgResolutionHours > 0 {
		fmt.Fprintf(ui.Out, "  Avg fix:    %.1fh\n", metrics.AvgResolutionHours)
	}

	// Health
	issues, err := s.ListIssues(ctx, store.IssueListFilter{PropertyID: p.ID, ShowClosed: true})
	if err != nil {
		return err
	}
	score := health.NewScorer(m.SLA()).Compute(issues, time.Now().UTC())
	fmt.Fprintf(ui.Out, "  Health:     %s\n", output.HealthColor(score.Total))

	// Recent active issues
	activeIssues, _ := s.ListIssues(ctx, store.IssueListFilter{PropertyID: p.ID})
	if len(activeIssues) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"ID", "Title", "Status", "Priority", "Age"})
		for _, issue := range activeIssues {
			_ = table.Append([]string{
				shortID(issue.ID),
				issue.Title,
				output.StatusColor(string(issue.Status)),
				output.PriorityColor(string(issue.Priority)),
				timeAgo(issue.ReportedAt),
			})
		}
		_ = table.Render()
	}

	return nil
}

func propertyUpdateRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolvePropertyRef(ctx, s, name)
	if err != nil {
		return err
	}

	changed := false
	if propertyAddress != "" {
		p.Address = propertyAddress
		changed = true
	}
	if propertyUnits > 0 {
		p.Units = propertyUnits
		changed = true
	}
	if propertyManager != "" {
		p.ManagerName = propertyManager
		changed = true
	}
	if propertyOwner != "" {
		p.OwnerName = propertyOwner
		changed = true
	}
	if propertyNotes != "" {
		p.Notes = propertyNotes
		changed = true
	}

	if !changed {
		return fmt.Errorf("no updates specified (use --address, --units, --manager, --owner, or --notes)")
	}

	if dryRun {
		ui.DryRunMsg("Would update property: %s", p.Name)
		return nil
	}

	if err := s.UpdateProperty(ctx, p); err != nil {
		return fmt.Errorf("update property: %w", err)
	}

	ui.Success("Updated property: %s", output.Cyan(p.Name))
	return nil
}

func propertyRemoveRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolvePropertyRef(ctx, s, name)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove property: %s", p.Name)
		return nil
	}

	if err := s.DeleteProperty(ctx, p.ID); err != nil {
		return fmt.Errorf("remove property: %w", err)
	}

	ui.Success("Removed property: %s", output.Cyan(p.Name))
	return nil
}

// resolvePropertyRef finds a property by exact name, full ID, or ID prefix.
func resolvePropertyRef(ctx context.Context, s store.Store, ref string) (*models.Property, error) {
	if p, err := s.GetPropertyByName(ctx, ref); err == nil {
		return p, nil
	}
	if p, err := s.GetProperty(ctx, ref); err == nil {
		return p, nil
	}

	upper := strings.ToUpper(ref)
	properties, err := s.ListProperties(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*models.Property
	for _, p := range properties {
		if strings.HasPrefix(p.ID, upper) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("property not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous property %s: matches %d properties", ref, len(matches))
	}
}

// timeAgo returns a human-readable duration from a time.
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	}
}
