package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/propdesk/propdesk/internal/store"
)

var (
	reportFormat string
	exportType   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data as JSON, CSV, or Markdown",
	Long:  "Export properties, issues, or vendors in various formats.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun()
	},
}

func init() {
	exportCmd.Flags().StringVar(&reportFormat, "format", "json", "Output format: json, csv, markdown")
	exportCmd.Flags().StringVar(&exportType, "type", "issues", "Data type: properties, issues, vendors")
	rootCmd.AddCommand(exportCmd)
}

func exportRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch exportType {
	case "properties":
		return exportProperties(ctx, s)
	case "issues":
		return exportIssues(ctx, s)
	case "vendors":
		return exportVendors(ctx, s)
	default:
		return fmt.Errorf("unknown export type: %s (use: properties, issues, vendors)", exportType)
	}
}

func exportProperties(ctx context.Context, s store.Store) error {
	properties, err := s.ListProperties(ctx)
	if err != nil {
		return err
	}

	switch reportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(properties)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"ID", "Name", "Address", "Units", "Manager", "Owner", "Created"})
		for _, p := range properties {
			w.Write([]string{p.ID, p.Name, p.Address, fmt.Sprintf("%d", p.Units), p.ManagerName, p.OwnerName, p.CreatedAt.Format("2006-01-02")})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintln(ui.Out, "# Properties")
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Name | Address | Units | Manager |")
		fmt.Fprintln(ui.Out, "|------|---------|-------|---------|")
		for _, p := range properties {
			fmt.Fprintf(ui.Out, "| %s | %s | %d | %s |\n", p.Name, p.Address, p.Units, p.ManagerName)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", reportFormat)
	}
}

func exportIssues(ctx context.Context, s store.Store) error {
	issues, err := s.ListIssues(ctx, store.IssueListFilter{ShowClosed: true})
	if err != nil {
		return err
	}

	switch reportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(issues)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"ID", "PropertyID", "Unit", "Title", "Status", "Priority", "Category", "Assignee", "Reported"})
		for _, i := range issues {
			w.Write([]string{i.ID, i.PropertyID, i.Unit, i.Title, string(i.Status), string(i.Priority), string(i.Category), i.AssigneeName, i.ReportedAt.Format("2006-01-02")})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintln(ui.Out, "# Issues")
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Title | Status | Priority | Category |")
		fmt.Fprintln(ui.Out, "|-------|--------|----------|----------|")
		for _, i := range issues {
			fmt.Fprintf(ui.Out, "| %s | %s | %s | %s |\n", i.Title, i.Status, i.Priority, i.Category)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", reportFormat)
	}
}

func exportVendors(ctx context.Context, s store.Store) error {
	vendors, err := s.ListVendors(ctx, "")
	if err != nil {
		return err
	}

	switch reportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(vendors)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"ID", "Name", "Trade", "Phone", "Email", "HourlyRate"})
		for _, v := range vendors {
			rate := ""
			if v.HourlyRate != nil {
				rate = fmt.Sprintf("%.2f", *v.HourlyRate)
			}
			w.Write([]string{v.ID, v.Name, v.Trade, v.Phone, v.Email, rate})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintln(ui.Out, "# Vendors")
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Name | Trade | Phone | Email |")
		fmt.Fprintln(ui.Out, "|------|-------|-------|-------|")
		for _, v := range vendors {
			fmt.Fprintf(ui.Out, "| %s | %s | %s | %s |\n", v.Name, v.Trade, v.Phone, v.Email)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", reportFormat)
	}
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports",
	Long:  "Generate summary reports of maintenance activity.",
}

var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Generate weekly maintenance summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportWeeklyRun()
	},
}

func init() {
	reportCmd.AddCommand(reportWeeklyCmd)
	rootCmd.AddCommand(reportCmd)
}

func reportWeeklyRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	properties, err := s.ListProperties(ctx)
	if err != nil {
		return err
	}

	weekAgo := time.Now().UTC().Add(-7 * 24 * time.Hour)

	fmt.Fprintln(ui.Out, "# Weekly Maintenance Report")
	fmt.Fprintln(ui.Out)

	for _, p := range properties {
		issues, _ := s.ListIssues(ctx, store.IssueListFilter{PropertyID: p.ID, ShowClosed: true})

		reported, resolved, active, escalated := 0, 0, 0, 0
		var spend float64
		for _, i := range issues {
			if i.ReportedAt.After(weekAgo) {
				reported++
			}
			if i.ResolvedAt != nil && i.ResolvedAt.After(weekAgo) {
				resolved++
				if i.ActualCost != nil {
					spend += *i.ActualCost
				}
			}
			if i.Status.Active() {
				active++
				if i.Status == "escalated" {
					escalated++
				}
			}
		}

		fmt.Fprintf(ui.Out, "## %s\n", p.Name)
		fmt.Fprintf(ui.Out, "- Reported this week: %d\n", reported)
		fmt.Fprintf(ui.Out, "- Resolved this week: %d\n", resolved)
		fmt.Fprintf(ui.Out, "- Still active: %d", active)
		if escalated > 0 {
			fmt.Fprintf(ui.Out, " (%d escalated)", escalated)
		}
		fmt.Fprintln(ui.Out)
		if spend > 0 {
			fmt.Fprintf(ui.Out, "- Repair spend: $%.2f\n", spend)
		}
		fmt.Fprintln(ui.Out)
	}

	return nil
}
