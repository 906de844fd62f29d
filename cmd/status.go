package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/propdesk/propdesk/internal/health"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/output"
	"github.com/propdesk/propdesk/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [property]",
	Short: "Show the portfolio dashboard",
	Long: `Show a cross-property status overview or detailed status for one property.

Without arguments, shows a summary table of all properties.
With a property name, shows detailed status for that property.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return propertyShowRun(args[0]) // reuse property show for detail
		}
		return statusOverviewRun()
	},
}

var attentionCmd = &cobra.Command{
	Use:   "attention",
	Short: "List issues needing attention",
	Long:  "List escalated issues and active issues past their SLA response target.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return attentionRun()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(attentionCmd)
}

func statusOverviewRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
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

	scorer := health.NewScorer(m.SLA())
	now := time.Now().UTC()

	table := ui.Table([]string{"Property", "Active", "Breaching", "Escalated", "Health"})

	for _, p := range properties {
		issues, err := s.ListIssues(ctx, store.IssueListFilter{PropertyID: p.ID, ShowClosed: true})
		if err != nil {
			return err
		}

		active, breaching, escalated := 0, 0, 0
		for _, issue := range issues {
			if !issue.Status.Active() {
				continue
			}
			active++
			if issue.Status == models.IssueStatusEscalated {
				escalated++
			}
			if m.SLA().Breached(issue, now) {
				breaching++
			}
		}

		score := scorer.Compute(issues, now)

		breachStr := fmt.Sprintf("%d", breaching)
		if breaching > 0 {
			breachStr = output.Red(breachStr)
		}
		escStr := fmt.Sprintf("%d", escalated)
		if escalated > 0 {
			escStr = output.Red(escStr)
		}

		_ = table.Append([]string{
			output.Cyan(p.Name),
			fmt.Sprintf("%d", active),
			breachStr,
			escStr,
			output.HealthColor(score.Total),
		})
	}

	_ = table.Render()
	return nil
}

func attentionRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	m, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issues, err := m.Attention(ctx)
	if err != nil {
		return err
	}

	if len(issues) == 0 {
		ui.Success("Nothing needs attention.")
		return nil
	}

	propertyNames := make(map[string]string)
	now := time.Now().UTC()

	table := ui.Table([]string{"ID", "Property", "Title", "Status", "Priority", "Why"})
	for _, issue := range issues {
		propName := propertyNames[issue.PropertyID]
		if propName == "" {
			if p, err := s.GetProperty(ctx, issue.PropertyID); err == nil {
				propName = p.Name
				propertyNames[issue.PropertyID] = propName
			}
		}

		why := ""
		if issue.Status == models.IssueStatusEscalated {
			why = output.Red("escalated")
		} else if m.SLA().Breached(issue, now) {
			why = output.Red("SLA breach")
		}

		_ = table.Append([]string{
			shortID(issue.ID),
			propName,
			issue.Title,
			output.StatusColor(string(issue.Status)),
			output.PriorityColor(string(issue.Priority)),
			why,
		})
	}
	_ = table.Render()
	return nil
}
