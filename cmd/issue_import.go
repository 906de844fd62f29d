package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/propdesk/propdesk/internal/lifecycle"
	"github.com/propdesk/propdesk/internal/llm"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/store"
)

var (
	importProperty string
	importDryRun   bool
)

var issueImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import maintenance requests from a text file",
	Long: `Import maintenance requests from a markdown or plain-text file (e.g. a
forwarded tenant email) using an LLM to extract structured requests.

The file may group requests under "## Property <name>" headings.

Requires ANTHROPIC_API_KEY environment variable or anthropic.api_key in
config. With --property, a simple line parser is used instead and no API
key is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueImportRun(args[0])
	},
}

func init() {
	issueImportCmd.Flags().StringVar(&importProperty, "property", "", "Report all requests against this property (skip LLM extraction)")
	issueImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview extracted requests without creating them")
	issueCmd.AddCommand(issueImportCmd)
}

func issueImportRun(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("file is empty: %s", file)
	}

	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	// If --property is specified, try a simple parse first without LLM
	if importProperty != "" {
		return importWithProperty(ctx, s, content, importProperty)
	}

	return importWithLLM(ctx, s, content)
}

// importWithLLM uses Claude to extract requests and match them to properties.
func importWithLLM(ctx context.Context, s store.Store, content string) error {
	client := newLLMClient()
	if client == nil {
		return fmt.Errorf("ANTHROPIC_API_KEY not set (set env var or anthropic.api_key in config)")
	}

	// Give the LLM the known property names
	properties, err := s.ListProperties(ctx)
	if err != nil {
		return fmt.Errorf("list properties: %w", err)
	}
	propertyNames := make([]string, len(properties))
	for i, p := range properties {
		propertyNames[i] = p.Name
	}

	ui.Info("Extracting maintenance requests with LLM...")
	extracted, err := client.ExtractRequests(ctx, content, propertyNames)
	if err != nil {
		return fmt.Errorf("extract requests: %w", err)
	}

	if len(extracted) == 0 {
		ui.Info("No requests extracted from file.")
		return nil
	}

	previewRequests(extracted)

	if importDryRun || dryRun {
		ui.DryRunMsg("Would report %d issues", len(extracted))
		return nil
	}

	return createExtractedRequests(ctx, s, extracted)
}

// importWithProperty assigns all parsed requests to the given property.
func importWithProperty(ctx context.Context, s store.Store, content, propertyName string) error {
	p, err := resolvePropertyRef(ctx, s, propertyName)
	if err != nil {
		return fmt.Errorf("property %q: %w", propertyName, err)
	}

	requests := parseMarkdownRequests(content)
	if len(requests) == 0 {
		ui.Info("No requests found in file.")
		return nil
	}

	for i := range requests {
		requests[i].Property = p.Name
	}

	previewRequests(requests)

	if importDryRun || dryRun {
		ui.DryRunMsg("Would report %d issues at %s", len(requests), p.Name)
		return nil
	}

	return createExtractedRequests(ctx, s, requests)
}

func previewRequests(requests []llm.ExtractedRequest) {
	table := ui.Table([]string{"#", "Property", "Title", "Category", "Priority"})
	for i, e := range requests {
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			e.Property,
			e.Title,
			e.Category,
			e.Priority,
		})
	}
	_ = table.Render()
}

// parseMarkdownRequests does a simple parse of markdown to extract
// numbered or bulleted items as maintenance requests. "## Property X"
// headings set the property for the items that follow.
func parseMarkdownRequests(content string) []llm.ExtractedRequest {
	var requests []llm.ExtractedRequest
	currentProperty := ""

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		// Check for property heading: ## Property <name>
		if strings.HasPrefix(line, "## ") {
			heading := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			if strings.HasPrefix(strings.ToLower(heading), "property ") {
				currentProperty = strings.TrimSpace(heading[9:])
			}
			continue
		}

		// Numbered list item: "1. Title", "12. Title"
		title := ""
		if len(line) > 2 {
			for i, c := range line {
				if c == '.' && i > 0 && i < 4 {
					rest := strings.TrimSpace(line[i+1:])
					if rest != "" {
						title = rest
					}
					break
				}
				if c < '0' || c > '9' {
					break
				}
			}
			// Bulleted: "- text" or "* text"
			if title == "" && (strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")) {
				title = strings.TrimSpace(line[2:])
			}
		}

		if title != "" {
			requests = append(requests, llm.ExtractedRequest{
				Property:    currentProperty,
				Title:       title,
				Description: title,
				Category:    classifyCategory(title),
				Priority:    classifyPriority(title),
				Body:        line,
			})
		}
	}

	return requests
}

// createExtractedRequests resolves properties and reports the issues.
func createExtractedRequests(ctx context.Context, s store.Store, requests []llm.ExtractedRequest) error {
	m, err := getManager()
	if err != nil {
		return err
	}
	actor := currentActor()

	// Cache property lookups
	propertyCache := make(map[string]*models.Property)
	created := 0
	skipped := 0

	for _, e := range requests {
		prop, ok := propertyCache[e.Property]
		if !ok {
			p, err := s.GetPropertyByName(ctx, e.Property)
			if err != nil {
				ui.Warning("Skipping request %q: property %q not found", e.Title, e.Property)
				skipped++
				continue
			}
			propertyCache[e.Property] = p
			prop = p
		}

		desc := e.Description
		if desc == "" {
			desc = e.Title
		}

		issue, err := m.Create(ctx, actor, lifecycle.CreateInput{
			PropertyID:  prop.ID,
			Unit:        e.Unit,
			Title:       e.Title,
			Description: desc,
			Location:    e.Location,
			Category:    validCategoryOr(e.Category, models.IssueCategoryOther),
			Priority:    validPriorityOr(e.Priority, models.IssuePriorityMedium),
		})
		if err != nil {
			ui.Warning("Failed to report %q: %v", e.Title, err)
			skipped++
			continue
		}
		ui.VerboseLog("Reported %s: %s", shortID(issue.ID), issue.Title)
		created++
	}

	ui.Success("Reported %d issues across %d properties", created, len(propertyCache))
	if skipped > 0 {
		ui.Warning("Skipped %d requests", skipped)
	}

	return nil
}

func validCategoryOr(raw string, fallback models.IssueCategory) models.IssueCategory {
	c := models.IssueCategory(raw)
	switch c {
	case models.IssueCategoryMaintenance, models.IssueCategoryPlumbing, models.IssueCategoryElectrical,
		models.IssueCategoryHVAC, models.IssueCategoryAppliance, models.IssueCategoryStructural,
		models.IssueCategoryPest, models.IssueCategorySafety, models.IssueCategoryOther:
		return c
	}
	return fallback
}

func validPriorityOr(raw string, fallback models.IssuePriority) models.IssuePriority {
	p := models.IssuePriority(raw)
	switch p {
	case models.IssuePriorityUrgent, models.IssuePriorityHigh, models.IssuePriorityMedium, models.IssuePriorityLow:
		return p
	}
	return fallback
}
