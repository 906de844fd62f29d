package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/output"
)

var classifyApply bool

var issueClassifyCmd = &cobra.Command{
	Use:   "classify <issue-id>",
	Short: "Suggest a category and priority for an issue",
	Long: `Suggest a category and priority for an issue.

Uses the Anthropic API when an API key is configured, otherwise falls
back to keyword heuristics. With --apply, the suggested priority is
applied through the normal priority-change path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueClassifyRun(args[0])
	},
}

func init() {
	issueClassifyCmd.Flags().BoolVar(&classifyApply, "apply", false, "Apply the suggested priority")
	issueCmd.AddCommand(issueClassifyCmd)
}

func issueClassifyRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := findIssue(ctx, s, id)
	if err != nil {
		return err
	}

	category, priority, reasoning := "", "", ""
	if client := newLLMClient(); client != nil {
		ui.VerboseLog("Classifying with LLM...")
		c, err := client.Classify(ctx, issue.Title, issue.Description, issue.Location)
		if err != nil {
			ui.Warning("LLM classification failed, using heuristics: %v", err)
		} else {
			category, priority, reasoning = c.Category, c.Priority, c.Reasoning
		}
	}
	if category == "" {
		text := issue.Title + " " + issue.Description
		category = classifyCategory(text)
		priority = classifyPriority(text)
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(issue.ID)), issue.Title)
	fmt.Fprintf(ui.Out, "  Current:    %s / %s\n", issue.Category, output.PriorityColor(string(issue.Priority)))
	fmt.Fprintf(ui.Out, "  Suggested:  %s / %s\n", category, output.PriorityColor(priority))
	if reasoning != "" {
		fmt.Fprintf(ui.Out, "  Why:        %s\n", reasoning)
	}

	if !classifyApply || models.IssuePriority(priority) == issue.Priority {
		return nil
	}

	m, err := getManager()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would set issue %s priority: %s -> %s", shortID(issue.ID), issue.Priority, priority)
		return nil
	}

	updated, err := m.SetPriority(ctx, currentActor(), issue.ID, validPriorityOr(priority, issue.Priority))
	if err != nil {
		return err
	}

	ui.Success("Issue %s priority is now %s", output.Cyan(shortID(updated.ID)), output.PriorityColor(string(updated.Priority)))
	return nil
}

// classifyCategory infers the issue category from free text using keyword
// heuristics. Safety keywords are checked first so "gas leak" classifies
// as safety rather than plumbing. Defaults to "other".
func classifyCategory(text string) string {
	lower := strings.ToLower(text)

	safetyKeywords := []string{
		"gas", "smoke detector", "carbon monoxide", "fire", "alarm",
		"lock", "break-in", "broken window", "mold",
	}
	for _, kw := range safetyKeywords {
		if strings.Contains(lower, kw) {
			return "safety"
		}
	}

	plumbingKeywords := []string{
		"leak", "faucet", "drain", "toilet", "pipe", "water heater",
		"sewage", "clog", "flood", "dripping",
	}
	for _, kw := range plumbingKeywords {
		if strings.Contains(lower, kw) {
			return "plumbing"
		}
	}

	electricalKeywords := []string{
		"outlet", "breaker", "wiring", "light switch", "power",
		"electrical", "sparking",
	}
	for _, kw := range electricalKeywords {
		if strings.Contains(lower, kw) {
			return "electrical"
		}
	}

	hvacKeywords := []string{
		"heat", "furnace", "air condition", "a/c", "ac unit",
		"thermostat", "hvac", "radiator", "vent",
	}
	for _, kw := range hvacKeywords {
		if strings.Contains(lower, kw) {
			return "hvac"
		}
	}

	applianceKeywords := []string{
		"fridge", "refrigerator", "dishwasher", "oven", "stove",
		"washer", "dryer", "microwave", "garbage disposal",
	}
	for _, kw := range applianceKeywords {
		if strings.Contains(lower, kw) {
			return "appliance"
		}
	}

	pestKeywords := []string{
		"roach", "mice", "mouse", "rat", "ant", "termite",
		"bed bug", "wasp", "pest", "infestation",
	}
	for _, kw := range pestKeywords {
		if strings.Contains(lower, kw) {
			return "pest"
		}
	}

	structuralKeywords := []string{
		"roof", "ceiling", "wall crack", "foundation", "floor",
		"drywall", "stairs", "railing", "structural",
	}
	for _, kw := range structuralKeywords {
		if strings.Contains(lower, kw) {
			return "structural"
		}
	}

	return "other"
}

// classifyPriority infers the issue priority from free text using keyword
// heuristics. Urgent keywords are checked before high, high before low.
// Defaults to "medium".
func classifyPriority(text string) string {
	lower := strings.ToLower(text)

	urgentKeywords := []string{
		"flood", "gas leak", "gas smell", "fire", "sewage", "burst",
		"no heat", "carbon monoxide", "sparking", "emergency",
		"break-in", "no water",
	}
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			return "urgent"
		}
	}

	highKeywords := []string{
		"leak", "no hot water", "broken lock", "fridge not",
		"refrigerator not", "not working", "broken window", "mold",
		"infestation",
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return "high"
		}
	}

	lowKeywords := []string{
		"cosmetic", "paint", "squeak", "minor", "scuff",
		"nice to have", "when convenient", "touch up",
	}
	for _, kw := range lowKeywords {
		if strings.Contains(lower, kw) {
			return "low"
		}
	}

	return "medium"
}
