package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/llm"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/store"
)

func TestParseMarkdownRequests(t *testing.T) {
	t.Run("numbered list with property headings", func(t *testing.T) {
		md := `# Weekend requests

## Property Maple Court

1. Kitchen faucet dripping in unit 2
2. Outlet not working in the living room
3. Squeaky door hinge

## Property Oak Villas

1. Basement is flooding
`
		requests := parseMarkdownRequests(md)
		require.Len(t, requests, 4)

		assert.Equal(t, "Maple Court", requests[0].Property)
		assert.Equal(t, "Kitchen faucet dripping in unit 2", requests[0].Title)
		assert.Equal(t, "plumbing", requests[0].Category)

		assert.Equal(t, "Maple Court", requests[1].Property)
		assert.Equal(t, "electrical", requests[1].Category)

		assert.Equal(t, "Maple Court", requests[2].Property)
		assert.Equal(t, "low", requests[2].Priority)

		assert.Equal(t, "Oak Villas", requests[3].Property)
		assert.Equal(t, "urgent", requests[3].Priority)
	})

	t.Run("bulleted list without headings", func(t *testing.T) {
		md := `- Toilet won't flush
* Mice in the basement
`
		requests := parseMarkdownRequests(md)
		require.Len(t, requests, 2)

		assert.Empty(t, requests[0].Property)
		assert.Equal(t, "Toilet won't flush", requests[0].Title)
		assert.Equal(t, "plumbing", requests[0].Category)
		assert.Equal(t, "pest", requests[1].Category)
	})

	t.Run("ignores prose and empty lines", func(t *testing.T) {
		md := `Hi, a few things came up this week.

Thanks!
`
		requests := parseMarkdownRequests(md)
		assert.Empty(t, requests)
	})
}

func TestCreateExtractedRequests(t *testing.T) {
	testEnv(t)

	dir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "import-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	p := &models.Property{Name: "Maple Court", Address: "12 Maple St", Units: 8}
	require.NoError(t, s.CreateProperty(ctx, p))

	// Point the shared store/manager at the test db.
	origStore, origManager := dataStore, manager
	dataStore, manager = s, nil
	t.Cleanup(func() { dataStore, manager = origStore, origManager })

	requests := []llm.ExtractedRequest{
		{Property: "Maple Court", Unit: "2", Title: "Faucet dripping", Description: "Kitchen faucet drips constantly", Category: "plumbing", Priority: "high"},
		{Property: "Maple Court", Title: "Hallway light out", Category: "electrical", Priority: "low"},
		{Property: "Nowhere Manor", Title: "Ghost in attic", Category: "other", Priority: "low"},
	}

	err = createExtractedRequests(ctx, s, requests)
	require.NoError(t, err)

	issues, err := s.ListIssues(ctx, store.IssueListFilter{PropertyID: p.ID})
	require.NoError(t, err)
	require.Len(t, issues, 2, "unknown property should be skipped")

	for _, issue := range issues {
		assert.Equal(t, models.IssueStatusOpen, issue.Status)
		assert.Equal(t, "local-admin", issue.ReporterID)
	}
}

func TestValidCategoryOr(t *testing.T) {
	assert.Equal(t, models.IssueCategoryPlumbing, validCategoryOr("plumbing", models.IssueCategoryOther))
	assert.Equal(t, models.IssueCategoryOther, validCategoryOr("underwater-basket-weaving", models.IssueCategoryOther))
	assert.Equal(t, models.IssueCategoryOther, validCategoryOr("", models.IssueCategoryOther))
}

func TestValidPriorityOr(t *testing.T) {
	assert.Equal(t, models.IssuePriorityUrgent, validPriorityOr("urgent", models.IssuePriorityMedium))
	assert.Equal(t, models.IssuePriorityMedium, validPriorityOr("asap", models.IssuePriorityMedium))
}
