package cmd

import (
	"github.com/spf13/cobra"

	"github.com/propdesk/propdesk/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an MCP client query propdesk natively for property status,
issues, and SLA attention lists, and report or work issues as the
configured actor. Configure a client with:

  {
    "mcpServers": {
      "propdesk": { "command": "propdesk", "args": ["mcp"] }
    }
  }

Available tools: propdesk_list_properties, propdesk_property_status,
propdesk_list_issues, propdesk_report_issue, propdesk_transition_issue,
propdesk_assign_issue, propdesk_escalate_issue, propdesk_attention,
propdesk_list_vendors`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		m, err := getManager()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(s, m, currentActor())
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
