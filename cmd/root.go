package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/propdesk/propdesk/internal/lifecycle"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/output"
	"github.com/propdesk/propdesk/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store
	manager   *lifecycle.Manager

	verbose bool
	dryRun  bool

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "propdesk",
	Short: "Property maintenance tracker - issues, SLAs, and escalations",
	Long: `propdesk tracks maintenance issues across managed rental properties.
It records who reported what, walks every issue through a fixed repair
workflow, watches SLA response targets, and keeps a full audit trail of
every change.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/propdesk/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "propdesk")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PROPDESK")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "propdesk")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "propdesk.db"))
	viper.SetDefault("actor.id", "local-admin")
	viper.SetDefault("actor.name", "Admin")
	viper.SetDefault("actor.role", "admin")
	viper.SetDefault("sla.urgent_hours", 4)
	viper.SetDefault("sla.high_hours", 24)
	viper.SetDefault("sla.medium_hours", 72)
	viper.SetDefault("sla.low_hours", 168)
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("serve.port", 8420)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// Store and manager are initialized lazily so config/version
	// commands can run without a db.
}

// rootRun handles `propdesk` with no subcommand: show the portfolio dashboard.
func rootRun(cmd *cobra.Command) error {
	if _, err := getStore(); err != nil {
		return cmd.Help()
	}
	return statusOverviewRun()
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getManager returns the shared lifecycle manager, building it over the
// store with SLA targets from config.
func getManager() (*lifecycle.Manager, error) {
	if manager != nil {
		return manager, nil
	}

	s, err := getStore()
	if err != nil {
		return nil, err
	}

	manager = lifecycle.NewManager(s, lifecycle.WithSLAPolicy(slaFromConfig()))
	return manager, nil
}

// slaFromConfig builds the SLA policy from the sla.* config keys.
func slaFromConfig() lifecycle.SLAPolicy {
	return lifecycle.SLAPolicy{
		Targets: map[models.IssuePriority]time.Duration{
			models.IssuePriorityUrgent: time.Duration(viper.GetInt("sla.urgent_hours")) * time.Hour,
			models.IssuePriorityHigh:   time.Duration(viper.GetInt("sla.high_hours")) * time.Hour,
			models.IssuePriorityMedium: time.Duration(viper.GetInt("sla.medium_hours")) * time.Hour,
			models.IssuePriorityLow:    time.Duration(viper.GetInt("sla.low_hours")) * time.Hour,
		},
	}
}

// currentActor builds the acting identity from the actor.* config keys.
func currentActor() models.Actor {
	return models.Actor{
		ID:   viper.GetString("actor.id"),
		Name: viper.GetString("actor.name"),
		Role: models.Role(viper.GetString("actor.role")),
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "propdesk %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
	},
}
