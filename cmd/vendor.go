package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/output"
	"github.com/propdesk/propdesk/internal/store"
)

var (
	vendorTrade string
	vendorPhone string
	vendorEmail string
	vendorRate  float64
	vendorNotes string
)

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Manage contractors and service vendors",
	Long:  "Track external vendors that issues can be assigned to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return vendorListRun()
	},
}

var vendorAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a vendor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return vendorAddRun(args[0])
	},
}

var vendorListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List vendors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return vendorListRun()
	},
}

var vendorRemoveCmd = &cobra.Command{
	Use:     "remove <name-or-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a vendor",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return vendorRemoveRun(args[0])
	},
}

func init() {
	vendorAddCmd.Flags().StringVar(&vendorTrade, "trade", "", "Trade: plumbing, electrical, hvac, ... (required)")
	vendorAddCmd.Flags().StringVar(&vendorPhone, "phone", "", "Phone number")
	vendorAddCmd.Flags().StringVar(&vendorEmail, "email", "", "Email address")
	vendorAddCmd.Flags().Float64Var(&vendorRate, "rate", 0, "Hourly rate")
	vendorAddCmd.Flags().StringVar(&vendorNotes, "notes", "", "Free-form notes")
	_ = vendorAddCmd.MarkFlagRequired("trade")

	vendorListCmd.Flags().StringVar(&vendorTrade, "trade", "", "Filter by trade")

	vendorCmd.AddCommand(vendorAddCmd)
	vendorCmd.AddCommand(vendorListCmd)
	vendorCmd.AddCommand(vendorRemoveCmd)
	rootCmd.AddCommand(vendorCmd)
}

func vendorAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	v := &models.Vendor{
		Name:  name,
		Trade: vendorTrade,
		Phone: vendorPhone,
		Email: vendorEmail,
		Notes: vendorNotes,
	}
	if vendorRate > 0 {
		v.HourlyRate = &vendorRate
	}

	if dryRun {
		ui.DryRunMsg("Would add vendor: %s (%s)", name, vendorTrade)
		return nil
	}

	if err := s.CreateVendor(context.Background(), v); err != nil {
		return fmt.Errorf("add vendor: %w", err)
	}

	ui.Success("Added vendor %s: %s (%s)", output.Cyan(shortID(v.ID)), name, v.Trade)
	return nil
}

func vendorListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	vendors, err := s.ListVendors(context.Background(), vendorTrade)
	if err != nil {
		return err
	}

	if len(vendors) == 0 {
		ui.Info("No vendors. Use 'propdesk vendor add <name> --trade <trade>' to get started.")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Trade", "Phone", "Email", "Rate"})
	for _, v := range vendors {
		rate := "-"
		if v.HourlyRate != nil {
			rate = fmt.Sprintf("$%.0f/h", *v.HourlyRate)
		}
		_ = table.Append([]string{
			shortID(v.ID),
			output.Cyan(v.Name),
			v.Trade,
			v.Phone,
			v.Email,
			rate,
		})
	}
	_ = table.Render()
	return nil
}

func vendorRemoveRun(ref string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	v, err := resolveVendorRef(ctx, s, ref)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove vendor: %s", v.Name)
		return nil
	}

	if err := s.DeleteVendor(ctx, v.ID); err != nil {
		return fmt.Errorf("remove vendor: %w", err)
	}

	ui.Success("Removed vendor: %s", output.Cyan(v.Name))
	return nil
}

// resolveVendorRef finds a vendor by exact name, full ID, or ID prefix.
func resolveVendorRef(ctx context.Context, s store.Store, ref string) (*models.Vendor, error) {
	if v, err := s.GetVendor(ctx, ref); err == nil {
		return v, nil
	}

	vendors, err := s.ListVendors(ctx, "")
	if err != nil {
		return nil, err
	}

	upper := strings.ToUpper(ref)
	var matches []*models.Vendor
	for _, v := range vendors {
		if strings.EqualFold(v.Name, ref) || strings.HasPrefix(v.ID, upper) {
			matches = append(matches, v)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("vendor not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous vendor %s: matches %d vendors", ref, len(matches))
	}
}
