package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oggyb/model-agency/internal/db"
)

var seedOpts = db.DefaultSeedOptions()

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the demo dataset",
	Long: `Create the admin account, demo models and default site copy.
Existing rows are left alone, so seeding twice is harmless.

Examples:
  agencyctl seed
  agencyctl seed --admin-email ops@agency.com --admin-password 's3cret!' --models 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.NewDB(loadConfig())
		if err != nil {
			return err
		}
		if err := db.SeedTestData(database, seedOpts); err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Seeding completed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedOpts.AdminEmail, "admin-email", seedOpts.AdminEmail, "Admin login email")
	seedCmd.Flags().StringVar(&seedOpts.AdminPassword, "admin-password", seedOpts.AdminPassword, "Admin password")
	seedCmd.Flags().IntVar(&seedOpts.Models, "models", seedOpts.Models, "Number of demo model accounts")
}
