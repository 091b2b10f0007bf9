package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oggyb/model-agency/internal/db"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the schema in line with the models",
	Long: `Run gorm AutoMigrate for every table: users, sessions, profiles, photos
and site settings. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		cfg.DB.AutoMigrate = false

		database, err := db.NewDB(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(database); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
