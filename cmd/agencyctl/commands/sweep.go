package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/oggyb/model-agency/internal/service/moderation"
	"github.com/oggyb/model-agency/internal/service/upload"
)

var (
	// Sweep flags
	dryRun bool
	grace  time.Duration
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove upload files no photo references",
	Long: `Scan the upload directory and delete files that no photo row points at.
Thumbnails of referenced photos are kept. Files younger than --grace are
skipped so in-flight uploads survive.

Examples:
  agencyctl sweep --dry-run           # List orphans only
  agencyctl sweep --grace 24h --json  # Delete orphans older than a day`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		appCtx, err := openApp(ctx, loadConfig())
		if err != nil {
			return err
		}

		pipeline := upload.NewPipeline(appCtx, moderation.NewEngine(appCtx))
		report, err := pipeline.SweepOrphans(ctx, dryRun, grace)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ORPHAN\tACTION")
		action := "removed"
		if dryRun {
			action = "would remove"
		}
		for _, name := range report.Orphans {
			fmt.Fprintf(w, "%s\t%s\n", name, action)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nscanned %d, orphans %d, removed %d\n", report.Scanned, len(report.Orphans), report.Removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report orphans without deleting")
	sweepCmd.Flags().DurationVar(&grace, "grace", time.Hour, "Skip files modified within this window")
}
