package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Complete partially synced articles",
	Long: `Finds stored articles with missing field vectors and re-embeds them.
Articles that are already complete are left untouched.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationServices: needsAll},
	RunE:        runResync,
}

func init() {
	resyncCmd.Flags().BoolVar(&ingestJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(resyncCmd)
}

func runResync(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	report, err := ingestService.Resync(cmd.Context())
	if err != nil {
		return fmt.Errorf("resync failed: %w", err)
	}
	if len(report.Outcomes) == 0 && !ingestJSON {
		cmd.Println("All articles are fully synced.")
		return nil
	}
	return printReport(cmd, "resync", report)
}
