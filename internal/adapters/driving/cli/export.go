package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [text]",
	Short: "Query articles and write the results to CSV",
	Long: `Runs a query with the same filters as 'litsearch query' and writes the
ranked results to a CSV file instead of the terminal. The columns follow
--display.`,
	Example: `  litsearch export "immunotherapy" --from 2024-01-01 -o immunotherapy.csv
  litsearch export "robotic surgery" --display titles --limit 0`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationServices: needsAll},
	RunE:        runExport,
}

func init() {
	f := exportCmd.Flags()
	addFilterFlags(f)
	f.StringVarP(&exportOutput, "output", "o", "results.csv", "CSV file to write")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportService == nil {
		return errors.New("export service not configured")
	}

	text := args[0]
	filters, err := buildQueryFilters(text)
	if err != nil {
		return err
	}

	path, n, err := exportService.QueryAndExport(cmd.Context(), text, filters, exportOutput)
	if errors.Is(err, domain.ErrNoResults) {
		cmd.Println("No results to export.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	cmd.Printf("Exported %d results to %s\n", n, path)
	return nil
}
