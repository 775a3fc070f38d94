package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/litsearch/internal/adapters/driving/cli/styles"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/services"
)

var (
	queryFrom       string
	queryTo         string
	queryDisplay    string
	queryLimit      int
	queryTopK       int
	queryParseDates bool
	queryJSON       bool
	queryYAML       bool
	queryExport     string
)

// maxCellWidth bounds table cells on a terminal.
const maxCellWidth = 60

// now is swapped by tests.
var now = time.Now

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query articles by meaning",
	Long: `Embeds the query text once, searches every article field for the nearest
vectors, and ranks articles by their best-matching field. Results can be
restricted to a publication date range.

With --parse-dates, phrases such as "last week", "past 3 months" or
"since 2024-01-01" in the text set the date range when --from and --to are
not given.`,
	Example: `  litsearch query "immunotherapy for melanoma" --from 2024-01-01
  litsearch query "robotic surgery last month" --parse-dates --display titles
  litsearch query "biomarkers" --export results.csv`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationServices: needsAll},
	RunE:        runQuery,
}

func init() {
	f := queryCmd.Flags()
	addFilterFlags(f)
	f.BoolVar(&queryJSON, "json", false, "output results as JSON")
	f.BoolVar(&queryYAML, "yaml", false, "output results as YAML")
	f.StringVarP(&queryExport, "export", "o", "", "also write results to a CSV file")
	queryCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.AddCommand(queryCmd)
}

// addFilterFlags registers the filter flags shared by query and export.
func addFilterFlags(f *pflag.FlagSet) {
	f.StringVar(&queryFrom, "from", "", "earliest publication date (YYYY-MM-DD)")
	f.StringVar(&queryTo, "to", "", "latest publication date (YYYY-MM-DD)")
	f.StringVarP(&queryDisplay, "display", "d", "all", "columns to show: all, titles or keywords")
	f.IntVarP(&queryLimit, "limit", "n", 10, "maximum number of results (0 = no limit)")
	f.IntVar(&queryTopK, "top-k", 0, "per-field candidate count (default: query.top_k setting)")
	f.BoolVar(&queryParseDates, "parse-dates", false, "read a date range from phrases in the query text")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	text := args[0]
	filters, err := buildQueryFilters(text)
	if err != nil {
		return err
	}

	results, err := queryService.Query(cmd.Context(), text, filters)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryExport != "" {
		if err := exportResults(cmd, results, filters.Display); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case queryJSON:
		return outputQueryJSON(out, results)
	case queryYAML:
		return outputQueryYAML(out, results)
	default:
		outputQueryTable(cmd, results, filters)
		return nil
	}
}

func buildQueryFilters(text string) (domain.QueryFilters, error) {
	if queryLimit < 0 {
		return domain.QueryFilters{}, fmt.Errorf("%w: --limit must not be negative", domain.ErrInvalidQuery)
	}
	display, err := domain.ParseDisplayMode(queryDisplay)
	if err != nil {
		return domain.QueryFilters{}, err
	}
	filters := domain.QueryFilters{Display: display, Limit: queryLimit}

	if queryFrom != "" {
		from, err := domain.ParseDate(queryFrom)
		if err != nil {
			return domain.QueryFilters{}, fmt.Errorf("--from: %w", err)
		}
		filters.DateFrom = &from
	}
	if queryTo != "" {
		to, err := domain.ParseDate(queryTo)
		if err != nil {
			return domain.QueryFilters{}, fmt.Errorf("--to: %w", err)
		}
		filters.DateTo = &to
	}
	if queryParseDates {
		filters, _ = services.ApplyDateHint(text, filters, now())
	}
	return filters, filters.Validate()
}

func exportResults(cmd *cobra.Command, results []domain.QueryResult, mode domain.DisplayMode) error {
	if exportService == nil {
		return errors.New("export service not configured")
	}
	path, err := exportService.Export(cmd.Context(), results, mode, queryExport)
	if errors.Is(err, domain.ErrNoResults) {
		cmd.PrintErrln("No results to export.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	cmd.PrintErrf("Exported %d results to %s\n", len(results), path)
	return nil
}

func outputQueryJSON(w io.Writer, results []domain.QueryResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputQueryYAML(w io.Writer, results []domain.QueryResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return enc.Close()
}

func outputQueryTable(cmd *cobra.Command, results []domain.QueryResult, filters domain.QueryFilters) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	headers := filters.Display.Columns()
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = r.Row(filters.Display)
	}

	if isTerminal(cmd.OutOrStdout()) {
		s := styles.DefaultStyles()
		cmd.Println(s.Title.Render(fmt.Sprintf("%d results", len(results))))
		cmd.Println(s.Table(headers, rows, maxCellWidth))
		return
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		for j := range row {
			row[j] = styles.Truncate(row[j], maxCellWidth)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
