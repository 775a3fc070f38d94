package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/litsearch/internal/connectors/articlefile"
	"github.com/custodia-labs/litsearch/internal/core/domain"
)

var (
	ingestWorkers int
	ingestWatch   string
	ingestJSON    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest scraped articles",
	Long: `Reads articles from JSON files (an array or a single object) or JSON Lines
files and writes each one to the relational and vector stores.

Use "-" to read from standard input. With --watch, new or rewritten article
files in the directory are ingested as they appear until interrupted.

An article whose vectors could not all be written is stored as partially
synced; run 'litsearch resync' to complete it.`,
	Annotations: map[string]string{annotationServices: needsAll},
	RunE:        runIngest,
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "concurrent ingestions (default: ingest.workers setting)")
	ingestCmd.Flags().StringVar(&ingestWatch, "watch", "", "directory to watch for new article files")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "print ingest reports as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if len(args) == 0 && ingestWatch == "" {
		return fmt.Errorf("%w: give at least one file or --watch", errUsage)
	}

	ctx := cmd.Context()
	workers := resolveWorkers()

	var failed int
	for _, path := range args {
		raws, err := readArticles(cmd, path)
		if err != nil {
			return err
		}
		report := ingestService.IngestBatch(ctx, raws, workers)
		if err := printReport(cmd, path, report); err != nil {
			return err
		}
		failed += report.Failed
	}

	if ingestWatch != "" {
		return watchAndIngest(ctx, cmd, ingestWatch, workers)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d article(s) not stored", domain.ErrIngestFailed, failed)
	}
	return nil
}

func readArticles(cmd *cobra.Command, path string) ([]domain.RawArticle, error) {
	if path == "-" {
		raws, err := articlefile.Decode(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return raws, nil
	}
	return articlefile.ReadFile(path)
}

func resolveWorkers() int {
	if ingestWorkers > 0 {
		return ingestWorkers
	}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s.Ingest.Workers > 0 {
			return s.Ingest.Workers
		}
	}
	return domain.DefaultAppSettings().Ingest.Workers
}

func watchAndIngest(ctx context.Context, cmd *cobra.Command, dir string, workers int) error {
	w := articlefile.NewWatcher(dir, 0)
	defer w.Close()

	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	for change := range changes {
		if change.Err != nil {
			cmd.PrintErrf("Skipping %s: %v\n", change.Path, change.Err)
			continue
		}
		report := ingestService.IngestBatch(ctx, change.Articles, workers)
		if err := printReport(cmd, change.Path, report); err != nil {
			return err
		}
	}
	return nil
}

func printReport(cmd *cobra.Command, label string, report domain.IngestReport) error {
	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, o := range report.Outcomes {
		switch o.Status {
		case domain.StatusSynced:
			continue
		case domain.StatusPartiallySynced:
			cmd.Printf("  partial  %s: %v\n", o.Key, o.Error())
		default:
			key := o.Key
			if key == "" {
				key = "(no key)"
			}
			cmd.Printf("  failed   %s: %v\n", key, o.Error())
		}
	}
	cmd.Printf("%s: %d synced, %d partially synced, %d failed\n",
		label, report.Synced, report.PartiallySynced, report.Failed)
	if report.PartiallySynced > 0 {
		cmd.Println("Run 'litsearch resync' to complete partially synced articles.")
	}
	return nil
}
