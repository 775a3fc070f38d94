package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/export/csvexport"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/litsearch/internal/core/services"
)

// setupTestServices wires in-memory stores and the hashing embedder into the
// package service variables and restores everything when the test ends.
func setupTestServices(t *testing.T) {
	t.Helper()

	articles := memory.NewArticleStore()
	vectors := memory.NewVectorStore(64)
	embedder := hashing.NewEmbeddingService(hashing.Config{Dimensions: 64})
	query := services.NewQueryEngine(articles, vectors, embedder, 0)

	setServices(t,
		services.NewSyncCoordinator(articles, vectors, embedder),
		query,
		services.NewExportService(csvexport.NewExporter(), query),
		services.NewSettingsService(memory.NewConfigStore(), nil),
	)
}

func setServices(t *testing.T, i *services.SyncCoordinator, q *services.QueryEngine,
	e *services.ExportService, s *services.SettingsService,
) {
	t.Helper()
	origIngest, origQuery, origExport, origSettings := ingestService, queryService, exportService, settingsService
	origBootstrap, origNow := bootstrap, now

	ingestService, queryService, exportService, settingsService = nil, nil, nil, nil
	if i != nil {
		ingestService = i
	}
	if q != nil {
		queryService = q
	}
	if e != nil {
		exportService = e
	}
	if s != nil {
		settingsService = s
	}
	bootstrap = nil

	t.Cleanup(func() {
		ingestService, queryService, exportService, settingsService = origIngest, origQuery, origExport, origSettings
		bootstrap, now = origBootstrap, origNow
		resetCommandState()
	})
}

// resetCommandState puts flag variables back to their defaults. Cobra keeps
// flag values and Changed marks between Execute calls on the same tree.
func resetCommandState() {
	verbose, configDir, dataDir, ephemeral = false, "", "", false
	queryFrom, queryTo, queryDisplay = "", "", "all"
	queryLimit, queryTopK = 10, 0
	queryParseDates, queryJSON, queryYAML = false, false, false
	queryExport, exportOutput = "", "results.csv"
	ingestWorkers, ingestWatch, ingestJSON = 0, "", false
	serveAddr, serveOrigins, serveMCP = ":8080", []string{"*"}, false
	mcpAddr = ""

	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		unmark := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(unmark)
		c.PersistentFlags().VisitAll(unmark)
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
	rootCmd.SetArgs(nil)
	rootCmd.SetIn(nil)
}

// execute runs the root command with args and returns everything written.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer resetCommandState()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

const testArticlesJSONL = `{"title":"Robotic surgery outcomes","source":"https://www.journal.example/a","abstract":"Robotic surgery reduces recovery time.","publication_date":"2024-06-25","authors":"Jane Roe, John Doe"}
{"title":"Heart failure registry","source":"cardio.example","abstract":"A registry of heart failure patients.","publication_date":"2023-01-10"}
`

func fixedNow() time.Time {
	return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
}

func seedArticles(t *testing.T) {
	t.Helper()
	_, err := execute(t, testArticlesJSONL, "ingest", "-")
	if err != nil {
		t.Fatalf("seeding articles: %v", err)
	}
}
