package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/litsearch/internal/adapters/driving/httpapi"
)

var (
	serveAddr    string
	serveOrigins []string
	serveMCP     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves ingestion and queries over HTTP until interrupted.

Routes:
  POST /v1/articles          ingest one article or an array of articles
  GET  /v1/articles/{key}    fetch a stored article
  GET  /v1/query?q=...       ranked results as JSON
  GET  /v1/query.csv?q=...   ranked results as CSV
  GET  /healthz              liveness
  /mcp                       MCP streamable HTTP transport (with --mcp)`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationServices: needsAll},
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", []string{"*"}, "allowed CORS origins")
	serveCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "concurrent ingestions per request (default: ingest.workers setting)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || queryService == nil {
		return errors.New("ingest and query services not configured")
	}

	cfg := httpapi.DefaultConfig()
	cfg.Addr = serveAddr
	cfg.AllowedOrigins = serveOrigins
	cfg.Workers = resolveWorkers()

	server, err := httpapi.NewServer(ingestService, queryService, cfg)
	if err != nil {
		return err
	}
	if exportService != nil {
		server.SetExportService(exportService)
	}

	if serveMCP {
		mcpServer, err := newMCPServer()
		if err != nil {
			return err
		}
		server.Mount("/mcp", mcpServer.Handler())
	}

	cmd.Printf("HTTP API listening on %s\n", serveAddr)
	return server.Run(cmd.Context())
}
