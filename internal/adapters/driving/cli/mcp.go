package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/litsearch/internal/adapters/driving/mcp"
)

var mcpAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve article queries to MCP clients",
	Long: `Serves the query_articles and get_article tools and the
litsearch://articles/{key} resource to MCP clients.

Stdio is used unless --addr is given, in which case the streamable HTTP
transport listens there. To mount MCP next to the REST API instead, use
'litsearch serve --mcp'.

Client configuration for stdio:
  {
    "mcpServers": {
      "litsearch": {
        "command": "/path/to/litsearch",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationServices: needsAll},
	RunE:        runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpAddr, "addr", "", "listen address for HTTP transport (default: stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{Query: queryService, Ingest: ingestService}, version)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}

	if mcpAddr != "" {
		cmd.PrintErrf("MCP server listening on %s\n", mcpAddr)
		return server.RunHTTP(cmd.Context(), mcpAddr)
	}
	return server.Run(cmd.Context())
}
