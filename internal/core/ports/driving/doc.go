// Package driving defines what the CLI, HTTP API and MCP server may ask of
// litsearch: ingest articles, query them, export results and manage
// settings. internal/core/services implements every interface here.
package driving
