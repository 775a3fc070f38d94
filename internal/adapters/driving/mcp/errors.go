// Package mcp provides an MCP (Model Context Protocol) server adapter for litsearch.
// It lets AI assistants run hybrid article queries and read stored articles.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
