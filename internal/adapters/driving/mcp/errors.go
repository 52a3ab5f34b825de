// Package mcp provides an MCP (Model Context Protocol) server adapter for justask.
// It lets AI assistants ask questions about the sales data and inspect the index.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
