package mcp

import (
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Index reports synchronisation status. Optional.
	Index driving.IndexService

	// Stats reports store contents and the table schema. Optional.
	Stats driving.StatsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
