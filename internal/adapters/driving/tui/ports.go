// Package tui provides an interactive terminal user interface for justask.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Index reports synchronisation state. Optional.
	Index driving.IndexService

	// Stats counts stored rows and documents. Optional.
	Stats driving.StatsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrNilPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
