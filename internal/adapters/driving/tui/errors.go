package tui

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("tui: query service is required")

// ErrNilPorts is returned when no ports are given.
var ErrNilPorts = errors.New("tui: ports are required")
