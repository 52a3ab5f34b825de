// Package migrations holds the versioned schema for the SQLite store:
// the liquorsales table, the embedded semantic index and scheduler state.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
