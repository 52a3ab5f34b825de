// Package domain defines the core business entities for justask.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - TransactionRow: One raw liquor sale event
//   - AggregateGroup: Rows reduced per store, item, category and month
//   - Document: The embeddable summary of one AggregateGroup
//   - Answer: The response to one routed question
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/shopspring/decimal
//   - Cannot Import: Any internal/ package, any other external dependency
package domain
