// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The index-sync pipeline is DocumentSynthesizer, IdentityTracker and
// IndexUpdater. Questions go through QueryRouter, which picks either the
// StructuredQueryService or the RetrievalConsolidator.
package services
