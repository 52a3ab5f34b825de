// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - AggregateSource: Grouped page reads, schema and read-only queries over liquorsales
//   - SemanticIndex: Document storage, similarity search and the record id scan
//   - LLMService: Text generation for structured queries and consolidation
//   - ConfigStore: Application configuration
//   - PromptStore: User-editable prompt templates
//
// # Optional Interfaces
//
//   - EmbeddingService: Used by SemanticIndex adapters that embed locally
//   - TransactionStore and DatasetSource: Only needed by the import command
//   - SchedulerStore: Only needed by the scheduler daemon
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
