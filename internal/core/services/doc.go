// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The text normaliser, gazetteer, keyword filter and detail extractor are
// pure functions over immutable data and are safe for concurrent use.
// The ingest orchestrator sequences them with the agents and the record
// store.
package services
