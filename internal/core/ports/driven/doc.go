// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RecordStore: Persistence of processed posts (existence check + insert)
//   - GazetteerSource: Reference geography (may fail; callers fall back)
//   - ConfigStore: Application configuration
//   - SettingsProvider: The current immutable settings value
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Inference service. Without it, every post is classified
//     RELEVANT by fallback and nothing is completed.
//   - Classifier / Completer: Agents built on top of LLMService.
//   - PromptStore: User-editable prompt templates.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
