// Package domain defines the core business entities for HomeRadar.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawPost: A captured social-feed post before any processing
//   - ExtractedDetails: Structured fields derived from post text
//   - ClassificationResult: The category assigned to a post
//   - PostRecord: The persisted union of the above
//   - GazetteerData: Reference geography used to resolve locations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
