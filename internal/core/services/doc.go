// Package services implements the core use cases: the sync coordinator
// that drives a poll cycle end to end, and the search service that
// answers similarity queries over the indexed chunks.
//
// Services depend only on domain types and driven ports; all
// infrastructure reaches them through interfaces.
package services
