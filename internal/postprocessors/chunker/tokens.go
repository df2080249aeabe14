package chunker

// TokenCounter measures text against the chunk budget. A single counter
// is fixed per processor, so one run never mixes counting strategies.
type TokenCounter interface {
	// Count returns the token count for the text.
	Count(text string) int

	// Name identifies the counting strategy.
	Name() string
}

// Ensure EstimateCounter implements the interface.
var _ TokenCounter = EstimateCounter{}

// EstimateCounter approximates token counts at ~4 characters per token.
// It is the deterministic default when no model tokenizer is available.
type EstimateCounter struct{}

// Count returns the approximate token count.
func (EstimateCounter) Count(text string) int {
	return len(text) / 4
}

// Name identifies the strategy.
func (EstimateCounter) Name() string {
	return "estimate"
}
