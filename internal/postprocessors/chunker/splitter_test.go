package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace-delimited words, which makes budget
// arithmetic in tests exact.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }
func (wordCounter) Name() string          { return "words" }

// charCounter prices every byte, so join separators cost tokens too.
type charCounter struct{}

func (charCounter) Count(text string) int { return len(text) }
func (charCounter) Name() string          { return "chars" }

func TestSplitOversized_WithinBudget(t *testing.T) {
	out := splitOversized("short text", 10, wordCounter{})
	assert.Equal(t, []string{"short text"}, out)
}

func TestSplitOversized_ParagraphBoundaries(t *testing.T) {
	text := "one two three\n\nfour five six\n\nseven eight"

	out := splitOversized(text, 6, wordCounter{})

	// Paragraphs pack greedily: first two fit a 6-word budget together.
	assert.Equal(t, []string{"one two three\n\nfour five six", "seven eight"}, out)
}

func TestSplitOversized_FallsBackToLines(t *testing.T) {
	text := "one two three\nfour five six\nseven eight"

	out := splitOversized(text, 4, wordCounter{})

	assert.Equal(t, []string{"one two three", "four five six", "seven eight"}, out)
}

func TestSplitOversized_SeparatorCountsAgainstBudget(t *testing.T) {
	// The two paragraphs sum to 9 tokens, but rejoining them costs 2 more
	// for the blank line, so a 10-token budget cannot hold both.
	out := splitOversized("aaaaa\n\nbbbb", 10, charCounter{})

	assert.Equal(t, []string{"aaaaa", "bbbb"}, out)
	for _, fragment := range out {
		assert.LessOrEqual(t, charCounter{}.Count(fragment), 10)
	}
}

func TestSplitOversized_FallsBackToWords(t *testing.T) {
	text := "one two three four five"

	out := splitOversized(text, 2, wordCounter{})

	assert.Equal(t, []string{"one two", "three four", "five"}, out)
}

func TestSplitOversized_NeverSplitsInsideWord(t *testing.T) {
	// One word over budget comes back whole rather than cut.
	long := strings.Repeat("x", 100)

	out := splitOversized(long, 5, EstimateCounter{})

	assert.Equal(t, []string{long}, out)
}

func TestSplitOversized_SkipsBlankSegments(t *testing.T) {
	text := "one two\n\n\n\n   \n\nthree four"

	out := splitOversized(text, 2, wordCounter{})

	assert.Equal(t, []string{"one two", "three four"}, out)
}

func TestSplitOversized_ReconstructsAllWords(t *testing.T) {
	words := make([]string, 1000)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	out := splitOversized(text, 40, wordCounter{})

	require.NotEmpty(t, out)
	var rejoined []string
	for _, fragment := range out {
		assert.LessOrEqual(t, len(strings.Fields(fragment)), 40)
		rejoined = append(rejoined, strings.Fields(fragment)...)
	}
	assert.Len(t, rejoined, 1000)
}

func TestSplitByWords_Empty(t *testing.T) {
	assert.Nil(t, splitByWords("   ", 5, wordCounter{}))
}
