package chunker

import "strings"

// splitOversized partitions a single block's text that exceeds the token
// budget. It falls back level by level: paragraph (blank-line) boundaries
// first, then line boundaries, then whitespace-delimited word groups.
// A word is never split; a lone word over budget comes back as one
// over-budget fragment rather than being cut mid-word.
func splitOversized(text string, maxTokens int, counter TokenCounter) []string {
	if counter.Count(text) <= maxTokens {
		return []string{text}
	}
	return splitGroups(text, "\n\n", maxTokens, counter, splitByLines)
}

// splitByLines is the second fallback level.
func splitByLines(text string, maxTokens int, counter TokenCounter) []string {
	return splitGroups(text, "\n", maxTokens, counter, splitByWords)
}

// splitByWords is the final fallback level: greedy word grouping.
func splitByWords(text string, maxTokens int, counter TokenCounter) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var out []string
	var group []string
	groupTokens := 0

	for _, word := range words {
		wordTokens := counter.Count(word + " ")
		if len(group) > 0 && groupTokens+wordTokens > maxTokens {
			out = append(out, strings.Join(group, " "))
			group = nil
			groupTokens = 0
		}
		group = append(group, word)
		groupTokens += wordTokens
	}
	if len(group) > 0 {
		out = append(out, strings.Join(group, " "))
	}
	return out
}

// splitGroups greedily packs the text's segments (split on sep) into
// budget-sized fragments, recursing into next for any single segment
// that exceeds the budget on its own.
func splitGroups(
	text, sep string,
	maxTokens int,
	counter TokenCounter,
	next func(string, int, TokenCounter) []string,
) []string {
	var out []string
	var group []string
	groupTokens := 0
	sepTokens := counter.Count(sep)

	flush := func() {
		if len(group) > 0 {
			out = append(out, strings.Join(group, sep))
			group = nil
			groupTokens = 0
		}
	}

	for _, segment := range strings.Split(text, sep) {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		segmentTokens := counter.Count(segment)

		if segmentTokens > maxTokens {
			flush()
			out = append(out, next(segment, maxTokens, counter)...)
			continue
		}
		if len(group) > 0 && groupTokens+sepTokens+segmentTokens > maxTokens {
			flush()
		}
		if len(group) > 0 {
			groupTokens += sepTokens
		}
		group = append(group, segment)
		groupTokens += segmentTokens
	}
	flush()
	return out
}
