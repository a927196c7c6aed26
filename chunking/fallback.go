package chunking

import "strings"

// fallbackSeparators are tried in order of preference when content has no
// markdown headings: paragraphs, lines, sentences, then words.
var fallbackSeparators = []string{"\n\n", "\n", ". ", " "}

// splitRecursive splits text into pieces at or under the target token budget,
// trying progressively finer separators. Separators stay attached to the
// preceding piece so that concatenating the pieces reproduces the input
// exactly. When no separator helps, the remaining text is returned as a
// single oversized piece.
func (c *Chunker) splitRecursive(text string, separators []string) []string {
	if c.cfg.Counter.Count(text) <= c.cfg.TargetTokens || len(separators) == 0 {
		return []string{text}
	}

	parts := splitAfter(text, separators[0])
	if len(parts) == 1 {
		return c.splitRecursive(text, separators[1:])
	}

	var pieces []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
			currentTokens = 0
		}
	}

	for _, part := range parts {
		tokens := c.cfg.Counter.Count(part)
		if tokens > c.cfg.TargetTokens {
			flush()
			pieces = append(pieces, c.splitRecursive(part, separators[1:])...)
			continue
		}
		if currentTokens+tokens > c.cfg.TargetTokens {
			flush()
		}
		current.WriteString(part)
		currentTokens += tokens
	}
	flush()
	return pieces
}

// splitAfter splits around sep keeping the separator at the end of each part,
// like strings.SplitAfter, and drops the trailing empty part produced when
// the text ends with the separator.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	if n := len(parts); n > 1 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}
