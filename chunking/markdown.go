package chunking

import "strings"

// isHeading reports whether a line is an ATX heading (one to six '#'
// characters followed by a space). Leading indentation up to three spaces
// is allowed, matching CommonMark.
func isHeading(line string) bool {
	s := line
	for i := 0; i < 3 && strings.HasPrefix(s, " "); i++ {
		s = s[1:]
	}
	if !strings.HasPrefix(s, "#") {
		return false
	}
	level := 0
	for level < len(s) && s[level] == '#' {
		level++
	}
	if level > 6 {
		return false
	}
	rest := s[level:]
	return rest == "" || rest == "\n" || strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\t")
}

// hasHeadings reports whether the content contains at least one ATX heading
// outside of a fenced code block.
func hasHeadings(content string) bool {
	inFence := false
	for _, line := range strings.SplitAfter(content, "\n") {
		if isFenceDelimiter(line) {
			inFence = !inFence
			continue
		}
		if !inFence && isHeading(line) {
			return true
		}
	}
	return false
}

func isFenceDelimiter(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// splitSections splits content at heading lines into semantic units. Text is
// preserved verbatim: concatenating the sections reproduces the input exactly.
// Headings inside fenced code blocks do not start a new section.
func splitSections(content string) []string {
	var sections []string
	var current strings.Builder
	inFence := false

	for _, line := range strings.SplitAfter(content, "\n") {
		if isFenceDelimiter(line) {
			inFence = !inFence
		} else if !inFence && isHeading(line) && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// packSections greedily accumulates sections into chunks up to the target
// token budget. A section that alone exceeds the maximum budget is emitted as
// a single oversized chunk rather than being split mid-section or truncated.
func (c *Chunker) packSections(sections []string) []string {
	var chunks []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentTokens = 0
		}
	}

	for _, section := range sections {
		tokens := c.cfg.Counter.Count(section)
		if tokens > c.cfg.MaxTokens {
			// Oversized semantic unit: emit whole.
			flush()
			chunks = append(chunks, section)
			continue
		}
		if currentTokens+tokens > c.cfg.TargetTokens {
			flush()
		}
		current.WriteString(section)
		currentTokens += tokens
	}
	flush()
	return chunks
}
