package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhollow/pinecone-mcp/types"
)

// wordCounter counts whitespace-separated words as tokens, keeping budgets
// deterministic and independent of the tiktoken encoding files.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func newTestChunker(t *testing.T, target, max int) *Chunker {
	t.Helper()
	c, err := New(Config{TargetTokens: target, MaxTokens: max, Counter: wordCounter{}})
	require.NoError(t, err)
	return c
}

func TestNew_InvalidBudgets(t *testing.T) {
	_, err := New(Config{TargetTokens: 100, MaxTokens: 50, Counter: wordCounter{}})
	assert.Error(t, err)
}

func TestChunkDocument_EmptyContent(t *testing.T) {
	c := newTestChunker(t, 10, 20)

	for _, content := range []string{"", "   ", "\n\n\t"} {
		chunks, err := c.ChunkDocument("doc-1", content, nil)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunkDocument_RequiresDocumentID(t *testing.T) {
	c := newTestChunker(t, 10, 20)

	_, err := c.ChunkDocument("", "some text", nil)
	assert.Error(t, err)
}

func TestChunkDocument_SingleSmallChunk(t *testing.T) {
	c := newTestChunker(t, 10, 20)

	chunks, err := c.ChunkDocument("doc-1", "just a few words", map[string]any{"source": "test"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "doc-1#chunk1", chunks[0].ID)
	assert.Equal(t, "just a few words", chunks[0].Content)
	assert.Equal(t, "doc-1", chunks[0].Metadata["document_id"])
	assert.Equal(t, 1, chunks[0].Metadata["chunk_number"])
	assert.Equal(t, 1, chunks[0].Metadata["total_chunks"])
	assert.Equal(t, "test", chunks[0].Metadata["source"])
}

func TestChunkDocument_MarkdownSections(t *testing.T) {
	c := newTestChunker(t, 8, 16)

	doc := "# Intro\nalpha beta gamma delta epsilon\n" +
		"## Second\nzeta eta theta iota kappa\n" +
		"## Third\nlambda mu nu xi omicron\n"

	chunks, err := c.ChunkDocument("doc-1", doc, nil)
	require.NoError(t, err)
	require.True(t, len(chunks) > 1, "expected the document to split at headings")

	// Every chunk starts at a heading boundary.
	for _, chunk := range chunks {
		assert.True(t, strings.HasPrefix(chunk.Content, "#"), "chunk should start at a heading: %q", chunk.Content)
		assert.Equal(t, "markdown", chunk.Metadata["chunk_type"])
	}
	assertReconstructs(t, doc, chunks)
}

func TestChunkDocument_PacksSmallSections(t *testing.T) {
	c := newTestChunker(t, 100, 200)

	doc := "# A\none two\n# B\nthree four\n# C\nfive six\n"

	chunks, err := c.ChunkDocument("doc-1", doc, nil)
	require.NoError(t, err)
	// All sections fit well under the target, so they pack into one chunk.
	require.Len(t, chunks, 1)
	assert.Equal(t, doc, chunks[0].Content)
}

func TestChunkDocument_OversizedSectionEmittedWhole(t *testing.T) {
	c := newTestChunker(t, 5, 10)

	big := "# Big\n" + strings.Repeat("word ", 50) + "\n"
	doc := "# Small\none two\n" + big

	chunks, err := c.ChunkDocument("doc-1", doc, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The oversized section is one chunk, not split and not truncated.
	assert.Equal(t, big, chunks[1].Content)
	assert.Greater(t, chunks[1].Metadata["token_count"], 10)
	assertReconstructs(t, doc, chunks)
}

func TestChunkDocument_HeadingInsideCodeFenceIgnored(t *testing.T) {
	c := newTestChunker(t, 100, 200)

	doc := "# Title\nsome text\n```\n# not a heading\n```\nmore text\n"

	chunks, err := c.ChunkDocument("doc-1", doc, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, doc, chunks[0].Content)
}

func TestChunkDocument_FallbackSplitsParagraphs(t *testing.T) {
	c := newTestChunker(t, 6, 12)

	doc := "one two three four five.\n\nsix seven eight nine ten.\n\neleven twelve thirteen fourteen."

	chunks, err := c.ChunkDocument("doc-1", doc, nil)
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)

	for _, chunk := range chunks {
		assert.Equal(t, "token", chunk.Metadata["chunk_type"])
	}
	assertReconstructs(t, doc, chunks)
}

func TestChunkDocument_FallbackLongRun(t *testing.T) {
	c := newTestChunker(t, 10, 20)

	// A long single paragraph with no blank lines forces sentence and word
	// level splitting.
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&sb, "word%d ", i)
	}
	doc := sb.String()

	chunks, err := c.ChunkDocument("doc-1", doc, nil)
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, wordCounter{}.Count(chunk.Content), 10)
	}
	assertReconstructs(t, doc, chunks)
}

func TestChunkDocument_ChunkNumbersAreOrdered(t *testing.T) {
	c := newTestChunker(t, 4, 8)

	doc := "# A\none two three\n# B\nfour five six\n# C\nseven eight nine\n"

	chunks, err := c.ChunkDocument("doc-9", doc, nil)
	require.NoError(t, err)

	for i, chunk := range chunks {
		assert.Equal(t, fmt.Sprintf("doc-9#chunk%d", i+1), chunk.ID)
		assert.Equal(t, i+1, chunk.Metadata["chunk_number"])
		assert.Equal(t, len(chunks), chunk.Metadata["total_chunks"])
	}
}

func TestHeuristicCounter(t *testing.T) {
	assert.Equal(t, 0, HeuristicCounter{}.Count(""))
	assert.Greater(t, HeuristicCounter{}.Count("hello world"), 0)
}

func TestIsHeading(t *testing.T) {
	cases := map[string]bool{
		"# Title\n":       true,
		"### Deep\n":      true,
		"   ## Indented":  true,
		"#NoSpace\n":      false,
		"####### Seven\n": false,
		"plain text\n":    false,
		"##\n":            true,
	}
	for line, want := range cases {
		assert.Equal(t, want, isHeading(line), "line %q", line)
	}
}

// assertReconstructs checks that concatenating chunk contents in order
// reproduces the original document exactly.
func assertReconstructs(t *testing.T, original string, chunks []types.Chunk) {
	t.Helper()
	var sb strings.Builder
	for _, chunk := range chunks {
		sb.WriteString(chunk.Content)
	}
	assert.Equal(t, original, sb.String())
}
