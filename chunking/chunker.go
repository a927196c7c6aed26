package chunking

import (
	"fmt"
	"strings"

	"github.com/greenhollow/pinecone-mcp/types"
)

const (
	// DefaultTargetTokens is the preferred chunk size in tokens
	DefaultTargetTokens = 512

	// DefaultMaxTokens is the budget above which a chunk counts as oversized
	DefaultMaxTokens = 1000
)

// Chunk type labels recorded in chunk metadata
const (
	chunkTypeMarkdown = "markdown"
	chunkTypeToken    = "token"
)

// Config holds configuration for the Chunker
type Config struct {
	// TargetTokens is the preferred chunk size. If 0, uses DefaultTargetTokens.
	TargetTokens int

	// MaxTokens is the budget a single chunk may not exceed unless one
	// semantic unit is itself larger. If 0, uses DefaultMaxTokens.
	MaxTokens int

	// Counter measures token counts. If nil, uses tiktoken (cl100k_base),
	// falling back to a character heuristic if the encoding cannot load.
	Counter TokenCounter
}

// applyDefaults fills in default values for unset config fields
func (c *Config) applyDefaults() {
	if c.TargetTokens == 0 {
		c.TargetTokens = DefaultTargetTokens
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Counter == nil {
		counter, err := NewTiktokenCounter()
		if err != nil {
			counter = HeuristicCounter{}
		}
		c.Counter = counter
	}
}

// Chunker splits document text into embedding-sized chunks. It prefers
// markdown heading boundaries and falls back to separator-based splitting
// for plain text. Chunk contents are kept verbatim so that concatenating
// the chunks in order reconstructs the original document.
type Chunker struct {
	cfg Config
}

// New creates a Chunker with the given configuration
func New(cfg Config) (*Chunker, error) {
	cfg.applyDefaults()
	if cfg.TargetTokens < 0 || cfg.MaxTokens < 0 {
		return nil, fmt.Errorf("token budgets must be positive")
	}
	if cfg.MaxTokens < cfg.TargetTokens {
		return nil, fmt.Errorf("max tokens (%d) must be greater than or equal to target tokens (%d)", cfg.MaxTokens, cfg.TargetTokens)
	}
	return &Chunker{cfg: cfg}, nil
}

// ChunkDocument splits content into chunks with complete metadata. Empty or
// whitespace-only content yields an empty slice, not an error.
func (c *Chunker) ChunkDocument(documentID, content string, metadata map[string]any) ([]types.Chunk, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id is required")
	}
	if strings.TrimSpace(content) == "" {
		return []types.Chunk{}, nil
	}

	var pieces []string
	chunkType := chunkTypeToken
	if hasHeadings(content) {
		pieces = c.packSections(splitSections(content))
		chunkType = chunkTypeMarkdown
	} else {
		pieces = c.splitRecursive(content, fallbackSeparators)
	}

	chunks := make([]types.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, c.newChunk(documentID, piece, i+1, len(pieces), chunkType, metadata))
	}
	return chunks, nil
}

// newChunk builds a chunk with its derived metadata merged over the
// caller-supplied base metadata.
func (c *Chunker) newChunk(documentID, content string, number, total int, chunkType string, base map[string]any) types.Chunk {
	metadata := make(map[string]any, len(base)+6)
	for k, v := range base {
		metadata[k] = v
	}
	metadata["document_id"] = documentID
	metadata["chunk_number"] = number
	metadata["total_chunks"] = total
	metadata["token_count"] = c.cfg.Counter.Count(content)
	metadata["char_count"] = len(content)
	metadata["chunk_type"] = chunkType

	return types.Chunk{
		ID:       fmt.Sprintf("%s#chunk%d", documentID, number),
		Content:  content,
		Metadata: metadata,
	}
}
