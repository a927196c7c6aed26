package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/greenhollow/pinecone-mcp/chunking"
	"github.com/greenhollow/pinecone-mcp/types"
)

// Step names used to attribute pipeline failures
const (
	StepChunk  = "chunk"
	StepEmbed  = "embed"
	StepUpsert = "upsert"
)

// StepError wraps a failure with the pipeline step it occurred in, so
// callers can tell a local chunking problem from an external call failure.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Config holds the collaborators for a Processor
type Config struct {
	Chunker  *chunking.Chunker
	Embedder types.EmbeddingClient
	Index    types.VectorIndex

	// Logger is optional. If nil, logging is disabled.
	Logger *zap.Logger
}

// Processor runs the chunk, embed, upsert pipeline for a document
type Processor struct {
	chunker  *chunking.Chunker
	embedder types.EmbeddingClient
	index    types.VectorIndex
	log      *zap.Logger
}

// New creates a Processor from the given configuration
func New(cfg Config) (*Processor, error) {
	if cfg.Chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("vector index is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Processor{
		chunker:  cfg.Chunker,
		embedder: cfg.Embedder,
		index:    cfg.Index,
		log:      cfg.Logger,
	}, nil
}

// Request describes a document to process
type Request struct {
	DocumentID string
	Text       string
	Namespace  string
	Metadata   map[string]any
}

// Result summarizes a completed pipeline run
type Result struct {
	DocumentID    string `json:"document_id"`
	ChunkCount    int    `json:"chunk_count"`
	EmbeddedCount int    `json:"embedded_count"`
	UpsertedCount int    `json:"upserted_count"`
}

// Process chunks the document, embeds every chunk, and upserts the embedded
// records into the index. A document that chunks to nothing completes
// successfully without calling the embedding or index services. Failures are
// wrapped in a StepError naming the step that failed.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	return p.run(ctx, req, nil)
}

func (p *Processor) run(ctx context.Context, req Request, notify func(stage, message string)) (*Result, error) {
	if req.DocumentID == "" {
		return nil, fmt.Errorf("document id is required")
	}

	// The source document id is stamped into every chunk's metadata so
	// chunks remain traceable after the id gains a chunk suffix.
	metadata := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["original_document_id"] = req.DocumentID

	emit := func(stage, message string) {
		if notify != nil {
			notify(stage, message)
		}
	}

	emit(StepChunk, fmt.Sprintf("Chunking document %s", req.DocumentID))
	chunks, err := p.chunker.ChunkDocument(req.DocumentID, req.Text, metadata)
	if err != nil {
		return nil, &StepError{Step: StepChunk, Err: err}
	}
	if len(chunks) == 0 {
		p.log.Info("Document produced no chunks, skipping embed and upsert",
			zap.String("document_id", req.DocumentID))
		return &Result{DocumentID: req.DocumentID}, nil
	}
	p.log.Debug("Chunked document",
		zap.String("document_id", req.DocumentID),
		zap.Int("chunks", len(chunks)))

	emit(StepEmbed, fmt.Sprintf("Embedding %d chunks", len(chunks)))
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, &StepError{Step: StepEmbed, Err: err}
	}
	if len(vectors) != len(chunks) {
		return nil, &StepError{
			Step: StepEmbed,
			Err:  fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(vectors)),
		}
	}

	records := make([]types.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = types.Record{
			ID:       chunk.ID,
			Values:   vectors[i],
			Text:     chunk.Content,
			Metadata: chunk.Metadata,
		}
	}

	emit(StepUpsert, fmt.Sprintf("Upserting %d records", len(records)))
	upserted, err := p.index.Upsert(ctx, req.Namespace, records)
	if err != nil {
		return nil, &StepError{Step: StepUpsert, Err: err}
	}

	p.log.Info("Processed document",
		zap.String("document_id", req.DocumentID),
		zap.String("namespace", req.Namespace),
		zap.Int("chunks", len(chunks)),
		zap.Int("upserted", upserted))

	return &Result{
		DocumentID:    req.DocumentID,
		ChunkCount:    len(chunks),
		EmbeddedCount: len(vectors),
		UpsertedCount: upserted,
	}, nil
}
