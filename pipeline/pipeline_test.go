package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhollow/pinecone-mcp/chunking"
	"github.com/greenhollow/pinecone-mcp/internal/testutil"
	"github.com/greenhollow/pinecone-mcp/types"
)

// wordCounter counts whitespace-separated words for deterministic tests
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func newTestChunker(t *testing.T) *chunking.Chunker {
	t.Helper()
	chunker, err := chunking.New(chunking.Config{
		TargetTokens: 8,
		MaxTokens:    16,
		Counter:      wordCounter{},
	})
	require.NoError(t, err)
	return chunker
}

func newTestProcessor(t *testing.T, embedder types.EmbeddingClient, index types.VectorIndex) *Processor {
	t.Helper()
	processor, err := New(Config{
		Chunker:  newTestChunker(t),
		Embedder: embedder,
		Index:    index,
	})
	require.NoError(t, err)
	return processor
}

func TestNew_RequiresCollaborators(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{}
	index := testutil.NewMockVectorIndex()
	chunker := newTestChunker(t)

	_, err := New(Config{Embedder: embedder, Index: index})
	assert.Error(t, err)

	_, err = New(Config{Chunker: chunker, Index: index})
	assert.Error(t, err)

	_, err = New(Config{Chunker: chunker, Embedder: embedder})
	assert.Error(t, err)

	_, err = New(Config{Chunker: chunker, Embedder: embedder, Index: index})
	assert.NoError(t, err)
}

func TestProcess_RequiresDocumentID(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	_, err := processor.Process(context.Background(), Request{Text: "some text"})
	assert.Error(t, err)
	assert.Equal(t, 0, embedder.BatchCount)
	assert.Equal(t, 0, index.UpsertCount)
}

func TestProcess_EmptyTextSkipsExternalCalls(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	result, err := processor.Process(context.Background(), Request{
		DocumentID: "doc-1",
		Text:       "   \n\t  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "doc-1", result.DocumentID)
	assert.Equal(t, 0, result.ChunkCount)
	assert.Equal(t, 0, result.UpsertedCount)
	assert.Equal(t, 0, embedder.BatchCount)
	assert.Equal(t, 0, index.UpsertCount)
}

func TestProcess_ChunksEmbedsAndUpserts(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{
		GenerateEmbeddingsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i := range texts {
				vectors[i] = []float32{float32(i)}
			}
			return vectors, nil
		},
	}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	text := "# One\n\nalpha beta gamma delta epsilon zeta\n\n# Two\n\neta theta iota kappa lambda mu\n"
	result, err := processor.Process(context.Background(), Request{
		DocumentID: "doc-1",
		Text:       text,
		Namespace:  "notes",
		Metadata:   map[string]any{"source": "inbox"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, 2, result.EmbeddedCount)
	assert.Equal(t, 2, result.UpsertedCount)

	stored := index.Storage["notes"]
	require.Len(t, stored, 2)

	first, ok := stored["doc-1#chunk1"]
	require.True(t, ok, "expected chunk ids derived from the document id")
	assert.Equal(t, []float32{0}, first.Values, "embedding order must follow chunk order")
	assert.Equal(t, "doc-1", first.Metadata["original_document_id"])
	assert.Equal(t, "inbox", first.Metadata["source"])

	second, ok := stored["doc-1#chunk2"]
	require.True(t, ok)
	assert.Equal(t, []float32{1}, second.Values)
}

func TestProcess_ReprocessingOverwrites(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	req := Request{DocumentID: "doc-1", Text: "alpha beta gamma", Namespace: "notes"}
	_, err := processor.Process(context.Background(), req)
	require.NoError(t, err)
	_, err = processor.Process(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, index.Storage["notes"], 1, "same document must overwrite, not duplicate")
	assert.Equal(t, 2, index.UpsertCount)
}

func TestProcess_EmbedFailureIsAttributed(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{
		GenerateEmbeddingsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, fmt.Errorf("rate limited")
		},
	}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	_, err := processor.Process(context.Background(), Request{DocumentID: "doc-1", Text: "alpha beta"})
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepEmbed, stepErr.Step)
	assert.Equal(t, 0, index.UpsertCount, "failed embed must not reach the index")
}

func TestProcess_UpsertFailureIsAttributed(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{}
	index := testutil.NewMockVectorIndex()
	index.UpsertFunc = func(ctx context.Context, namespace string, records []types.Record) (int, error) {
		return 0, fmt.Errorf("index unavailable")
	}
	processor := newTestProcessor(t, embedder, index)

	_, err := processor.Process(context.Background(), Request{DocumentID: "doc-1", Text: "alpha beta"})
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepUpsert, stepErr.Step)
}

func TestProcess_EmbedCountMismatch(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{
		GenerateEmbeddingsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{}, nil
		},
	}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	_, err := processor.Process(context.Background(), Request{DocumentID: "doc-1", Text: "alpha beta"})
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepEmbed, stepErr.Step)
}

func TestProcessStream_EmitsStagesThenResult(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	events := processor.ProcessStream(context.Background(), Request{
		DocumentID: "doc-1",
		Text:       "alpha beta gamma",
		Namespace:  "notes",
	})

	var stages []string
	var final Event
	for event := range events {
		if event.Done || event.Err != nil {
			final = event
			continue
		}
		stages = append(stages, event.Stage)
	}

	assert.Equal(t, []string{StepChunk, StepEmbed, StepUpsert}, stages)
	require.True(t, final.Done)
	require.NotNil(t, final.Result)
	assert.Equal(t, 1, final.Result.UpsertedCount)
}

func TestProcessStream_TerminalError(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{
		GenerateEmbeddingsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, fmt.Errorf("boom")
		},
	}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	events := processor.ProcessStream(context.Background(), Request{DocumentID: "doc-1", Text: "alpha"})

	var terminal Event
	for event := range events {
		terminal = event
	}
	require.Error(t, terminal.Err)

	var stepErr *StepError
	require.True(t, errors.As(terminal.Err, &stepErr))
	assert.Equal(t, StepEmbed, stepErr.Step)
}

func TestProcessStream_CancelStopsProducer(t *testing.T) {
	embedder := &testutil.MockEmbeddingClient{}
	index := testutil.NewMockVectorIndex()
	processor := newTestProcessor(t, embedder, index)

	ctx, cancel := context.WithCancel(context.Background())
	events := processor.ProcessStream(ctx, Request{DocumentID: "doc-1", Text: "alpha beta"})

	// Take the first event, then walk away. The producer must unblock and
	// close the channel rather than leak.
	<-events
	cancel()

	for range events {
	}
}
