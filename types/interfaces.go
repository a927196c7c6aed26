package types

import "context"

// EmbeddingClient generates vector embeddings for text
type EmbeddingClient interface {
	// GenerateEmbedding embeds a single text, typically a search query.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateEmbeddings embeds a batch of texts. The output preserves input
	// order: result[i] is the embedding of texts[i].
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex performs vector operations against the external index.
// Every operation takes the namespace explicitly; namespaces have no local
// lifecycle and are passed through to the index untouched.
type VectorIndex interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	Fetch(ctx context.Context, namespace string, ids []string) (map[string]FetchedVector, error)
	List(ctx context.Context, namespace, prefix string, limit int, paginationToken string) (*ListPage, error)
	Upsert(ctx context.Context, namespace string, records []Record) (int, error)
	Delete(ctx context.Context, namespace string, ids []string) error
	Stats(ctx context.Context) (*IndexStats, error)
}
