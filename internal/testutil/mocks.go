package testutil

import (
	"context"
	"sync"

	"github.com/greenhollow/pinecone-mcp/types"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient for testing
type MockEmbeddingClient struct {
	GenerateEmbeddingFunc  func(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddingsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu         sync.Mutex
	CallCount  int
	BatchCount int
	LastText   string
	LastTexts  []string
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastText = text
	m.mu.Unlock()

	if m.GenerateEmbeddingFunc != nil {
		return m.GenerateEmbeddingFunc(ctx, text)
	}
	return defaultEmbedding(text), nil
}

func (m *MockEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.BatchCount++
	m.LastTexts = texts
	m.mu.Unlock()

	if m.GenerateEmbeddingsFunc != nil {
		return m.GenerateEmbeddingsFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = defaultEmbedding(text)
	}
	return vectors, nil
}

// defaultEmbedding returns a deterministic embedding derived from text length
func defaultEmbedding(text string) []float32 {
	embedding := make([]float32, 10)
	for i := range embedding {
		embedding[i] = float32(len(text)) / 100.0
	}
	return embedding
}

// StoredRecord is a record captured by MockVectorIndex.Upsert
type StoredRecord struct {
	Values   []float32
	Text     string
	Metadata map[string]any
}

// MockVectorIndex is a mock implementation of VectorIndex for testing.
// Upserted records land in Storage keyed by namespace then id, so tests can
// assert on what was written.
type MockVectorIndex struct {
	QueryFunc  func(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error)
	FetchFunc  func(ctx context.Context, namespace string, ids []string) (map[string]types.FetchedVector, error)
	ListFunc   func(ctx context.Context, namespace, prefix string, limit int, paginationToken string) (*types.ListPage, error)
	UpsertFunc func(ctx context.Context, namespace string, records []types.Record) (int, error)
	DeleteFunc func(ctx context.Context, namespace string, ids []string) error
	StatsFunc  func(ctx context.Context) (*types.IndexStats, error)

	mu          sync.Mutex
	QueryCount  int
	FetchCount  int
	ListCount   int
	UpsertCount int
	DeleteCount int
	StatsCount  int
	Storage     map[string]map[string]StoredRecord
}

func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		Storage: make(map[string]map[string]StoredRecord),
	}
}

func (m *MockVectorIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error) {
	m.mu.Lock()
	m.QueryCount++
	m.mu.Unlock()

	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, namespace, vector, topK, filter)
	}
	return []types.VectorMatch{}, nil
}

func (m *MockVectorIndex) Fetch(ctx context.Context, namespace string, ids []string) (map[string]types.FetchedVector, error) {
	m.mu.Lock()
	m.FetchCount++
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, namespace, ids)
	}

	// Default: serve from Storage
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make(map[string]types.FetchedVector)
	for _, id := range ids {
		if record, ok := m.Storage[namespace][id]; ok {
			metadata := make(map[string]any, len(record.Metadata)+1)
			for k, v := range record.Metadata {
				metadata[k] = v
			}
			if record.Text != "" {
				metadata["text"] = record.Text
			}
			results[id] = types.FetchedVector{ID: id, Values: record.Values, Metadata: metadata}
		}
	}
	return results, nil
}

func (m *MockVectorIndex) List(ctx context.Context, namespace, prefix string, limit int, paginationToken string) (*types.ListPage, error) {
	m.mu.Lock()
	m.ListCount++
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx, namespace, prefix, limit, paginationToken)
	}
	return &types.ListPage{Namespace: namespace}, nil
}

func (m *MockVectorIndex) Upsert(ctx context.Context, namespace string, records []types.Record) (int, error) {
	m.mu.Lock()
	m.UpsertCount++
	if m.Storage != nil {
		if m.Storage[namespace] == nil {
			m.Storage[namespace] = make(map[string]StoredRecord)
		}
		for _, record := range records {
			m.Storage[namespace][record.ID] = StoredRecord{
				Values:   record.Values,
				Text:     record.Text,
				Metadata: record.Metadata,
			}
		}
	}
	m.mu.Unlock()

	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, namespace, records)
	}
	return len(records), nil
}

func (m *MockVectorIndex) Delete(ctx context.Context, namespace string, ids []string) error {
	m.mu.Lock()
	m.DeleteCount++
	if m.Storage[namespace] != nil {
		for _, id := range ids {
			delete(m.Storage[namespace], id)
		}
	}
	m.mu.Unlock()

	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, namespace, ids)
	}
	return nil
}

func (m *MockVectorIndex) Stats(ctx context.Context) (*types.IndexStats, error) {
	m.mu.Lock()
	m.StatsCount++
	m.mu.Unlock()

	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &types.IndexStats{
		Dimension:  10,
		Namespaces: make(map[string]types.NamespaceStats, len(m.Storage)),
	}
	for namespace, records := range m.Storage {
		stats.Namespaces[namespace] = types.NamespaceStats{VectorCount: uint32(len(records))}
		stats.TotalVectorCount += uint32(len(records))
	}
	return stats, nil
}
