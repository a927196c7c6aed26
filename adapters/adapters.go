package adapters

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/greenhollow/pinecone-mcp/clients/openaiembed"
	pineconeclient "github.com/greenhollow/pinecone-mcp/clients/pinecone"
	"github.com/greenhollow/pinecone-mcp/types"
)

// OpenAIEmbeddingAdapter adapts the OpenAI client to the EmbeddingClient interface
type OpenAIEmbeddingAdapter struct {
	client interface {
		GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
		GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	}
}

// NewOpenAIEmbeddingAdapter creates a new adapter for OpenAI embeddings
func NewOpenAIEmbeddingAdapter(client *openaiembed.Client) *OpenAIEmbeddingAdapter {
	return &OpenAIEmbeddingAdapter{client: client}
}

// GenerateEmbedding implements EmbeddingClient
func (a *OpenAIEmbeddingAdapter) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return a.client.GenerateEmbedding(ctx, text)
}

// GenerateEmbeddings implements EmbeddingClient
func (a *OpenAIEmbeddingAdapter) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return a.client.GenerateEmbeddings(ctx, texts)
}

// indexService is the subset of the Pinecone service the adapter needs
type indexService interface {
	Query(ctx context.Context, namespace string, vector []float32, topK uint32, filter *pineconeclient.Metadata) ([]pineconeclient.QueryMatch, error)
	Fetch(ctx context.Context, namespace string, ids []string) (map[string]*pineconeclient.Vector, error)
	List(ctx context.Context, namespace, prefix string, limit uint32, paginationToken string) (*pineconeclient.ListResult, error)
	Upsert(ctx context.Context, namespace string, vectors []*pineconeclient.Vector) (uint32, error)
	Delete(ctx context.Context, namespace string, ids []string) error
	Stats(ctx context.Context) (*pineconeclient.StatsResponse, error)
}

// PineconeIndexAdapter adapts the Pinecone service to the VectorIndex interface
type PineconeIndexAdapter struct {
	svc indexService
}

// NewPineconeIndexAdapter creates a new adapter for a Pinecone index
func NewPineconeIndexAdapter(svc *pineconeclient.Service) *PineconeIndexAdapter {
	return &PineconeIndexAdapter{svc: svc}
}

var _ types.VectorIndex = (*PineconeIndexAdapter)(nil)

// Query implements VectorIndex
func (a *PineconeIndexAdapter) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error) {
	var metadataFilter *pineconeclient.Metadata
	if len(filter) > 0 {
		filterStruct, err := structpb.NewStruct(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to build metadata filter: %w", err)
		}
		metadataFilter = filterStruct
	}

	matches, err := a.svc.Query(ctx, namespace, vector, uint32(topK), metadataFilter)
	if err != nil {
		return nil, err
	}

	results := make([]types.VectorMatch, len(matches))
	for i, match := range matches {
		result := types.VectorMatch{Score: match.Score}
		if match.Vector != nil {
			result.ID = match.Vector.Id
			result.Metadata = metadataToMap(match.Vector.Metadata)
		}
		results[i] = result
	}
	return results, nil
}

// Fetch implements VectorIndex
func (a *PineconeIndexAdapter) Fetch(ctx context.Context, namespace string, ids []string) (map[string]types.FetchedVector, error) {
	vectors, err := a.svc.Fetch(ctx, namespace, ids)
	if err != nil {
		return nil, err
	}

	results := make(map[string]types.FetchedVector, len(vectors))
	for id, vector := range vectors {
		if vector == nil {
			continue
		}
		results[id] = types.FetchedVector{
			ID:       vector.Id,
			Values:   vector.Values,
			Metadata: metadataToMap(vector.Metadata),
		}
	}
	return results, nil
}

// List implements VectorIndex
func (a *PineconeIndexAdapter) List(ctx context.Context, namespace, prefix string, limit int, paginationToken string) (*types.ListPage, error) {
	page, err := a.svc.List(ctx, namespace, prefix, uint32(limit), paginationToken)
	if err != nil {
		return nil, err
	}
	return &types.ListPage{
		IDs:       page.IDs,
		Namespace: namespace,
		NextToken: page.NextToken,
	}, nil
}

// Upsert implements VectorIndex
func (a *PineconeIndexAdapter) Upsert(ctx context.Context, namespace string, records []types.Record) (int, error) {
	vectors := make([]*pineconeclient.Vector, 0, len(records))
	for _, record := range records {
		metadata, err := recordMetadata(record)
		if err != nil {
			return 0, err
		}
		vectors = append(vectors, &pineconeclient.Vector{
			Id:       record.ID,
			Values:   record.Values,
			Metadata: metadata,
		})
	}

	count, err := a.svc.Upsert(ctx, namespace, vectors)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Delete implements VectorIndex
func (a *PineconeIndexAdapter) Delete(ctx context.Context, namespace string, ids []string) error {
	return a.svc.Delete(ctx, namespace, ids)
}

// Stats implements VectorIndex
func (a *PineconeIndexAdapter) Stats(ctx context.Context) (*types.IndexStats, error) {
	stats, err := a.svc.Stats(ctx)
	if err != nil {
		return nil, err
	}

	result := &types.IndexStats{
		Dimension:        stats.Dimension,
		TotalVectorCount: stats.TotalVectorCount,
		IndexFullness:    stats.IndexFullness,
		Namespaces:       make(map[string]types.NamespaceStats, len(stats.Namespaces)),
	}
	for name, summary := range stats.Namespaces {
		if summary == nil {
			continue
		}
		result.Namespaces[name] = types.NamespaceStats{VectorCount: summary.VectorCount}
	}
	return result, nil
}

// recordMetadata converts a record's metadata to structpb format, folding the
// chunk text in under the "text" key so search results can show content.
func recordMetadata(record types.Record) (*pineconeclient.Metadata, error) {
	fields := make(map[string]any, len(record.Metadata)+1)
	for k, v := range record.Metadata {
		fields[k] = v
	}
	if record.Text != "" {
		fields["text"] = record.Text
	}

	metadataStruct, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to convert metadata for record %q: %w", record.ID, err)
	}
	return metadataStruct, nil
}

// metadataToMap safely unpacks SDK metadata into a plain map
func metadataToMap(metadata *pineconeclient.Metadata) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata.AsMap()
}
