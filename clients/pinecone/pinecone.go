package pinecone

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"go.uber.org/zap"
)

// Index defaults used when bootstrapping a missing index. The dimension
// matches the text-embedding-3-small output size.
const (
	DefaultDimension = 1536
	defaultCloud     = pinecone.Aws
	defaultRegion    = "us-east-1"
)

// Vector represents a vector with metadata (re-exported from SDK for convenience)
type Vector = pinecone.Vector

// QueryMatch represents a match from query results (re-exported from SDK for convenience)
type QueryMatch = pinecone.ScoredVector

// Metadata represents the metadata for a vector (re-exported from SDK for convenience)
type Metadata = pinecone.Metadata

// StatsResponse is the index stats payload (re-exported from SDK for convenience)
type StatsResponse = pinecone.DescribeIndexStatsResponse

// Config holds the settings needed to reach a Pinecone index
type Config struct {
	APIKey    string
	IndexName string

	// CreateIfMissing bootstraps a serverless index (cosine metric,
	// DefaultDimension) when the configured index does not exist.
	CreateIfMissing bool

	Logger *zap.Logger
}

// Service wraps the official Pinecone SDK with per-namespace index
// connections. Namespaces are fixed per connection in the SDK, so
// connections are created on demand and cached.
type Service struct {
	client    *pinecone.Client
	indexName string
	host      string
	log       *zap.Logger

	mu    sync.Mutex
	conns map[string]*pinecone.IndexConnection
}

// NewService creates a Service and resolves the index host. Connection state
// is owned by the returned value; no package-level singletons.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone api key is required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("pinecone index name is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	svc := &Service{
		client:    client,
		indexName: cfg.IndexName,
		log:       cfg.Logger,
		conns:     make(map[string]*pinecone.IndexConnection),
	}

	if cfg.CreateIfMissing {
		if err := svc.ensureIndex(ctx); err != nil {
			return nil, err
		}
	}

	desc, err := client.DescribeIndex(ctx, cfg.IndexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %q: %w", cfg.IndexName, err)
	}
	svc.host = desc.Host

	return svc, nil
}

// ensureIndex creates a serverless index when the configured one is absent
func (s *Service) ensureIndex(ctx context.Context) error {
	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	for _, idx := range indexes {
		if idx.Name == s.indexName {
			return nil
		}
	}

	s.log.Info("index not found, creating", zap.String("index", s.indexName))
	_, err = s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:      s.indexName,
		Dimension: DefaultDimension,
		Metric:    pinecone.Cosine,
		Cloud:     defaultCloud,
		Region:    defaultRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create index %q: %w", s.indexName, err)
	}
	return nil
}

// connection returns the cached index connection for a namespace, dialing a
// new one on first use.
func (s *Service) connection(namespace string) (*pinecone.IndexConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn, ok := s.conns[namespace]; ok {
		return conn, nil
	}

	conn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      s.host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index %q (namespace %q): %w", s.indexName, namespace, err)
	}
	s.conns[namespace] = conn
	return conn, nil
}

// Query performs a vector similarity search in the given namespace
func (s *Service) Query(ctx context.Context, namespace string, vector []float32, topK uint32, filter *Metadata) ([]QueryMatch, error) {
	conn, err := s.connection(namespace)
	if err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeValues:   false,
		IncludeMetadata: true,
		MetadataFilter:  filter,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query failed: %w", err)
	}

	matches := make([]QueryMatch, len(resp.Matches))
	for i, match := range resp.Matches {
		matches[i] = *match
	}
	return matches, nil
}

// Fetch retrieves vectors by id from the given namespace
func (s *Service) Fetch(ctx context.Context, namespace string, ids []string) (map[string]*Vector, error) {
	conn, err := s.connection(namespace)
	if err != nil {
		return nil, err
	}

	resp, err := conn.FetchVectors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("pinecone fetch failed: %w", err)
	}
	return resp.Vectors, nil
}

// ListResult is a single page from a list operation
type ListResult struct {
	IDs       []string
	NextToken string
}

// List returns one page of vector ids from the given namespace
func (s *Service) List(ctx context.Context, namespace, prefix string, limit uint32, paginationToken string) (*ListResult, error) {
	conn, err := s.connection(namespace)
	if err != nil {
		return nil, err
	}

	req := &pinecone.ListVectorsRequest{Limit: &limit}
	if prefix != "" {
		req.Prefix = &prefix
	}
	if paginationToken != "" {
		req.PaginationToken = &paginationToken
	}

	resp, err := conn.ListVectors(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("pinecone list failed: %w", err)
	}

	result := &ListResult{IDs: make([]string, 0, len(resp.VectorIds))}
	for _, id := range resp.VectorIds {
		if id != nil {
			result.IDs = append(result.IDs, *id)
		}
	}
	if resp.NextPaginationToken != nil {
		result.NextToken = *resp.NextPaginationToken
	}
	return result, nil
}

// Upsert stores vectors in the given namespace, returning the upserted count
func (s *Service) Upsert(ctx context.Context, namespace string, vectors []*Vector) (uint32, error) {
	conn, err := s.connection(namespace)
	if err != nil {
		return 0, err
	}

	count, err := conn.UpsertVectors(ctx, vectors)
	if err != nil {
		return 0, fmt.Errorf("pinecone upsert failed: %w", err)
	}
	return count, nil
}

// Delete removes vectors by id from the given namespace
func (s *Service) Delete(ctx context.Context, namespace string, ids []string) error {
	conn, err := s.connection(namespace)
	if err != nil {
		return err
	}

	if err := conn.DeleteVectorsById(ctx, ids); err != nil {
		return fmt.Errorf("pinecone delete failed: %w", err)
	}
	return nil
}

// Stats returns statistics describing the index
func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	conn, err := s.connection("")
	if err != nil {
		return nil, err
	}

	stats, err := conn.DescribeIndexStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("pinecone stats failed: %w", err)
	}
	return stats, nil
}
