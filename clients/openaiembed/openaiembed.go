package openaiembed

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	// EmbeddingModel is the OpenAI model used for all embeddings
	EmbeddingModel = openaisdk.EmbeddingModelTextEmbedding3Small

	// EmbeddingDimensions is the vector size requested from the model
	EmbeddingDimensions = 1536

	// defaultMaxBatchSize bounds how many inputs go into one API request
	defaultMaxBatchSize = 100
)

// Config holds OpenAI embedding client configuration
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server

	// MaxBatchSize caps inputs per request. If 0, uses defaultMaxBatchSize.
	MaxBatchSize int
}

// Client generates embeddings through the OpenAI API
type Client struct {
	api          openaisdk.Client
	maxBatchSize int
}

// NewClient creates a new embedding client. Returns an error if the API key
// is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxBatch := cfg.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchSize
	}

	return &Client{
		api:          openaisdk.NewClient(opts...),
		maxBatchSize: maxBatch,
	}, nil
}

// BatchError reports a failed embedding request along with the half-open
// input range [Start, End) it covered, so callers can tell which inputs
// never got embeddings.
type BatchError struct {
	Start int
	End   int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("embedding batch for inputs [%d, %d) failed: %v", e.Start, e.End, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// GenerateEmbedding embeds a single text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GenerateEmbeddings embeds a batch of texts, preserving input order. Inputs
// beyond the per-request limit are split into multiple requests; a failing
// request surfaces as a BatchError identifying the affected inputs.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += c.maxBatchSize {
		end := start + c.maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := c.api.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
			Input:          openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts[start:end]},
			Model:          EmbeddingModel,
			Dimensions:     openaisdk.Int(EmbeddingDimensions),
			EncodingFormat: openaisdk.EmbeddingNewParamsEncodingFormatFloat,
		})
		if err != nil {
			return nil, &BatchError{Start: start, End: end, Err: err}
		}
		if len(resp.Data) != end-start {
			return nil, &BatchError{
				Start: start,
				End:   end,
				Err:   fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Data)),
			}
		}

		for _, item := range resp.Data {
			values := make([]float32, len(item.Embedding))
			for i, v := range item.Embedding {
				values[i] = float32(v)
			}
			vectors[start+int(item.Index)] = values
		}
	}
	return vectors, nil
}
