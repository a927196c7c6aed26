package types

import "fmt"

// Chunk is a contiguous span of a document's text, sized for embedding.
// Concatenating a document's chunks in order reconstructs the original text.
type Chunk struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Record is an embedded chunk ready to be upserted into the vector index.
// Text is folded into the stored metadata under the "text" key so that
// search results can return the original content.
type Record struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"embedding"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// VectorMatch represents a single match from a vector similarity search
type VectorMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// FetchedVector is a vector retrieved by id
type FetchedVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// ListPage is a single page of vector ids from a list operation
type ListPage struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace"`
	NextToken string   `json:"pagination_token,omitempty"`
}

// NamespaceStats holds per-namespace counts from index stats
type NamespaceStats struct {
	VectorCount uint32 `json:"vector_count"`
}

// IndexStats describes the state of the external index
type IndexStats struct {
	Dimension        uint32                    `json:"dimension"`
	TotalVectorCount uint32                    `json:"total_vector_count"`
	IndexFullness    float32                   `json:"index_fullness"`
	Namespaces       map[string]NamespaceStats `json:"namespaces"`
}

// NotFoundError indicates a referenced document id is absent from the index
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", e.ID)
}
