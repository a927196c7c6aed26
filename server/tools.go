package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/greenhollow/pinecone-mcp/pipeline"
	"github.com/greenhollow/pinecone-mcp/types"
)

const defaultTopK = 10

const defaultListLimit = 100

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("semantic-search",
		mcp.WithDescription("Search the Pinecone knowledge base for documents relevant to a query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("The text to search for")),
		mcp.WithNumber("top_k", mcp.Description("Number of results to return (default 10)")),
		mcp.WithString("namespace", mcp.Description("Optional namespace to search in")),
		mcp.WithObject("filter", mcp.Description("Optional metadata filter, passed to the index as-is")),
	), s.handleSemanticSearch)

	s.mcp.AddTool(mcp.NewTool("read-document",
		mcp.WithDescription("Read a document from the Pinecone knowledge base by id"),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("The document id to read")),
		mcp.WithString("namespace", mcp.Description("Optional namespace to read from")),
	), s.handleReadDocument)

	s.mcp.AddTool(mcp.NewTool("list-documents",
		mcp.WithDescription("List document ids in the knowledge base by namespace"),
		mcp.WithString("namespace", mcp.Required(), mcp.Description("Namespace to list documents in")),
		mcp.WithString("prefix", mcp.Description("Optional id prefix to filter by")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of ids to return (default 100)")),
		mcp.WithString("pagination_token", mcp.Description("Token from a previous page")),
	), s.handleListDocuments)

	s.mcp.AddTool(mcp.NewTool("chunk-document",
		mcp.WithDescription("First step in document storage. Chunks a document into smaller segments for optimal storage and retrieval. Must be called before embed-document."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Id of the document being chunked")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The document text")),
		mcp.WithObject("metadata", mcp.Description("Metadata to attach to every chunk")),
	), s.handleChunkDocument)

	s.mcp.AddTool(mcp.NewTool("embed-document",
		mcp.WithDescription("Second step in document storage. Embeds chunks from chunk-document. Must be used before upsert-document."),
		mcp.WithArray("chunks", mcp.Required(), mcp.Description("Chunks from the chunk-document response")),
	), s.handleEmbedDocument)

	s.mcp.AddTool(mcp.NewTool("upsert-document",
		mcp.WithDescription("Third step in document storage. Upserts embedded chunks from embed-document into the knowledge base."),
		mcp.WithArray("embedded_chunks", mcp.Required(), mcp.Description("Embedded chunks from the embed-document response")),
		mcp.WithString("namespace", mcp.Description("Optional namespace to store the document in")),
	), s.handleUpsertDocument)

	s.mcp.AddTool(mcp.NewTool("process-document",
		mcp.WithDescription("Process a document end to end: chunk, embed, and upsert it into the knowledge base"),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Id for the document")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The document text")),
		mcp.WithObject("metadata", mcp.Required(), mcp.Description("Metadata to attach to every chunk")),
		mcp.WithString("namespace", mcp.Description("Optional namespace to store the document in")),
	), s.handleProcessDocument)

	s.mcp.AddTool(mcp.NewTool("delete-document",
		mcp.WithDescription("Delete a document and all of its chunk vectors from the knowledge base"),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("The document id to delete")),
		mcp.WithString("namespace", mcp.Description("Optional namespace to delete from")),
	), s.handleDeleteDocument)

	s.mcp.AddTool(mcp.NewTool("pinecone-stats",
		mcp.WithDescription("Get stats about the Pinecone index: vector counts, namespaces, dimension and fullness"),
	), s.handlePineconeStats)
}

// toolLogger returns a logger carrying the tool name and a correlation id
func (s *Server) toolLogger(tool string) *zap.Logger {
	return s.log.With(
		zap.String("tool", tool),
		zap.String("request_id", uuid.NewString()),
	)
}

// objectArg reads an optional object argument as a map
func objectArg(req mcp.CallToolRequest, key string) (map[string]any, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", key)
	}
	return value, nil
}

// arrayArg decodes an array argument into target via JSON round-trip
func arrayArg(req mcp.CallToolRequest, key string, target any) error {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return fmt.Errorf("%s is required", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%s is not valid JSON: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%s has the wrong shape: %w", key, err)
	}
	return nil
}

func (s *Server) handleSemanticSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("semantic-search")

	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}
	topK := req.GetInt("top_k", defaultTopK)
	if topK <= 0 {
		return mcp.NewToolResultError("top_k must be a positive integer"), nil
	}
	namespace := req.GetString("namespace", "")
	filter, err := objectArg(req, "filter")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	vector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Error("Failed to embed query", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to embed query: %v", err)), nil
	}

	matches, err := s.index.Query(ctx, namespace, vector, topK, filter)
	if err != nil {
		log.Error("Query failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	log.Info("Search complete", zap.Int("matches", len(matches)))

	return mcp.NewToolResultText(formatMatches(matches)), nil
}

// formatMatches renders query matches as readable retrieved contexts
func formatMatches(matches []types.VectorMatch) string {
	var sb strings.Builder
	sb.WriteString("Retrieved Contexts:\n\n")
	for i, match := range matches {
		text, _ := match.Metadata["text"].(string)
		sb.WriteString(fmt.Sprintf("Result %d | Similarity: %.3f | Document ID: %s\n", i+1, match.Score, match.ID))
		sb.WriteString(strings.TrimSpace(text))
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 10))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (s *Server) handleReadDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("read-document")

	documentID, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	namespace := req.GetString("namespace", "")

	vectors, err := s.index.Fetch(ctx, namespace, []string{documentID})
	if err != nil {
		log.Error("Fetch failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("fetch failed: %v", err)), nil
	}
	vector, ok := vectors[documentID]
	if !ok {
		notFound := &types.NotFoundError{ID: documentID}
		return mcp.NewToolResultError(notFound.Error()), nil
	}

	return mcp.NewToolResultText(formatDocument(documentID, vector.Metadata)), nil
}

// formatDocument renders a fetched vector's metadata, keys sorted so the
// output is stable.
func formatDocument(documentID string, metadata map[string]any) string {
	lines := []string{fmt.Sprintf("Document ID: %s", documentID), ""}
	if len(metadata) > 0 {
		lines = append(lines, "Metadata:")
		keys := make([]string, 0, len(metadata))
		for key := range metadata {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", key, metadata[key]))
		}
	}
	return strings.Join(lines, "\n")
}

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("list-documents")

	namespace, err := req.RequireString("namespace")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prefix := req.GetString("prefix", "")
	limit := req.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be a positive integer"), nil
	}
	token := req.GetString("pagination_token", "")

	page, err := s.index.List(ctx, namespace, prefix, limit, token)
	if err != nil {
		log.Error("List failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	data, err := json.Marshal(page)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// chunkResponse is the JSON payload of the chunk-document tool
type chunkResponse struct {
	Chunks      []types.Chunk `json:"chunks"`
	TotalChunks int           `json:"total_chunks"`
	DocumentID  string        `json:"document_id"`
}

func (s *Server) handleChunkDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("chunk-document")

	documentID, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	metadata, err := objectArg(req, "metadata")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	chunks, err := s.chunker.ChunkDocument(documentID, text, metadata)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chunking failed: %v", err)), nil
	}
	log.Info("Chunked document", zap.String("document_id", documentID), zap.Int("chunks", len(chunks)))

	data, err := json.Marshal(chunkResponse{
		Chunks:      chunks,
		TotalChunks: len(chunks),
		DocumentID:  documentID,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// embedResponse is the JSON payload of the embed-document tool
type embedResponse struct {
	EmbeddedChunks []types.Record `json:"embedded_chunks"`
	TotalEmbedded  int            `json:"total_embedded"`
}

func (s *Server) handleEmbedDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("embed-document")

	var chunks []types.Chunk
	if err := arrayArg(req, "chunks", &chunks); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for i, chunk := range chunks {
		if chunk.ID == "" || chunk.Content == "" {
			return mcp.NewToolResultError(fmt.Sprintf("chunk %d is missing id or content", i)), nil
		}
	}

	records := []types.Record{}
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Content
		}
		vectors, err := s.embedder.GenerateEmbeddings(ctx, texts)
		if err != nil {
			log.Error("Embedding failed", zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("embedding failed: %v", err)), nil
		}
		records = make([]types.Record, len(chunks))
		for i, chunk := range chunks {
			records[i] = types.Record{
				ID:       chunk.ID,
				Values:   vectors[i],
				Text:     chunk.Content,
				Metadata: chunk.Metadata,
			}
		}
	}
	log.Info("Embedded chunks", zap.Int("count", len(records)))

	data, err := json.Marshal(embedResponse{EmbeddedChunks: records, TotalEmbedded: len(records)})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleUpsertDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("upsert-document")

	var records []types.Record
	if err := arrayArg(req, "embedded_chunks", &records); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for i, record := range records {
		if record.ID == "" || len(record.Values) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("embedded chunk %d is missing id or embedding", i)), nil
		}
	}
	namespace := req.GetString("namespace", "")

	if len(records) == 0 {
		return mcp.NewToolResultText("Successfully upserted 0 records"), nil
	}

	count, err := s.index.Upsert(ctx, namespace, records)
	if err != nil {
		log.Error("Upsert failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("upsert failed: %v", err)), nil
	}
	log.Info("Upserted records", zap.Int("count", count), zap.String("namespace", namespace))

	return mcp.NewToolResultText(fmt.Sprintf("Successfully upserted %d records", count)), nil
}

func (s *Server) handleProcessDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("process-document")

	request, errResult := processRequest(req)
	if errResult != nil {
		return errResult, nil
	}

	result, err := s.processor.Process(ctx, *request)
	if err != nil {
		log.Error("Processing failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
	}
	log.Info("Processed document",
		zap.String("document_id", result.DocumentID),
		zap.Int("chunks", result.ChunkCount))

	return mcp.NewToolResultText(fmt.Sprintf(
		"Successfully processed document. The document ID is %s (%d chunks upserted)",
		result.DocumentID, result.UpsertedCount)), nil
}

// processRequest validates process-document arguments into a pipeline request
func processRequest(req mcp.CallToolRequest) (*pipeline.Request, *mcp.CallToolResult) {
	documentID, err := req.RequireString("document_id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	text, err := req.RequireString("text")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	metadata, err := objectArg(req, "metadata")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	if metadata == nil {
		return nil, mcp.NewToolResultError("metadata is required")
	}

	return &pipeline.Request{
		DocumentID: documentID,
		Text:       text,
		Namespace:  req.GetString("namespace", ""),
		Metadata:   metadata,
	}, nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("delete-document")

	documentID, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	namespace := req.GetString("namespace", "")

	ids, err := s.collectDocumentIDs(ctx, namespace, documentID)
	if err != nil {
		log.Error("Failed to list document vectors", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to list document vectors: %v", err)), nil
	}

	if err := s.index.Delete(ctx, namespace, ids); err != nil {
		log.Error("Delete failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	log.Info("Deleted document", zap.String("document_id", documentID), zap.Int("vectors", len(ids)))

	return mcp.NewToolResultText(fmt.Sprintf("Deleted %d vectors for document %s", len(ids), documentID)), nil
}

// collectDocumentIDs gathers the bare document id plus every chunk id under
// the document's "<id>#" prefix, walking all list pages.
func (s *Server) collectDocumentIDs(ctx context.Context, namespace, documentID string) ([]string, error) {
	ids := []string{documentID}
	token := ""
	for {
		page, err := s.index.List(ctx, namespace, documentID+"#", defaultListLimit, token)
		if err != nil {
			return nil, err
		}
		for _, id := range page.IDs {
			if id != documentID {
				ids = append(ids, id)
			}
		}
		if page.NextToken == "" {
			return ids, nil
		}
		token = page.NextToken
	}
}

func (s *Server) handlePineconeStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("pinecone-stats")

	stats, err := s.index.Stats(ctx)
	if err != nil {
		log.Error("Stats failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
