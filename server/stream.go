package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Streaming tool variants. These report progress through MCP progress
// notifications while the underlying work runs, then return the same final
// result as their plain counterparts. Registered only when streaming is
// enabled, since stdio clients rarely consume notifications mid-call.
func (s *Server) registerStreamingTools() {
	s.mcp.AddTool(mcp.NewTool("semantic-search-stream",
		mcp.WithDescription("Semantic search that reports progress while embedding and querying"),
		mcp.WithString("query", mcp.Required(), mcp.Description("The text to search for")),
		mcp.WithNumber("top_k", mcp.Description("Number of results to return (default 10)")),
		mcp.WithString("namespace", mcp.Description("Optional namespace to search in")),
		mcp.WithObject("filter", mcp.Description("Optional metadata filter, passed to the index as-is")),
	), s.handleSemanticSearchStream)

	s.mcp.AddTool(mcp.NewTool("process-document-stream",
		mcp.WithDescription("Process a document end to end, reporting progress per pipeline stage"),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Id for the document")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The document text")),
		mcp.WithObject("metadata", mcp.Required(), mcp.Description("Metadata to attach to every chunk")),
		mcp.WithString("namespace", mcp.Description("Optional namespace to store the document in")),
	), s.handleProcessDocumentStream)

	s.mcp.AddTool(mcp.NewTool("pinecone-stats-stream",
		mcp.WithDescription("Index stats with a progress notification while the index is described"),
	), s.handlePineconeStatsStream)
}

// notifyProgress sends an MCP progress notification if the request carries a
// progress token and the call arrived through a live server session.
func notifyProgress(ctx context.Context, req mcp.CallToolRequest, progress, total float64, message string) {
	if req.Params.Meta == nil || req.Params.Meta.ProgressToken == nil {
		return
	}
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return
	}
	// Notification delivery is best effort; a slow client must not fail the call.
	_ = srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
		"progressToken": req.Params.Meta.ProgressToken,
		"progress":      progress,
		"total":         total,
		"message":       message,
	})
}

func (s *Server) handleSemanticSearchStream(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("semantic-search-stream")

	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
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

	notifyProgress(ctx, req, 1, 3, "Embedding query")
	vector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Error("Failed to embed query", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to embed query: %v", err)), nil
	}

	notifyProgress(ctx, req, 2, 3, "Querying index")
	matches, err := s.index.Query(ctx, namespace, vector, topK, filter)
	if err != nil {
		log.Error("Query failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	notifyProgress(ctx, req, 3, 3, fmt.Sprintf("Found %d matches", len(matches)))
	return mcp.NewToolResultText(formatMatches(matches)), nil
}

func (s *Server) handleProcessDocumentStream(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("process-document-stream")

	request, errResult := processRequest(req)
	if errResult != nil {
		return errResult, nil
	}

	// Progress positions per pipeline stage; the terminal event is the 4th.
	stagePositions := map[string]float64{"chunk": 1, "embed": 2, "upsert": 3}

	for event := range s.processor.ProcessStream(ctx, *request) {
		switch {
		case event.Err != nil:
			log.Error("Processing failed", zap.Error(event.Err))
			return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", event.Err)), nil
		case event.Done:
			notifyProgress(ctx, req, 4, 4, "Done")
			return mcp.NewToolResultText(fmt.Sprintf(
				"Successfully processed document. The document ID is %s (%d chunks upserted)",
				event.Result.DocumentID, event.Result.UpsertedCount)), nil
		default:
			notifyProgress(ctx, req, stagePositions[event.Stage], 4, event.Message)
		}
	}

	// The producer stopped without a terminal event: the context was cancelled.
	return mcp.NewToolResultError("processing cancelled"), nil
}

func (s *Server) handlePineconeStatsStream(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.toolLogger("pinecone-stats-stream")

	notifyProgress(ctx, req, 1, 2, "Describing index")
	stats, err := s.index.Stats(ctx)
	if err != nil {
		log.Error("Stats failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	notifyProgress(ctx, req, 2, 2, "Done")
	data, err := json.Marshal(stats)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
