package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("pinecone-query",
		mcp.WithPromptDescription("Search the Pinecone index and construct an answer based on relevant documents"),
		mcp.WithArgument("query",
			mcp.ArgumentDescription("The question to answer, or the context to search for"),
			mcp.RequiredArgument(),
		),
	), s.handleQueryPrompt)
}

func (s *Server) handleQueryPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	query := req.Params.Arguments["query"]
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	return mcp.NewGetPromptResult(
		"Search the knowledge base and answer from the retrieved documents",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
				"First use pinecone-stats to get a list of namespaces that might contain relevant documents. Ignore if a namespace is specified in the query",
			)),
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
				fmt.Sprintf("Do a semantic search for the query: %s with the chosen namespace", query),
			)),
		},
	), nil
}
