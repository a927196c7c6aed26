package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/greenhollow/pinecone-mcp/types"
)

const vectorURIPrefix = "pinecone://vectors/"

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(mcp.NewResourceTemplate(
		vectorURIPrefix+"{id}",
		"Pinecone vector",
		mcp.WithTemplateDescription("A single vector's text and metadata from the Pinecone index"),
		mcp.WithTemplateMIMEType("text/plain"),
	), s.handleReadVector)
}

func (s *Server) handleReadVector(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(req.Params.URI, vectorURIPrefix)
	if id == "" || id == req.Params.URI {
		return nil, fmt.Errorf("invalid vector uri %q", req.Params.URI)
	}

	vectors, err := s.index.Fetch(ctx, "", []string{id})
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	vector, ok := vectors[id]
	if !ok {
		return nil, &types.NotFoundError{ID: id}
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     formatDocument(id, vector.Metadata),
		},
	}, nil
}
