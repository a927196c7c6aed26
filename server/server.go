package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/greenhollow/pinecone-mcp/chunking"
	"github.com/greenhollow/pinecone-mcp/pipeline"
	"github.com/greenhollow/pinecone-mcp/types"
)

// Options configures the MCP server surface
type Options struct {
	Name    string
	Version string

	// EnableStreaming registers the experimental streaming tool variants.
	// Only useful with the SSE transport; stdio clients poll instead.
	EnableStreaming bool

	// Logger is optional. If nil, logging is disabled.
	Logger *zap.Logger
}

// Deps holds the collaborators the tool handlers call into
type Deps struct {
	Embedder  types.EmbeddingClient
	Index     types.VectorIndex
	Chunker   *chunking.Chunker
	Processor *pipeline.Processor
}

// Server wires Pinecone and OpenAI embeddings into MCP tools, prompts and
// resources. It holds no connection state itself; everything network-facing
// lives behind the Deps interfaces.
type Server struct {
	mcp       *server.MCPServer
	embedder  types.EmbeddingClient
	index     types.VectorIndex
	chunker   *chunking.Chunker
	processor *pipeline.Processor
	log       *zap.Logger
}

// New creates a Server and registers every tool, prompt and resource template
func New(opts Options, deps Deps) (*Server, error) {
	if deps.Embedder == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if deps.Index == nil {
		return nil, fmt.Errorf("vector index is required")
	}
	if deps.Chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if deps.Processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if opts.Name == "" {
		opts.Name = "pinecone-mcp"
	}
	if opts.Version == "" {
		opts.Version = "0.0.0"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		mcp: server.NewMCPServer(
			opts.Name,
			opts.Version,
			server.WithToolCapabilities(true),
			server.WithPromptCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
		),
		embedder:  deps.Embedder,
		index:     deps.Index,
		chunker:   deps.Chunker,
		processor: deps.Processor,
		log:       opts.Logger,
	}

	s.registerTools()
	s.registerPrompts()
	s.registerResources()
	if opts.EnableStreaming {
		s.registerStreamingTools()
	}

	return s, nil
}

// ServeStdio blocks serving MCP over stdin/stdout until the client disconnects
func (s *Server) ServeStdio() error {
	s.log.Info("Serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

// ServeSSE blocks serving MCP over HTTP server-sent events on addr
func (s *Server) ServeSSE(addr string) error {
	s.log.Info("Serving MCP over SSE", zap.String("addr", addr))
	sse := server.NewSSEServer(s.mcp)
	return sse.Start(addr)
}
