package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Transport selects how the server speaks MCP
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// DefaultSSEAddr is the listen address used when MCP_SSE_ADDR is unset
const DefaultSSEAddr = ":8080"

// Config holds everything the server needs, read once at startup. No part
// of the program reads the environment after construction.
type Config struct {
	PineconeAPIKey    string
	PineconeIndexName string

	// CreateIndex makes startup create the index if it does not exist.
	// Defaults to true.
	CreateIndex bool

	OpenAIAPIKey string

	// OpenAIBaseURL overrides the OpenAI endpoint, mainly for testing
	OpenAIBaseURL string

	// Transport is TransportStdio or TransportSSE
	Transport string

	// SSEAddr is the listen address when Transport is TransportSSE
	SSEAddr string
}

// FromEnv builds a Config from environment variables. All missing required
// variables are reported together in a single error.
func FromEnv() (*Config, error) {
	cfg := &Config{
		PineconeAPIKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndexName: os.Getenv("PINECONE_INDEX_NAME"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		Transport:         os.Getenv("MCP_TRANSPORT"),
		SSEAddr:           os.Getenv("MCP_SSE_ADDR"),
	}

	cfg.CreateIndex = true
	if v := os.Getenv("PINECONE_CREATE_INDEX"); v != "" {
		createIndex, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PINECONE_CREATE_INDEX value %q: %w", v, err)
		}
		cfg.CreateIndex = createIndex
	}

	var missing []string
	if cfg.PineconeAPIKey == "" {
		missing = append(missing, "PINECONE_API_KEY")
	}
	if cfg.PineconeIndexName == "" {
		missing = append(missing, "PINECONE_INDEX_NAME")
	}
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportSSE {
		return nil, fmt.Errorf("invalid MCP_TRANSPORT %q: must be %q or %q", cfg.Transport, TransportStdio, TransportSSE)
	}
	if cfg.SSEAddr == "" {
		cfg.SSEAddr = DefaultSSEAddr
	}

	return cfg, nil
}
