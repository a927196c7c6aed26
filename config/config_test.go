package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PINECONE_API_KEY", "pc-key")
	t.Setenv("PINECONE_INDEX_NAME", "docs")
	t.Setenv("OPENAI_API_KEY", "oa-key")
}

func clearAll(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PINECONE_API_KEY", "PINECONE_INDEX_NAME", "PINECONE_CREATE_INDEX",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "MCP_TRANSPORT", "MCP_SSE_ADDR",
	} {
		t.Setenv(name, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearAll(t)
	setRequired(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.Transport != TransportStdio {
		t.Errorf("Expected default transport stdio, got %q", cfg.Transport)
	}
	if cfg.SSEAddr != DefaultSSEAddr {
		t.Errorf("Expected default SSE addr %q, got %q", DefaultSSEAddr, cfg.SSEAddr)
	}
	if !cfg.CreateIndex {
		t.Error("Expected CreateIndex to default to true")
	}
}

func TestFromEnv_ReportsAllMissingVars(t *testing.T) {
	clearAll(t)
	t.Setenv("PINECONE_API_KEY", "pc-key")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("Expected an error for missing variables")
	}
	msg := err.Error()
	if !strings.Contains(msg, "PINECONE_INDEX_NAME") || !strings.Contains(msg, "OPENAI_API_KEY") {
		t.Errorf("Expected error to name every missing variable, got: %v", err)
	}
	if strings.Contains(msg, "PINECONE_API_KEY") {
		t.Errorf("Error should not name variables that are set, got: %v", err)
	}
}

func TestFromEnv_SSETransport(t *testing.T) {
	clearAll(t)
	setRequired(t)
	t.Setenv("MCP_TRANSPORT", "sse")
	t.Setenv("MCP_SSE_ADDR", ":9090")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Transport != TransportSSE {
		t.Errorf("Expected transport sse, got %q", cfg.Transport)
	}
	if cfg.SSEAddr != ":9090" {
		t.Errorf("Expected SSE addr :9090, got %q", cfg.SSEAddr)
	}
}

func TestFromEnv_InvalidTransport(t *testing.T) {
	clearAll(t)
	setRequired(t)
	t.Setenv("MCP_TRANSPORT", "websocket")

	if _, err := FromEnv(); err == nil {
		t.Fatal("Expected an error for an unknown transport")
	}
}

func TestFromEnv_CreateIndex(t *testing.T) {
	clearAll(t)
	setRequired(t)
	t.Setenv("PINECONE_CREATE_INDEX", "false")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.CreateIndex {
		t.Error("Expected CreateIndex false when explicitly disabled")
	}

	t.Setenv("PINECONE_CREATE_INDEX", "sometimes")
	if _, err := FromEnv(); err == nil {
		t.Fatal("Expected an error for a non-boolean PINECONE_CREATE_INDEX")
	}
}
