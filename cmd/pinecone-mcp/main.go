package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/greenhollow/pinecone-mcp/adapters"
	"github.com/greenhollow/pinecone-mcp/chunking"
	"github.com/greenhollow/pinecone-mcp/clients/openaiembed"
	pineconeclient "github.com/greenhollow/pinecone-mcp/clients/pinecone"
	"github.com/greenhollow/pinecone-mcp/config"
	"github.com/greenhollow/pinecone-mcp/pipeline"
	"github.com/greenhollow/pinecone-mcp/server"
)

const (
	serverName    = "pinecone-mcp"
	serverVersion = "0.1.0"
)

func main() {
	// Optional: credentials usually arrive through the MCP host's env instead
	_ = godotenv.Load()

	// Logs go to stderr; stdout carries the MCP protocol.
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pineconeSvc, err := pineconeclient.NewService(ctx, pineconeclient.Config{
		APIKey:          cfg.PineconeAPIKey,
		IndexName:       cfg.PineconeIndexName,
		CreateIfMissing: cfg.CreateIndex,
		Logger:          log,
	})
	if err != nil {
		return err
	}

	embeddingClient, err := openaiembed.NewClient(openaiembed.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		return err
	}

	chunker, err := chunking.New(chunking.Config{})
	if err != nil {
		return err
	}

	embedder := adapters.NewOpenAIEmbeddingAdapter(embeddingClient)
	index := adapters.NewPineconeIndexAdapter(pineconeSvc)

	processor, err := pipeline.New(pipeline.Config{
		Chunker:  chunker,
		Embedder: embedder,
		Index:    index,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Name:            serverName,
		Version:         serverVersion,
		EnableStreaming: cfg.Transport == config.TransportSSE,
		Logger:          log,
	}, server.Deps{
		Embedder:  embedder,
		Index:     index,
		Chunker:   chunker,
		Processor: processor,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.Transport == config.TransportSSE {
			errCh <- srv.ServeSSE(cfg.SSEAddr)
		} else {
			errCh <- srv.ServeStdio()
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
