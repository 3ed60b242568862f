package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	sentimentclient "github.com/albertshoes/support/backend/internal/client/sentiment"
	"github.com/albertshoes/support/backend/internal/config"
	"github.com/albertshoes/support/backend/internal/handler"
	chathandler "github.com/albertshoes/support/backend/internal/handler/chat"
	"github.com/albertshoes/support/backend/internal/platform/httpserver"
	"github.com/albertshoes/support/backend/internal/platform/logger"
	chatservice "github.com/albertshoes/support/backend/internal/service/chat"
	"github.com/albertshoes/support/backend/internal/service/rag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envMissing := godotenv.Load() != nil

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Options{Service: "chatbot"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	// The sentiment API owns the default port; move over when unset.
	if strings.TrimSpace(os.Getenv("PORT")) == "" {
		cfg.Server.Addr = ":8081"
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "chatbot",
	})
	if envMissing {
		log.Warn().Msg("no .env file found, using system environment only")
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize chat model")
	}

	embedder, err := rag.NewEmbeddingClient(rag.EmbeddingConfig{
		BaseURL: cfg.RAG.EmbeddingBaseURL,
		APIKey:  cfg.RAG.EmbeddingAPIKey,
		Model:   cfg.RAG.EmbeddingModel,
		Timeout: cfg.RAG.EmbeddingTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize embedding client")
	}

	responder, err := rag.NewResponder(ctx, chatModel, embedder, rag.Config{
		DocumentPath: cfg.RAG.DocumentPath,
		ChunkSize:    cfg.RAG.ChunkSize,
		TopK:         cfg.RAG.TopK,
	}, logger.Named(log, "rag"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize responder")
	}

	sentClient := sentimentclient.New(cfg.SentimentAPI.BaseURL, cfg.SentimentAPI.Timeout, logger.Named(log, "sentiment-client"))
	chatSvc := chatservice.NewService()
	chatHandler := chathandler.New(chatSvc, responder, sentClient, cfg.SentimentAPI.Timeout, logger.Named(log, "http"))
	router := handler.NewChatRouter(chatHandler)

	if err := httpserver.Run(ctx, cfg.Server.Addr, router, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
