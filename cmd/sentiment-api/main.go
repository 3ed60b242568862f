package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/albertshoes/support/backend/internal/config"
	"github.com/albertshoes/support/backend/internal/gateway/sentiment"
	"github.com/albertshoes/support/backend/internal/gateway/storage"
	"github.com/albertshoes/support/backend/internal/handler"
	queryhandler "github.com/albertshoes/support/backend/internal/handler/query"
	"github.com/albertshoes/support/backend/internal/platform/httpserver"
	"github.com/albertshoes/support/backend/internal/platform/logger"
	queryservice "github.com/albertshoes/support/backend/internal/service/query"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envMissing := godotenv.Load() != nil

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Options{Service: "sentiment-api"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "sentiment-api",
	})
	if envMissing {
		log.Warn().Msg("no .env file found, using system environment only")
	}

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.StaticCredentials() {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS configuration")
	}

	store := storage.New(dynamodb.NewFromConfig(awsCfg), cfg.AWS.Table, logger.Named(log, "storage"))
	if err := store.EnsureTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to provision table")
	}

	analyzer := sentiment.New(comprehend.NewFromConfig(awsCfg), logger.Named(log, "sentiment"))
	querySvc := queryservice.NewService(analyzer, store, logger.Named(log, "query"))
	router := handler.NewAPIRouter(queryhandler.New(querySvc, logger.Named(log, "http")))

	if err := httpserver.Run(ctx, cfg.Server.Addr, router, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
