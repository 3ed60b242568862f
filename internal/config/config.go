package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every section used across the two services.
type Config struct {
	Server       ServerConfig
	Log          LogConfig
	AWS          AWSConfig
	AI           AIConfig
	RAG          RAGConfig
	SentimentAPI SentimentAPIConfig
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	rag, err := loadRAGConfig()
	if err != nil {
		return nil, err
	}

	sentimentAPI, err := loadSentimentAPIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:       server,
		Log:          loadLogConfig(),
		AWS:          loadAWSConfig(),
		AI:           ai,
		RAG:          rag,
		SentimentAPI: sentimentAPI,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr  string
	Debug bool
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return ServerConfig{}, err
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port, Debug: debug}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, Debug: debug}, nil
}

// LogConfig describes logger verbosity and output format.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "debug"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

// AWSConfig describes the managed Comprehend and DynamoDB dependencies.
type AWSConfig struct {
	Region          string
	Table           string
	AccessKeyID     string
	SecretAccessKey string
}

func loadAWSConfig() AWSConfig {
	return AWSConfig{
		Region:          getEnvOrDefault("AWS_REGION", "us-east-1"),
		Table:           getEnvOrDefault("DYNAMODB_TABLE", "albert-user-queries"),
		AccessKeyID:     strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY")),
	}
}

// StaticCredentials reports whether an explicit credential pair was supplied.
// When false the SDK falls back to its default provider chain.
func (c AWSConfig) StaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// AIConfig describes the hosted chat-model dependency.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && c.APIKey != ""
}

// NewChatModel builds a chat model instance from this section.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("chat model not configured: ARK_API_KEY and ARK_MODEL are required")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// RAGConfig describes the FAQ retrieval pipeline.
type RAGConfig struct {
	DocumentPath     string
	ChunkSize        int
	TopK             int
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string
	EmbeddingTimeout time.Duration
}

func loadRAGConfig() (RAGConfig, error) {
	chunkSize := 100
	if override, err := parseOptionalIntEnv("RAG_CHUNK_SIZE"); err != nil {
		return RAGConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return RAGConfig{}, fmt.Errorf("RAG_CHUNK_SIZE must be positive, got %d", *override)
		}
		chunkSize = *override
	}

	topK := 4
	if override, err := parseOptionalIntEnv("RAG_TOP_K"); err != nil {
		return RAGConfig{}, err
	} else if override != nil && *override > 0 {
		topK = *override
	}

	timeoutSecs := 30
	if override, err := parseOptionalIntEnv("EMBEDDING_TIMEOUT"); err != nil {
		return RAGConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSecs = *override
	}

	return RAGConfig{
		DocumentPath:     getEnvOrDefault("FAQ_PATH", "docs/faq_albert_shoes.txt"),
		ChunkSize:        chunkSize,
		TopK:             topK,
		EmbeddingBaseURL: getEnvOrDefault("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingAPIKey:  strings.TrimSpace(os.Getenv("EMBEDDING_API_KEY")),
		EmbeddingModel:   getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingTimeout: time.Duration(timeoutSecs) * time.Second,
	}, nil
}

// SentimentAPIConfig describes the best-effort sentiment logging side call.
type SentimentAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

func loadSentimentAPIConfig() (SentimentAPIConfig, error) {
	timeoutSecs := 3
	if override, err := parseOptionalIntEnv("SENTIMENT_API_TIMEOUT"); err != nil {
		return SentimentAPIConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSecs = *override
	}

	return SentimentAPIConfig{
		BaseURL: getEnvOrDefault("SENTIMENT_API_BASE_URL", "http://localhost:8080"),
		Timeout: time.Duration(timeoutSecs) * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
