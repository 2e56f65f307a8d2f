package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"retail-assistant/handler"
	"retail-assistant/internal/embedding"
	"retail-assistant/internal/integrations/openai"
	"retail-assistant/internal/integrations/paramstore"
	"retail-assistant/internal/repository"
	"retail-assistant/internal/store/postgres"
	"retail-assistant/internal/tenant"
	"retail-assistant/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ---- Configuration (read only here) ----
	paramPrefix := strings.TrimRight(mustEnv("PARAM_PREFIX"), "/")
	customerMapTable := mustEnv("CUSTOMER_MAP_TABLE")
	embeddingEnabled := envBool("EMBEDDING_SEARCH_ENABLED", false)
	embeddingModel := envString("EMBEDDING_MODEL", embedding.DefaultModel)
	searchPageSize := envInt("SEARCH_PAGE_SIZE", 10)
	llmEnabled := envBool("LLM_ENABLED", true)
	llmTemperature := os.Getenv("LLM_TEMPERATURE")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	dsn, err := ssmClient.GetParameter(ctx, paramPrefix+"/database/dsn")
	if err != nil {
		slog.Error("failed to read database DSN", "err", err)
		os.Exit(1)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	store := postgres.New(db)

	customerMap, err := repository.New(awsdynamodb.NewFromConfig(cfg), customerMapTable)
	if err != nil {
		slog.Error("failed to create customer map client", "err", err)
		os.Exit(1)
	}
	resolver, err := tenant.NewResolver(customerMap)
	if err != nil {
		slog.Error("failed to create customer resolver", "err", err)
		os.Exit(1)
	}

	var openaiOpts []openai.Option
	if llmTemperature != "" {
		t, err := strconv.ParseFloat(llmTemperature, 64)
		if err != nil {
			slog.Error("invalid LLM_TEMPERATURE", "value", llmTemperature, "err", err)
			os.Exit(1)
		}
		openaiOpts = append(openaiOpts, openai.WithTemperature(t))
	}
	openaiClient, err := openai.NewClient(ssmClient, paramPrefix, openaiOpts...)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	// ---- Service ----
	opts := []usecase.Option{
		usecase.WithCatalog(store),
		usecase.WithCart(store),
		usecase.WithOrders(store),
		usecase.WithCustomerResolver(resolver),
		usecase.WithSearchPageSize(searchPageSize),
		usecase.WithLogger(logger),
	}
	if llmEnabled {
		opts = append(opts, usecase.WithLLM(openaiClient, ssmClient, paramPrefix))
	}
	if embeddingEnabled {
		searcher, err := embedding.NewSearcher(openaiClient, store, embeddingModel)
		if err != nil {
			slog.Error("failed to create embedding searcher", "err", err)
			os.Exit(1)
		}
		opts = append(opts, usecase.WithEmbeddingSearch(searcher))
	}
	chatService := usecase.NewChatService(opts...)

	// ---- Handler ----
	h, err := handler.NewHandler(chatService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
