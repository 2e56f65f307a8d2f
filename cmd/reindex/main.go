// Command reindex rebuilds the product embedding index from the catalog.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"retail-assistant/internal/embedding"
	"retail-assistant/internal/integrations/openai"
	"retail-assistant/internal/integrations/paramstore"
	"retail-assistant/internal/store/postgres"
)

// progressEvery controls how often progress is logged.
const progressEvery = 10

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	paramPrefix := strings.TrimRight(mustEnv("PARAM_PREFIX"), "/")
	model := os.Getenv("EMBEDDING_MODEL")

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}
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
	defer db.Close()
	store := postgres.New(db)

	openaiClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	indexer, err := embedding.NewIndexer(openaiClient, store, model, embedding.WithIndexerLogger(logger))
	if err != nil {
		slog.Error("failed to create indexer", "err", err)
		os.Exit(1)
	}

	res, err := indexer.Reindex(ctx, store, func(p embedding.Progress) {
		if p.Current%progressEvery == 0 || p.Current == p.Total {
			slog.Info("reindex progress", "current", p.Current, "total", p.Total,
				"percent", int(p.Percentage()), "failed", p.Failed)
		}
	})
	if err != nil {
		slog.Error("reindex failed", "err", err)
		os.Exit(1)
	}
	for _, e := range res.Errors {
		slog.Warn("product not indexed", "detail", e)
	}
	if res.Failed > 0 && res.Indexed == 0 {
		os.Exit(1)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
