package main

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/config"
	"github.com/sngm3741/product-page/internal/observability"
	"github.com/sngm3741/product-page/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var client *mongo.Client
	if cfg.MongoEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err = mongo.Connect(ctx, clientOptions)
		cancel()
		if err != nil {
			logger.Fatal("mongodb connect failed", zap.Error(err))
		}
	}

	app, err := server.New(cfg, logger, client)
	if err != nil {
		logger.Fatal("server setup failed", zap.Error(err))
	}
	if err := app.Run(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
