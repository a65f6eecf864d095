// Command seed copies a catalog file into the MongoDB tests collection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"timedquiz/internal/catalog"
	"timedquiz/internal/config"
	"timedquiz/internal/logger"
	"timedquiz/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	path := flag.String("file", cfg.CatalogPath, "catalog file to seed (.json, .yaml)")
	flag.Parse()

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI is required for seeding")
	}

	tests, err := catalog.ReadFile(*path)
	if err != nil {
		log.Fatal("failed to read catalog", zap.Error(err))
	}
	// reject duplicate ids before anything is written
	if _, err := catalog.New(tests); err != nil {
		log.Fatal("invalid catalog", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	repo := repository.NewTestRepo(client.Database(cfg.MongoDatabase))
	for i := range tests {
		existing, err := repo.GetByID(ctx, tests[i].ID)
		if err != nil {
			log.Fatal("failed to read test", zap.String("testId", tests[i].ID), zap.Error(err))
		}
		if err := repo.Upsert(ctx, &tests[i]); err != nil {
			log.Fatal("failed to seed test", zap.String("testId", tests[i].ID), zap.Error(err))
		}
		action := "created"
		if existing != nil {
			action = "updated"
		}
		log.Info("seeded test",
			zap.String("testId", tests[i].ID),
			zap.String("action", action),
			zap.String("status", string(tests[i].Status)),
			zap.Int("questions", len(tests[i].Questions)),
		)
	}

	log.Info("seeding complete", zap.Int("tests", len(tests)), zap.String("database", cfg.MongoDatabase))
}
