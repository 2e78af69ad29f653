// Command seed loads review records into MongoDB for the mongo review source.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/product-page/internal/infrastructure/feed"
	mongodoc "github.com/sngm3741/product-page/internal/infrastructure/mongo"
	"github.com/sngm3741/product-page/internal/public/domain"
)

type seedOptions struct {
	envFiles   []string
	file       string
	demo       int
	drop       bool
	randomSeed int64
	timeout    time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load review records into MongoDB",
		Long: `Reads the review data file (the array served at /data/reviews.json) and
inserts it into the review collection. --demo adds generated records on top.

MONGO_URI, MONGO_DB and REVIEW_COLLECTION select the target.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load before reading the environment")
	flags.StringVarP(&opts.file, "file", "f", "data/reviews.json", "review data file; empty to skip")
	flags.IntVar(&opts.demo, "demo", 0, "number of generated reviews to add")
	flags.BoolVar(&opts.drop, "drop", false, "drop the review collection first")
	flags.Int64Var(&opts.randomSeed, "seed", 20251014, "random seed for generated reviews")
	flags.DurationVar(&opts.timeout, "timeout", 60*time.Second, "overall timeout")
	return cmd
}

func runSeed(cmd *cobra.Command, opts seedOptions) error {
	for _, path := range opts.envFiles {
		if err := loadEnvFile(path); err != nil {
			return err
		}
	}
	records, err := collectRecords(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if len(records) == 0 && !opts.drop {
		return errors.New("nothing to seed: pass --file or --demo")
	}

	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "product-page")
	collection := envOrDefault("REVIEW_COLLECTION", "reviews")
	feedbackCollection := envOrDefault("FEEDBACK_COLLECTION", "feedback")

	ctx, cancel := context.WithTimeout(contextOrBackground(cmd.Context()), opts.timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(dbName)
	repo := mongodoc.NewReviewRepository(db, collection)
	if opts.drop {
		if err := repo.Drop(ctx); err != nil {
			return fmt.Errorf("drop reviews: %w", err)
		}
		cmd.Printf("dropped %s\n", collection)
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := mongodoc.NewFeedbackRepository(db, feedbackCollection).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure feedback indexes: %w", err)
	}
	inserted, err := repo.Insert(ctx, records)
	if err != nil {
		return fmt.Errorf("insert reviews: %w", err)
	}

	cmd.Printf("seed done: reviews=%d\n", inserted)
	cmd.Printf("mongo: %s / %s.%s\n", mongoURI, dbName, collection)
	return nil
}

// collectRecords reads the data file and appends generated reviews.
func collectRecords(ctx context.Context, opts seedOptions) ([]domain.Review, error) {
	var records []domain.Review
	if opts.file != "" {
		loaded, err := feed.FileSource{Path: opts.file}.Load(contextOrBackground(ctx))
		if err != nil {
			return nil, err
		}
		records = append(records, loaded...)
	}
	if opts.demo > 0 {
		rng := rand.New(rand.NewSource(opts.randomSeed))
		records = append(records, generateReviews(rng, opts.demo, time.Now().UTC())...)
	}
	return records, nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
