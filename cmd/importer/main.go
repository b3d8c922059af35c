package main

import (
	"context"
	"flag"
	"os"
	"time"

	"esim-storefront/internal/config"
	"esim-storefront/internal/db"
	"esim-storefront/internal/importer"
	"esim-storefront/internal/logging"
	catalogrepo "esim-storefront/internal/repository/catalog"
	catalogsvc "esim-storefront/internal/service/catalog"
	"go.uber.org/zap"
)

func main() {
	var (
		filePath  string
		batchSize int
	)
	flag.StringVar(&filePath, "file", "", "Path to a package or country CSV feed")
	flag.IntVar(&batchSize, "batch", importer.DefaultBatchSize, "Rows per batched upsert")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("component", "importer"))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	svc := catalogsvc.New(catalogrepo.NewPostgres(pool, logger), logger)
	imp := importer.NewCSVImporter(f, svc, batchSize)

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	logger.Info("import finished",
		zap.String("kind", string(res.Kind)),
		zap.Int("imported", res.Imported),
		zap.Int("countries_refreshed", res.Refreshed),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
	)
}
