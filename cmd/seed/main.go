package main

import (
	"context"
	"flag"
	"os"

	"esim-storefront/internal/config"
	"esim-storefront/internal/db"
	"esim-storefront/internal/logging"
	catalogrepo "esim-storefront/internal/repository/catalog"
	"esim-storefront/internal/seed"
	catalogsvc "esim-storefront/internal/service/catalog"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "YAML catalog to load instead of the built-in demo catalog")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("component", "seed"))

	catalog, err := loadCatalog(*file)
	if err != nil {
		logger.Fatal("load catalog", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	svc := catalogsvc.New(catalogrepo.NewPostgres(pool, logger), logger)
	if err := seed.Apply(ctx, svc, catalog, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}

func loadCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.Load(f)
}
