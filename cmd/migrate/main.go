package main

import (
	"context"
	"flag"
	"os"

	"esim-storefront/internal/config"
	"esim-storefront/internal/db"
	"esim-storefront/internal/logging"
	"esim-storefront/internal/migrate"
	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", "up", "up applies all migrations, down reverts the latest one, version prints the schema version")
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
	logger = logger.With(zap.String("component", "migrate"))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	switch *direction {
	case "up":
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	case "down":
		if err := migrate.Rollback(ctx, pool); err != nil {
			logger.Fatal("rollback migration", zap.Error(err))
		}
		logger.Info("latest migration reverted")
	case "version":
		v, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatal("read schema version", zap.Error(err))
		}
		logger.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	default:
		flag.Usage()
		pool.Close()
		os.Exit(2)
	}
}
