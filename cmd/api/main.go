package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"esim-storefront/internal/config"
	"esim-storefront/internal/db"
	"esim-storefront/internal/gate"
	"esim-storefront/internal/httpserver"
	"esim-storefront/internal/logging"
	"esim-storefront/internal/qrcode"
	cartrepo "esim-storefront/internal/repository/cart"
	catalogrepo "esim-storefront/internal/repository/catalog"
	esimrepo "esim-storefront/internal/repository/esim"
	orderrepo "esim-storefront/internal/repository/order"
	userrepo "esim-storefront/internal/repository/user"
	waitlistrepo "esim-storefront/internal/repository/waitlist"
	cartsvc "esim-storefront/internal/service/cart"
	catalogsvc "esim-storefront/internal/service/catalog"
	ordersvc "esim-storefront/internal/service/order"
	usersvc "esim-storefront/internal/service/user"
	waitlistsvc "esim-storefront/internal/service/waitlist"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("component", "api"))

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	catalogService := catalogsvc.New(catalogrepo.NewPostgres(dbpool, logger), logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	cartService := cartsvc.New(cartRepo, catalogService, logger)
	userService := usersvc.New(userrepo.NewPostgres(dbpool, logger), logger)
	orderService := ordersvc.New(
		orderrepo.NewPostgres(dbpool, logger),
		esimrepo.NewPostgres(dbpool, logger),
		cartRepo,
		catalogService,
		userService,
		logger,
	)
	waitlistService := waitlistsvc.New(waitlistrepo.NewPostgres(dbpool, logger), logger)

	opts := httpserver.Options{
		CORSOrigins:    cfg.CORSOrigins,
		InternalAPIKey: cfg.InternalAPIKey,
	}
	if cfg.Identity.PublicKey != "" {
		opts.Identity, err = httpserver.NewIdentityVerifier(cfg.Identity.PublicKey, cfg.Identity.Issuer)
		if err != nil {
			logger.Fatal("init identity verifier", zap.Error(err))
		}
	} else {
		logger.Warn("identity public key not set; signed-in routes are unavailable")
	}
	if cfg.InternalAPIKey == "" {
		logger.Warn("internal api key not set; sync and provisioning routes are disabled")
	}

	var g *gate.Gate
	if cfg.Gate.Enabled {
		g = gate.New(gate.Mode(cfg.Gate.Mode), cfg.Gate.Placeholder)
		logger.Info("coming-soon gate enabled", zap.String("mode", cfg.Gate.Mode), zap.String("placeholder", g.Placeholder()))
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CatalogSvc:  catalogService,
		CartSvc:     cartService,
		OrderSvc:    orderService,
		UserSvc:     userService,
		WaitlistSvc: waitlistService,
		QR:          qrcode.New(cfg.QRCodeSize, "M"),
	}, opts, g)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
