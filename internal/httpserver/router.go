package httpserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Options carries the router settings that are not services.
type Options struct {
	CORSOrigins    []string
	InternalAPIKey string
	// Identity may be nil, in which case every caller is anonymous.
	Identity    *IdentityVerifier
	Placeholder string
}

type api struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.CatalogSvc == nil || deps.CartSvc == nil || deps.OrderSvc == nil ||
		deps.UserSvc == nil || deps.WaitlistSvc == nil || deps.QR == nil {
		return nil, errors.New("httpserver: all services are required")
	}
	if opts.Placeholder == "" {
		opts.Placeholder = "/coming-soon"
	}
	a := &api{deps: deps, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Authorization", "Content-Type", sessionHeader},
			AllowCredentials: true,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET(opts.Placeholder, comingSoonHandler)

	pub := router.Group("/api", identityMiddleware(opts.Identity))
	{
		pub.GET("/countries", a.listCountries)
		pub.GET("/countries/:code", a.getCountry)
		pub.GET("/countries/:code/packages", a.listCountryPackages)
		pub.GET("/packages", a.listPackages)
		pub.GET("/packages/:code", a.getPackage)
		pub.GET("/search", a.search)
		pub.GET("/bundles", a.listBundles)
		pub.GET("/bundles/:ref", a.getBundle)

		pub.GET("/cart", a.getCart)
		cart := pub.Group("/cart", requireSession)
		cart.POST("/items", a.addToCart)
		cart.PATCH("/items/:code", a.updateCartItem)
		cart.DELETE("/items/:code", a.removeFromCart)
		cart.DELETE("", a.clearCart)
		cart.POST("/link", requireIdentity, a.linkCart)
		pub.POST("/checkout", requireSession, a.checkout)

		me := pub.Group("/me", requireIdentity)
		me.POST("/sync", a.syncMe)
		me.GET("/orders", a.myOrders)
		me.GET("/esims", a.myEsims)

		pub.GET("/orders/:id", a.getOrder)
		pub.GET("/orders/:id/esims", a.listOrderEsims)
		pub.GET("/transactions/:txid", a.getOrderByTransaction)
		pub.GET("/esims/:id", a.getEsim)
		pub.GET("/esims/:id/qr.png", a.esimQR)

		pub.POST("/waitlist", a.joinWaitlist)
		pub.GET("/waitlist/count", a.waitlistCount)
	}

	internal := router.Group("/api/internal", internalKeyMiddleware(opts.InternalAPIKey))
	{
		internal.POST("/orders", a.createOrder)
		internal.PATCH("/orders/:id/status", a.updateOrderStatus)
		internal.GET("/payment-sessions/:sessionId", a.getOrderByPaymentSession)
		internal.PATCH("/payment-sessions/:sessionId/status", a.updateOrderStatusByPaymentSession)
		internal.POST("/esims", a.createEsim)
		internal.PATCH("/esims/:iccid/usage", a.updateEsimUsage)
		internal.PUT("/packages", a.upsertPackage)
		internal.POST("/packages/batch", a.upsertPackages)
		internal.PUT("/countries", a.upsertCountry)
		internal.POST("/countries/batch", a.upsertCountries)
		internal.POST("/catalog/refresh", a.refreshCatalog)
	}

	return router, nil
}
