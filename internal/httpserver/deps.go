package httpserver

import (
	"context"

	"esim-storefront/internal/domain"
	cartsvc "esim-storefront/internal/service/cart"
	catalogsvc "esim-storefront/internal/service/catalog"
	ordersvc "esim-storefront/internal/service/order"
	waitlistsvc "esim-storefront/internal/service/waitlist"
)

// Deps are the services the router dispatches to.
type Deps struct {
	CatalogSvc  CatalogService
	CartSvc     CartService
	OrderSvc    OrderService
	UserSvc     UserService
	WaitlistSvc WaitlistService
	QR          QRRenderer
}

type CatalogService interface {
	ListCountries(ctx context.Context, filter catalogsvc.CountryFilter) ([]domain.Country, error)
	GetCountryByCode(ctx context.Context, code string) (*domain.Country, error)
	ListPackagesByLocation(ctx context.Context, code string) ([]domain.Package, error)
	GetPackageByCode(ctx context.Context, code string) (*domain.Package, error)
	GetPackagesByCodes(ctx context.Context, codes []string) ([]domain.Package, error)
	Search(ctx context.Context, text string) ([]domain.Package, error)
	ListBundles(ctx context.Context) ([]domain.Country, error)
	GetBundle(ctx context.Context, codeOrSlug string) (*domain.Country, error)
	GetBundlePackages(ctx context.Context, codeOrSlug string) ([]domain.Package, error)
	UpsertPackage(ctx context.Context, p domain.Package) (*domain.Package, error)
	UpsertPackages(ctx context.Context, packages []domain.Package) (int, error)
	UpsertCountry(ctx context.Context, c domain.Country) (*domain.Country, error)
	UpsertCountries(ctx context.Context, countries []domain.Country) (int, error)
	RefreshCountryStats(ctx context.Context) (int, error)
}

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*cartsvc.View, error)
	AddToCart(ctx context.Context, sessionID, packageCode string, quantity int) (cartsvc.AddResult, error)
	UpdateCartItem(ctx context.Context, sessionID, packageCode string, quantity int) error
	RemoveFromCart(ctx context.Context, sessionID, packageCode string) error
	ClearCart(ctx context.Context, sessionID string) error
	LinkCartToUser(ctx context.Context, sessionID, userID string) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateInput) (*domain.Order, error)
	CreateOrderFromCart(ctx context.Context, sessionID, customerEmail, clerkID string) (*ordersvc.CheckoutResult, error)
	UpdateOrderStatus(ctx context.Context, id string, patch domain.OrderStatusPatch) (*domain.Order, error)
	UpdateOrderStatusBySession(ctx context.Context, stripeSessionID string, patch domain.OrderStatusPatch) (*domain.Order, error)
	CreateEsimRecord(ctx context.Context, e domain.Esim) (*domain.Esim, error)
	UpdateEsimFromApi(ctx context.Context, iccid string, in ordersvc.UsageUpdate) (*domain.Esim, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByTransactionID(ctx context.Context, txID string) (*domain.Order, error)
	GetOrderByStripeSession(ctx context.Context, stripeSessionID string) (*domain.Order, error)
	ListOrdersByClerkID(ctx context.Context, clerkID string) ([]domain.Order, error)
	GetEsim(ctx context.Context, id string) (*domain.Esim, error)
	ListEsimsByOrder(ctx context.Context, orderID string) ([]domain.Esim, error)
	ListEsimsByClerkID(ctx context.Context, clerkID string) ([]domain.Esim, error)
}

type UserService interface {
	SyncIdentity(ctx context.Context, clerkID, email, name string) (*domain.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
}

type WaitlistService interface {
	Join(ctx context.Context, email string) (*waitlistsvc.JoinResult, error)
	Count(ctx context.Context) (int64, error)
}

type QRRenderer interface {
	PNG(activationCode string) ([]byte, error)
}
