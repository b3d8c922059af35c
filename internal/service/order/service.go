package order

import (
	"context"
	"strings"
	"time"

	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	orderrepo "esim-storefront/internal/repository/order"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// maxTxAttempts bounds how often a colliding transaction id is regenerated.
const maxTxAttempts = 3

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	CreateFromCart(ctx context.Context, o domain.Order, sessionID string) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error)
	GetByStripeSessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, patch domain.OrderStatusPatch, check orderrepo.StatusCheck) (*domain.Order, error)
}

type esimRepo interface {
	Create(ctx context.Context, e domain.Esim) (*domain.Esim, error)
	GetByID(ctx context.Context, id string) (*domain.Esim, error)
	GetByICCID(ctx context.Context, iccid string) (*domain.Esim, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Esim, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Esim, error)
	UpdateUsage(ctx context.Context, iccid string, patch domain.EsimUsagePatch) (*domain.Esim, error)
}

type cartRepo interface {
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
}

type packageRepo interface {
	GetPackageByCode(ctx context.Context, code string) (*domain.Package, error)
}

type userResolver interface {
	Resolve(ctx context.Context, email, clerkID string) (*domain.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
}

type Service struct {
	orders   orderRepo
	esims    esimRepo
	carts    cartRepo
	packages packageRepo
	users    userResolver
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
	newTxID  func(time.Time) (string, error)
}

func New(orders orderRepo, esims esimRepo, carts cartRepo, packages packageRepo, users userResolver, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		esims:    esims,
		carts:    carts,
		packages: packages,
		users:    users,
		validate: validator.New(),
		logger:   logging.OrNop(logger),
		now:      time.Now,
		newTxID:  NewTransactionID,
	}
}

// CreateInput describes a pre-priced order placed outside the cart flow,
// typically before redirecting to the payment processor.
type CreateInput struct {
	UserID          string             `json:"userId" validate:"required"`
	CustomerEmail   string             `json:"customerEmail" validate:"required,email"`
	Items           []domain.OrderItem `json:"items" validate:"required,min=1,dive"`
	TotalAmount     int64              `json:"totalAmount" validate:"gte=0"`
	StripeSessionID *string            `json:"stripeSessionId,omitempty"`
}

// CheckoutResult is returned by CreateOrderFromCart.
type CheckoutResult struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	TotalAmount   int64  `json:"totalAmount"`
}

// CreateOrder inserts a pending order with the supplied item snapshot.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (*domain.Order, error) {
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	if err := s.validate.Struct(in); err != nil {
		return nil, errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	o := domain.Order{
		UserID:          in.UserID,
		Status:          domain.OrderPending,
		TotalAmount:     in.TotalAmount,
		StripeSessionID: in.StripeSessionID,
		Items:           in.Items,
		CustomerEmail:   in.CustomerEmail,
	}
	return s.insert(ctx, o, s.orders.Create)
}

// CreateOrderFromCart checks out the session's cart without a payment step.
// Every line is re-priced from the catalog and the cart is emptied with the
// order insert.
func (s *Service) CreateOrderFromCart(ctx context.Context, sessionID, customerEmail, clerkID string) (*CheckoutResult, error) {
	cart, err := s.carts.GetBySession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrEmptyCart
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	var total int64
	for _, line := range cart.Items {
		p, err := s.packages.GetPackageByCode(ctx, line.PackageCode)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.PackageNotFoundError{Code: line.PackageCode}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load package %s", line.PackageCode)
		}
		items = append(items, domain.OrderItem{
			PackageCode:  p.PackageCode,
			PackageName:  p.Name,
			LocationName: p.LocationName,
			Quantity:     line.Quantity,
			UnitPrice:    p.RetailPrice,
			Volume:       p.Volume,
			Duration:     p.Duration,
		})
		total += p.RetailPrice * int64(line.Quantity)
	}

	// Resolving may create a guest, so it waits until every line is priced.
	user, err := s.users.Resolve(ctx, customerEmail, clerkID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve user")
	}
	email := strings.ToLower(strings.TrimSpace(customerEmail))
	if email == "" {
		email = user.Email
	}

	o := domain.Order{
		UserID:        user.ID,
		Status:        domain.OrderPaid,
		TotalAmount:   total,
		Items:         items,
		CustomerEmail: email,
	}
	created, err := s.insert(ctx, o, func(ctx context.Context, o domain.Order) (*domain.Order, error) {
		return s.orders.CreateFromCart(ctx, o, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{OrderID: created.ID, TransactionID: created.TransactionID, TotalAmount: created.TotalAmount}, nil
}

// insert assigns a transaction id and retries with a fresh one on collision.
func (s *Service) insert(ctx context.Context, o domain.Order, create func(context.Context, domain.Order) (*domain.Order, error)) (*domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		txID, err := s.newTxID(s.now())
		if err != nil {
			return nil, errors.Wrap(err, "generate transaction id")
		}
		o.TransactionID = txID
		created, err := create(ctx, o)
		if err == nil {
			s.logger.Info("order: created",
				zap.String("id", created.ID),
				zap.String("transaction_id", created.TransactionID),
				zap.String("status", string(created.Status)),
				zap.Int64("total", created.TotalAmount),
			)
			return created, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, errors.Wrap(err, "create order")
		}
		s.logger.Warn("order: transaction id collision", zap.String("transaction_id", txID), zap.Int("attempt", attempt+1))
		lastErr = err
	}
	return nil, errors.Wrap(lastErr, "create order")
}

// UpdateOrderStatus patches status and any supplied references. Omitted
// references keep their stored values.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, patch domain.OrderStatusPatch) (*domain.Order, error) {
	if !patch.Status.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown order status %q", patch.Status)
	}
	o, err := s.orders.UpdateStatus(ctx, id, patch, func(current domain.OrderStatus) error {
		if !current.CanTransition(patch.Status) {
			return errors.Wrapf(domain.ErrInvalidTransition, "%s to %s", current, patch.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order: status updated", zap.String("id", id), zap.String("status", string(o.Status)))
	return o, nil
}

// UpdateOrderStatusBySession applies a status patch to the order created for
// a payment-processor session.
func (s *Service) UpdateOrderStatusBySession(ctx context.Context, stripeSessionID string, patch domain.OrderStatusPatch) (*domain.Order, error) {
	o, err := s.orders.GetByStripeSessionID(ctx, stripeSessionID)
	if err != nil {
		return nil, err
	}
	return s.UpdateOrderStatus(ctx, o.ID, patch)
}

// CreateEsimRecord stores a profile reported by the provisioning integration.
func (s *Service) CreateEsimRecord(ctx context.Context, e domain.Esim) (*domain.Esim, error) {
	e.ICCID = strings.TrimSpace(e.ICCID)
	if e.ICCID == "" || e.OrderID == "" || e.UserID == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "iccid, order and user required")
	}
	if !e.Status.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown esim status %q", e.Status)
	}
	e.DataUsed = clampUsage(e.DataUsed, e.DataTotal)
	created, err := s.esims.Create(ctx, e)
	if err != nil {
		return nil, err
	}
	s.logger.Info("esim: recorded", zap.String("iccid", created.ICCID), zap.String("order_id", created.OrderID))
	return created, nil
}

// UsageUpdate is a status sync reported for one ICCID.
type UsageUpdate struct {
	Status      domain.EsimStatus `json:"status"`
	DataUsed    *int64            `json:"dataUsed,omitempty"`
	ActivatedAt *time.Time        `json:"activatedAt,omitempty"`
	ExpiresAt   *time.Time        `json:"expiresAt,omitempty"`
}

// UpdateEsimFromApi applies a provisioning sync. Unknown ICCIDs are ignored
// since syncs may arrive before the record is created; the returned esim is
// nil in that case.
func (s *Service) UpdateEsimFromApi(ctx context.Context, iccid string, in UsageUpdate) (*domain.Esim, error) {
	if !in.Status.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown esim status %q", in.Status)
	}
	current, err := s.esims.GetByICCID(ctx, iccid)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("esim: sync for unknown iccid", zap.String("iccid", iccid))
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load esim")
	}

	patch := domain.EsimUsagePatch{Status: in.Status, ActivatedAt: in.ActivatedAt, ExpiresAt: in.ExpiresAt}
	if in.DataUsed != nil {
		used := clampUsage(*in.DataUsed, current.DataTotal)
		patch.DataUsed = &used
	}
	updated, err := s.esims.UpdateUsage(ctx, iccid, patch)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return updated, err
}

// clampUsage caps used at total once the total is known.
func clampUsage(used, total int64) int64 {
	if used < 0 {
		return 0
	}
	if total > 0 && used > total {
		return total
	}
	return used
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) GetOrderByTransactionID(ctx context.Context, txID string) (*domain.Order, error) {
	return s.orders.GetByTransactionID(ctx, strings.ToUpper(strings.TrimSpace(txID)))
}

func (s *Service) GetOrderByStripeSession(ctx context.Context, stripeSessionID string) (*domain.Order, error) {
	return s.orders.GetByStripeSessionID(ctx, stripeSessionID)
}

func (s *Service) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListOrdersByClerkID returns no orders for an identity never seen at checkout.
func (s *Service) ListOrdersByClerkID(ctx context.Context, clerkID string) ([]domain.Order, error) {
	u, err := s.users.GetByClerkID(ctx, clerkID)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.orders.ListByUser(ctx, u.ID)
}

func (s *Service) GetEsim(ctx context.Context, id string) (*domain.Esim, error) {
	return s.esims.GetByID(ctx, id)
}

func (s *Service) ListEsimsByOrder(ctx context.Context, orderID string) ([]domain.Esim, error) {
	return s.esims.ListByOrder(ctx, orderID)
}

func (s *Service) ListEsimsByUser(ctx context.Context, userID string) ([]domain.Esim, error) {
	return s.esims.ListByUser(ctx, userID)
}

// ListEsimsByClerkID returns no esims for an identity never seen at checkout.
func (s *Service) ListEsimsByClerkID(ctx context.Context, clerkID string) ([]domain.Esim, error) {
	u, err := s.users.GetByClerkID(ctx, clerkID)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Esim{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.esims.ListByUser(ctx, u.ID)
}
