package cart

import (
	"context"
	"strings"

	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type cartRepo interface {
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
	Create(ctx context.Context, sessionID string, items []domain.CartItem) (*domain.Cart, error)
	SaveItems(ctx context.Context, sessionID string, items []domain.CartItem) error
	LinkUser(ctx context.Context, sessionID, userID string) (bool, error)
}

type packageRepo interface {
	GetPackageByCode(ctx context.Context, code string) (*domain.Package, error)
	GetPackagesByCodes(ctx context.Context, codes []string) ([]domain.Package, error)
}

// AddResult reports which branch AddToCart took.
type AddResult string

const (
	AddCreated AddResult = "created"
	AddUpdated AddResult = "updated"
	AddAdded   AddResult = "added"
)

type Service struct {
	repo     cartRepo
	packages packageRepo
	logger   *zap.Logger
}

func New(repo cartRepo, packages packageRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, packages: packages, logger: logging.OrNop(logger)}
}

// Line is a cart item priced against the live catalog.
type Line struct {
	PackageCode string         `json:"packageCode"`
	Quantity    int            `json:"quantity"`
	Package     domain.Package `json:"package"`
	Subtotal    int64          `json:"subtotal"`
}

// View is the priced read model of a session cart. Packages lists each
// surviving line's package once, in cart order.
type View struct {
	Items     []Line           `json:"items"`
	Packages  []domain.Package `json:"packages"`
	Total     int64            `json:"total"`
	ItemCount int              `json:"itemCount"`
}

// GetCart prices the session's cart. Lines whose package left the catalog
// are omitted rather than reported.
func (s *Service) GetCart(ctx context.Context, sessionID string) (*View, error) {
	view := &View{Items: []Line{}, Packages: []domain.Package{}}
	cart, err := s.repo.GetBySession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(cart.Items) == 0 {
		return view, nil
	}

	codes := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		codes = append(codes, it.PackageCode)
	}
	pkgs, err := s.packages.GetPackagesByCodes(ctx, codes)
	if err != nil {
		return nil, errors.Wrap(err, "load cart packages")
	}
	byCode := make(map[string]domain.Package, len(pkgs))
	for _, p := range pkgs {
		byCode[p.PackageCode] = p
	}

	for _, it := range cart.Items {
		p, ok := byCode[it.PackageCode]
		if !ok {
			s.logger.Debug("cart: dropping missing package", zap.String("session", sessionID), zap.String("package", it.PackageCode))
			continue
		}
		line := Line{
			PackageCode: it.PackageCode,
			Quantity:    it.Quantity,
			Package:     p,
			Subtotal:    p.RetailPrice * int64(it.Quantity),
		}
		view.Items = append(view.Items, line)
		view.Packages = append(view.Packages, p)
		view.Total += line.Subtotal
		view.ItemCount += it.Quantity
	}
	return view, nil
}

// AddToCart adds quantity of a package, creating the cart on first use. A
// package already in the cart has its quantity increased.
func (s *Service) AddToCart(ctx context.Context, sessionID, packageCode string, quantity int) (AddResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	packageCode = strings.TrimSpace(packageCode)
	if sessionID == "" || packageCode == "" {
		return "", errors.Wrap(domain.ErrInvalidInput, "session and package required")
	}
	if quantity <= 0 {
		quantity = 1
	}
	if _, err := s.packages.GetPackageByCode(ctx, packageCode); err != nil {
		return "", errors.Wrapf(err, "package %s", packageCode)
	}

	cart, err := s.repo.GetBySession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		_, err = s.repo.Create(ctx, sessionID, []domain.CartItem{{PackageCode: packageCode, Quantity: quantity}})
		if err == nil {
			return AddCreated, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return "", errors.Wrap(err, "create cart")
		}
		// Another request created the cart first; merge into it.
		cart, err = s.repo.GetBySession(ctx, sessionID)
	}
	if err != nil {
		return "", errors.Wrap(err, "load cart")
	}

	items, result := addItem(cart.Items, packageCode, quantity)
	if err := s.repo.SaveItems(ctx, sessionID, items); err != nil {
		return "", errors.Wrap(err, "save cart")
	}
	return result, nil
}

// UpdateCartItem overwrites a line's quantity. A quantity of zero or less
// removes the line.
func (s *Service) UpdateCartItem(ctx context.Context, sessionID, packageCode string, quantity int) error {
	cart, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}
	var items []domain.CartItem
	if quantity <= 0 {
		items = removeItem(cart.Items, packageCode)
	} else {
		items = setItem(cart.Items, packageCode, quantity)
	}
	return errors.Wrap(s.repo.SaveItems(ctx, sessionID, items), "save cart")
}

func (s *Service) RemoveFromCart(ctx context.Context, sessionID, packageCode string) error {
	cart, err := s.repo.GetBySession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "load cart")
	}
	items := removeItem(cart.Items, packageCode)
	if len(items) == len(cart.Items) {
		return nil
	}
	return errors.Wrap(s.repo.SaveItems(ctx, sessionID, items), "save cart")
}

func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	err := s.repo.SaveItems(ctx, sessionID, []domain.CartItem{})
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return errors.Wrap(err, "clear cart")
}

// LinkCartToUser attaches userID to the session's cart when one exists.
func (s *Service) LinkCartToUser(ctx context.Context, sessionID, userID string) error {
	linked, err := s.repo.LinkUser(ctx, sessionID, userID)
	if err != nil {
		return errors.Wrap(err, "link cart")
	}
	if linked {
		s.logger.Info("cart: linked to user", zap.String("session", sessionID), zap.String("user", userID))
	}
	return nil
}

func addItem(items []domain.CartItem, code string, qty int) ([]domain.CartItem, AddResult) {
	out := make([]domain.CartItem, len(items), len(items)+1)
	copy(out, items)
	for i := range out {
		if out[i].PackageCode == code {
			out[i].Quantity += qty
			return out, AddUpdated
		}
	}
	return append(out, domain.CartItem{PackageCode: code, Quantity: qty}), AddAdded
}

// setItem is a no-op for a code not in the cart.
func setItem(items []domain.CartItem, code string, qty int) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].PackageCode == code {
			out[i].Quantity = qty
		}
	}
	return out
}

func removeItem(items []domain.CartItem, code string) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		if it.PackageCode != code {
			out = append(out, it)
		}
	}
	return out
}
