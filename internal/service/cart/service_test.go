package cart

import (
	"context"
	"errors"
	"testing"

	"esim-storefront/internal/domain"
)

type stubRepo struct {
	carts     map[string]*domain.Cart
	createErr error
	saves     int
	linked    map[string]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{carts: make(map[string]*domain.Cart), linked: make(map[string]string)}
}

func (s *stubRepo) GetBySession(_ context.Context, sessionID string) (*domain.Cart, error) {
	c, ok := s.carts[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	clone.Items = append([]domain.CartItem(nil), c.Items...)
	return &clone, nil
}

func (s *stubRepo) Create(_ context.Context, sessionID string, items []domain.CartItem) (*domain.Cart, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.carts[sessionID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	c := &domain.Cart{ID: "cart-" + sessionID, SessionID: sessionID, Items: items}
	s.carts[sessionID] = c
	return c, nil
}

func (s *stubRepo) SaveItems(_ context.Context, sessionID string, items []domain.CartItem) error {
	c, ok := s.carts[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.saves++
	c.Items = items
	return nil
}

func (s *stubRepo) LinkUser(_ context.Context, sessionID, userID string) (bool, error) {
	if _, ok := s.carts[sessionID]; !ok {
		return false, nil
	}
	s.linked[sessionID] = userID
	return true, nil
}

type stubPackages map[string]domain.Package

func (p stubPackages) GetPackageByCode(_ context.Context, code string) (*domain.Package, error) {
	pkg, ok := p[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &pkg, nil
}

func (p stubPackages) GetPackagesByCodes(_ context.Context, codes []string) ([]domain.Package, error) {
	var out []domain.Package
	for _, c := range codes {
		if pkg, ok := p[c]; ok {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func catalog() stubPackages {
	return stubPackages{
		"JP-1": {PackageCode: "JP-1", Name: "Japan 1GB", RetailPrice: 500},
		"KR-3": {PackageCode: "KR-3", Name: "Korea 3GB", RetailPrice: 1200},
	}
}

func TestAddToCartMergesRepeatedPackage(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, catalog(), nil)
	ctx := context.Background()

	res, err := svc.AddToCart(ctx, "s1", "JP-1", 2)
	if err != nil || res != AddCreated {
		t.Fatalf("first add: %v %v", res, err)
	}
	res, err = svc.AddToCart(ctx, "s1", "JP-1", 3)
	if err != nil || res != AddUpdated {
		t.Fatalf("second add: %v %v", res, err)
	}
	res, err = svc.AddToCart(ctx, "s1", "KR-3", 0)
	if err != nil || res != AddAdded {
		t.Fatalf("third add: %v %v", res, err)
	}

	items := repo.carts["s1"].Items
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %+v", items)
	}
	if items[0].PackageCode != "JP-1" || items[0].Quantity != 5 {
		t.Fatalf("expected merged JP-1 x5, got %+v", items[0])
	}
	if items[1].Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", items[1].Quantity)
	}
}

func TestAddToCartUnknownPackage(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, catalog(), nil)

	_, err := svc.AddToCart(context.Background(), "s1", "NOPE", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(repo.carts) != 0 {
		t.Fatalf("no cart should be created")
	}
}

func TestAddToCartRecoversFromCreateRace(t *testing.T) {
	repo := newStubRepo()
	repo.carts["s1"] = &domain.Cart{SessionID: "s1", Items: []domain.CartItem{{PackageCode: "JP-1", Quantity: 1}}}
	racing := &racingRepo{stubRepo: repo}
	svc := New(racing, catalog(), nil)

	res, err := svc.AddToCart(context.Background(), "s1", "JP-1", 1)
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if res != AddUpdated || repo.carts["s1"].Items[0].Quantity != 2 {
		t.Fatalf("expected merge after race, got %v %+v", res, repo.carts["s1"].Items)
	}
}

// racingRepo hides the cart on the first lookup as if it were created concurrently.
type racingRepo struct {
	*stubRepo
	looked bool
}

func (r *racingRepo) GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if !r.looked {
		r.looked = true
		return nil, domain.ErrNotFound
	}
	return r.stubRepo.GetBySession(ctx, sessionID)
}

func TestGetCartPricesAndDropsMissing(t *testing.T) {
	repo := newStubRepo()
	repo.carts["s1"] = &domain.Cart{SessionID: "s1", Items: []domain.CartItem{
		{PackageCode: "JP-1", Quantity: 2},
		{PackageCode: "GONE", Quantity: 4},
		{PackageCode: "KR-3", Quantity: 1},
	}}
	svc := New(repo, catalog(), nil)

	view, err := svc.GetCart(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 priced lines, got %+v", view.Items)
	}
	if view.Items[0].Subtotal != 1000 || view.Total != 2200 || view.ItemCount != 3 {
		t.Fatalf("unexpected totals %+v", view)
	}
	if len(view.Packages) != 2 || view.Packages[0].PackageCode != "JP-1" || view.Packages[1].PackageCode != "KR-3" {
		t.Fatalf("unexpected packages %+v", view.Packages)
	}
}

func TestGetCartEmpty(t *testing.T) {
	svc := New(newStubRepo(), catalog(), nil)
	view, err := svc.GetCart(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if view.Items == nil || len(view.Items) != 0 || view.Total != 0 {
		t.Fatalf("expected empty view, got %+v", view)
	}
	if view.Packages == nil || len(view.Packages) != 0 {
		t.Fatalf("expected empty packages, got %+v", view.Packages)
	}
}

func TestUpdateCartItem(t *testing.T) {
	repo := newStubRepo()
	repo.carts["s1"] = &domain.Cart{SessionID: "s1", Items: []domain.CartItem{
		{PackageCode: "JP-1", Quantity: 2},
		{PackageCode: "KR-3", Quantity: 1},
	}}
	svc := New(repo, catalog(), nil)
	ctx := context.Background()

	if err := svc.UpdateCartItem(ctx, "s1", "KR-3", 7); err != nil {
		t.Fatalf("UpdateCartItem: %v", err)
	}
	if got := repo.carts["s1"].Items[1].Quantity; got != 7 {
		t.Fatalf("expected overwrite to 7, got %d", got)
	}
	if err := svc.UpdateCartItem(ctx, "s1", "JP-1", 0); err != nil {
		t.Fatalf("UpdateCartItem: %v", err)
	}
	view, _ := svc.GetCart(ctx, "s1")
	for _, l := range view.Items {
		if l.PackageCode == "JP-1" {
			t.Fatalf("JP-1 should be removed")
		}
	}

	if err := svc.UpdateCartItem(ctx, "nobody", "JP-1", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing cart, got %v", err)
	}
}

func TestRemoveAndClearAreIdempotent(t *testing.T) {
	repo := newStubRepo()
	repo.carts["s1"] = &domain.Cart{SessionID: "s1", Items: []domain.CartItem{{PackageCode: "JP-1", Quantity: 1}}}
	svc := New(repo, catalog(), nil)
	ctx := context.Background()

	if err := svc.RemoveFromCart(ctx, "s1", "KR-3"); err != nil {
		t.Fatalf("remove absent line: %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("removing an absent line should not write")
	}
	if err := svc.RemoveFromCart(ctx, "nobody", "JP-1"); err != nil {
		t.Fatalf("remove from missing cart: %v", err)
	}
	if err := svc.ClearCart(ctx, "nobody"); err != nil {
		t.Fatalf("clear missing cart: %v", err)
	}
	if err := svc.ClearCart(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(repo.carts["s1"].Items) != 0 {
		t.Fatalf("expected empty cart")
	}
}

func TestLinkCartToUser(t *testing.T) {
	repo := newStubRepo()
	repo.carts["s1"] = &domain.Cart{SessionID: "s1"}
	svc := New(repo, catalog(), nil)

	if err := svc.LinkCartToUser(context.Background(), "s1", "u1"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := svc.LinkCartToUser(context.Background(), "none", "u1"); err != nil {
		t.Fatalf("link missing: %v", err)
	}
	if repo.linked["s1"] != "u1" || len(repo.linked) != 1 {
		t.Fatalf("unexpected links %+v", repo.linked)
	}
}
