package order

import (
	"context"
	"errors"
	"testing"

	"esim-storefront/internal/db/dbtest"
	"esim-storefront/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

func insertUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx, `INSERT INTO users (id, email) VALUES (gen_random_uuid(), $1) RETURNING id::text`, email).Scan(&id); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func strPtr(v string) *string {
	return &v
}

func TestPostgres_CreateFromCartClearsCart(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)
	userID := insertUser(ctx, t, pool, "buyer@example.com")

	if _, err := pool.Exec(ctx, `INSERT INTO carts (id, session_id, items) VALUES (gen_random_uuid(), 'sess', '[{"packageCode":"JP-1","quantity":2}]'::jsonb)`); err != nil {
		t.Fatalf("insert cart: %v", err)
	}

	created, err := repo.CreateFromCart(ctx, domain.Order{
		UserID:        userID,
		TransactionID: "SIM-TEST-000001",
		Status:        domain.OrderPaid,
		TotalAmount:   900,
		CustomerEmail: "buyer@example.com",
		Items:         []domain.OrderItem{{PackageCode: "JP-1", PackageName: "Japan", Quantity: 2, UnitPrice: 450}},
	}, "sess")
	if err != nil {
		t.Fatalf("CreateFromCart: %v", err)
	}
	if created.Status != domain.OrderPaid || len(created.Items) != 1 {
		t.Fatalf("unexpected order %+v", created)
	}

	var items string
	if err := pool.QueryRow(ctx, `SELECT items::text FROM carts WHERE session_id = 'sess'`).Scan(&items); err != nil {
		t.Fatalf("read cart: %v", err)
	}
	if items != "[]" {
		t.Fatalf("expected cart emptied, got %s", items)
	}

	_, err = repo.Create(ctx, domain.Order{UserID: userID, TransactionID: "SIM-TEST-000001", Status: domain.OrderPending, CustomerEmail: "x"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate transaction id rejected, got %v", err)
	}
}

func TestPostgres_UpdateStatusPatchesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)
	userID := insertUser(ctx, t, pool, "p@example.com")

	o, err := repo.Create(ctx, domain.Order{
		UserID:          userID,
		TransactionID:   "SIM-TEST-000002",
		Status:          domain.OrderPending,
		StripeSessionID: strPtr("cs_123"),
		CustomerEmail:   "p@example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = repo.UpdateStatus(ctx, o.ID, domain.OrderStatusPatch{Status: domain.OrderPaid, StripePaymentIntentID: strPtr("pi_1")}, nil)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	updated, err := repo.UpdateStatus(ctx, o.ID, domain.OrderStatusPatch{Status: domain.OrderProcessing, OrderNo: strPtr("B-1")}, nil)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.StripePaymentIntentID == nil || *updated.StripePaymentIntentID != "pi_1" {
		t.Fatalf("payment intent cleared by omission: %+v", updated)
	}
	if updated.OrderNo == nil || *updated.OrderNo != "B-1" || updated.Status != domain.OrderProcessing {
		t.Fatalf("unexpected order %+v", updated)
	}

	bySession, err := repo.GetByStripeSessionID(ctx, "cs_123")
	if err != nil || bySession.ID != o.ID {
		t.Fatalf("GetByStripeSessionID: %+v %v", bySession, err)
	}

	rejected := errors.New("rejected")
	_, err = repo.UpdateStatus(ctx, o.ID, domain.OrderStatusPatch{Status: domain.OrderPending}, func(domain.OrderStatus) error { return rejected })
	if !errors.Is(err, rejected) {
		t.Fatalf("expected check error, got %v", err)
	}

	if _, err := repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", domain.OrderStatusPatch{Status: domain.OrderPaid}, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
