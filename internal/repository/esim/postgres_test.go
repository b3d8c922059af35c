package esim

import (
	"context"
	"errors"
	"testing"
	"time"

	"esim-storefront/internal/db/dbtest"
	"esim-storefront/internal/domain"
)

func TestPostgres_CreateAndUpdateUsage(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	var userID, orderID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (id, email) VALUES (gen_random_uuid(), 'e@example.com') RETURNING id::text`).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	err := pool.QueryRow(ctx, `
INSERT INTO orders (id, user_id, transaction_id, status, total_amount, items, customer_email)
VALUES (gen_random_uuid(), $1, 'SIM-ESIM-1', 'paid', 450, '[]'::jsonb, 'e@example.com')
RETURNING id::text`, userID).Scan(&orderID)
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}

	created, err := repo.Create(ctx, domain.Esim{
		OrderID:        orderID,
		UserID:         userID,
		ICCID:          "8988000000000000001",
		ActivationCode: "LPA:1$smdp.example$ABC",
		Status:         domain.EsimGotResource,
		PackageCode:    "JP-1",
		PackageName:    "Japan 1GB",
		DataTotal:      1 << 30,
		Duration:       7,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.Create(ctx, domain.Esim{OrderID: orderID, UserID: userID, ICCID: created.ICCID, Status: domain.EsimCreate}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate iccid rejected, got %v", err)
	}

	used := int64(1024)
	activated := time.Now().UTC().Truncate(time.Second)
	updated, err := repo.UpdateUsage(ctx, created.ICCID, domain.EsimUsagePatch{Status: domain.EsimInUse, DataUsed: &used, ActivatedAt: &activated})
	if err != nil {
		t.Fatalf("UpdateUsage: %v", err)
	}
	if updated.Status != domain.EsimInUse || updated.DataUsed != 1024 || updated.ActivatedAt == nil || updated.ExpiresAt != nil {
		t.Fatalf("unexpected esim %+v", updated)
	}

	if _, err := repo.UpdateUsage(ctx, "unknown", domain.EsimUsagePatch{Status: domain.EsimInUse}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	list, err := repo.ListByOrder(ctx, orderID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByOrder: %+v %v", list, err)
	}
}
