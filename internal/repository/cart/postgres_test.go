package cart

import (
	"context"
	"errors"
	"testing"

	"esim-storefront/internal/db/dbtest"
	"esim-storefront/internal/domain"
)

func TestPostgres_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t), nil)

	created, err := repo.Create(ctx, "sess-1", []domain.CartItem{{PackageCode: "JP-1", Quantity: 2}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.SessionID != "sess-1" || len(created.Items) != 1 {
		t.Fatalf("unexpected cart %+v", created)
	}

	if _, err := repo.Create(ctx, "sess-1", nil); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	fetched, err := repo.GetBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if fetched.ID != created.ID || fetched.Items[0].Quantity != 2 {
		t.Fatalf("fetched mismatch %+v", fetched)
	}

	if _, err := repo.GetBySession(ctx, "other"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_SaveItemsAndLink(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	if err := repo.SaveItems(ctx, "nope", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.Create(ctx, "sess-2", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.SaveItems(ctx, "sess-2", nil); err != nil {
		t.Fatalf("SaveItems: %v", err)
	}
	got, err := repo.GetBySession(ctx, "sess-2")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("expected empty items, got %+v", got.Items)
	}

	var userID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (id, email) VALUES (gen_random_uuid(), 'a@b.com') RETURNING id::text`).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	ok, err := repo.LinkUser(ctx, "sess-2", userID)
	if err != nil || !ok {
		t.Fatalf("LinkUser: ok=%v err=%v", ok, err)
	}
	ok, err = repo.LinkUser(ctx, "missing", userID)
	if err != nil || ok {
		t.Fatalf("LinkUser missing: ok=%v err=%v", ok, err)
	}
}
