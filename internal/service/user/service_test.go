package user

import (
	"context"
	"errors"
	"testing"

	"esim-storefront/internal/domain"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byID    map[string]domain.User
	created int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[string]domain.User)}
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	r.created++
	u.ID = "user-" + u.Email
	r.byID[u.ID] = u
	clone := u
	return &clone, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByClerkID(_ context.Context, clerkID string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.ClerkID != nil && *u.ClerkID == clerkID {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) AttachIdentity(_ context.Context, id, clerkID, name string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.ClerkID = &clerkID
	if name != "" {
		u.Name = name
	}
	r.byID[id] = u
	return &u, nil
}

func TestResolveCreatesGuestOnce(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, nil)

	first, err := svc.Resolve(context.Background(), " Buyer@Example.com ", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first.Email != "buyer@example.com" || first.ClerkID != nil {
		t.Fatalf("unexpected guest %+v", first)
	}
	second, err := svc.Resolve(context.Background(), "buyer@example.com", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second.ID != first.ID || repo.created != 1 {
		t.Fatalf("expected the same user, created=%d", repo.created)
	}
}

func TestResolvePrefersIdentity(t *testing.T) {
	repo := newMemoryRepo()
	clerk := "user_1"
	repo.byID["u1"] = domain.User{ID: "u1", Email: "owner@example.com", ClerkID: &clerk}
	repo.byID["u2"] = domain.User{ID: "u2", Email: "other@example.com"}
	svc := New(repo, nil)

	got, err := svc.Resolve(context.Background(), "other@example.com", "user_1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != "u1" {
		t.Fatalf("expected identity match, got %+v", got)
	}
}

func TestResolveRequiresEmailWithoutIdentity(t *testing.T) {
	_, err := New(newMemoryRepo(), nil).Resolve(context.Background(), "  ", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSyncIdentityLinksGuest(t *testing.T) {
	repo := newMemoryRepo()
	repo.byID["g"] = domain.User{ID: "g", Email: "guest@example.com"}
	svc := New(repo, nil)

	u, err := svc.SyncIdentity(context.Background(), "user_9", "GUEST@example.com", "Gail")
	if err != nil {
		t.Fatalf("SyncIdentity: %v", err)
	}
	if u.ID != "g" || u.ClerkID == nil || *u.ClerkID != "user_9" || u.Name != "Gail" {
		t.Fatalf("unexpected user %+v", u)
	}

	fresh, err := svc.SyncIdentity(context.Background(), "user_10", "new@example.com", "")
	if err != nil {
		t.Fatalf("SyncIdentity: %v", err)
	}
	if fresh.ClerkID == nil || *fresh.ClerkID != "user_10" {
		t.Fatalf("unexpected user %+v", fresh)
	}
}
