package user

import (
	"context"
	"strings"

	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type userRepo interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
	AttachIdentity(ctx context.Context, id, clerkID, name string) (*domain.User, error)
}

// Service resolves storefront users from emails and identity-provider references.
type Service struct {
	repo   userRepo
	logger *zap.Logger
}

func New(repo userRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrNop(logger)}
}

// Resolve finds the user owning a checkout: by clerkID when given, else by
// email. When neither matches a guest user is created.
func (s *Service) Resolve(ctx context.Context, email string, clerkID string) (*domain.User, error) {
	email = normalizeEmail(email)
	clerkID = strings.TrimSpace(clerkID)

	if clerkID != "" {
		u, err := s.repo.GetByClerkID(ctx, clerkID)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, errors.Wrap(err, "lookup user by identity")
		}
	}
	if email == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "email required")
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, errors.Wrap(err, "lookup user by email")
	}

	guest := domain.User{Email: email, Role: domain.RoleUser}
	if clerkID != "" {
		guest.ClerkID = &clerkID
	}
	created, err := s.repo.Create(ctx, guest)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost a race with a concurrent checkout for the same email.
		return s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create guest user")
	}
	s.logger.Info("user: created", zap.String("id", created.ID), zap.Bool("guest", clerkID == ""))
	return created, nil
}

// SyncIdentity is called after sign-up or sign-in with the identity
// provider. It links an existing guest with the same email or creates the user.
func (s *Service) SyncIdentity(ctx context.Context, clerkID, email, name string) (*domain.User, error) {
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "identity required")
	}
	u, err := s.repo.GetByClerkID(ctx, clerkID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, errors.Wrap(err, "lookup user by identity")
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "email required")
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.repo.AttachIdentity(ctx, existing.ID, clerkID, name)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, errors.Wrap(err, "lookup user by email")
	}
	return s.repo.Create(ctx, domain.User{Email: email, Name: strings.TrimSpace(name), ClerkID: &clerkID, Role: domain.RoleUser})
}

func (s *Service) GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	return s.repo.GetByClerkID(ctx, strings.TrimSpace(clerkID))
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
