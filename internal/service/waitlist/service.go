package waitlist

import (
	"context"
	"strings"

	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type waitlistRepo interface {
	Add(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	repo     waitlistRepo
	validate *validator.Validate
	logger   *zap.Logger
}

func New(repo waitlistRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logging.OrNop(logger)}
}

// JoinResult tells a first signup apart from a repeat.
type JoinResult struct {
	Email         string `json:"email"`
	AlreadyJoined bool   `json:"alreadyJoined"`
}

// Join records email on the waitlist. Joining twice is not an error.
func (s *Service) Join(ctx context.Context, email string) (*JoinResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, errors.Wrap(domain.ErrInvalidInput, "valid email required")
	}
	added, err := s.repo.Add(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "join waitlist")
	}
	if added {
		s.logger.Info("waitlist: joined")
	}
	return &JoinResult{Email: email, AlreadyJoined: !added}, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
