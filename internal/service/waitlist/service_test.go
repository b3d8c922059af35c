package waitlist

import (
	"context"
	"testing"

	"esim-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	emails []string
}

func (m *memoryRepo) Add(_ context.Context, email string) (bool, error) {
	for _, e := range m.emails {
		if e == email {
			return false, nil
		}
	}
	m.emails = append(m.emails, email)
	return true, nil
}

func (m *memoryRepo) Count(context.Context) (int64, error) {
	return int64(len(m.emails)), nil
}

func TestJoinNormalizesAndDedupes(t *testing.T) {
	repo := &memoryRepo{}
	svc := New(repo, nil)
	ctx := context.Background()

	first, err := svc.Join(ctx, "A@B.com")
	require.NoError(t, err)
	assert.False(t, first.AlreadyJoined)

	second, err := svc.Join(ctx, "a@b.com ")
	require.NoError(t, err)
	assert.True(t, second.AlreadyJoined)

	assert.Equal(t, []string{"a@b.com"}, repo.emails)
	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestJoinRejectsInvalidEmail(t *testing.T) {
	svc := New(&memoryRepo{}, nil)
	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.Join(context.Background(), email)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, email)
	}
}
