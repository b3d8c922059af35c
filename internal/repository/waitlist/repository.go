package waitlist

import "context"

type Repository interface {
	// Add stores email and reports whether a new row was written.
	Add(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
}
