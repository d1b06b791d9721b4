// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory fakes.
package repository

import (
	"context"
	"errors"

	"github.com/arhamch/codecast/internal/model"
)

// ErrUsernameTaken is returned by ReconcileGitHub when the proposed
// username for a brand-new account collides with an existing one. The
// caller picks a different username and retries; existing accounts never
// hit this because reconciliation leaves their username untouched.
var ErrUsernameTaken = errors.New("username taken")

type ListOptions struct {
	Category string // empty = all categories
	Limit    int
	Offset   int
}

type UserRepository interface {
	// Create inserts a credential account. The repository assigns ID and
	// timestamps. Unique-constraint violations surface as conflict errors.
	Create(ctx context.Context, user *model.User) error

	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByHandle resolves a profile name: it matches either the local
	// username or the linked GitHub login.
	GetByHandle(ctx context.Context, handle string) (*model.User, error)

	// ReconcileGitHub atomically creates-or-refreshes the account linked to
	// user.GitHubID and fills *user with the canonical stored record. Safe
	// to call on every sign-in, including concurrently for the same new
	// GitHub identity.
	ReconcileGitHub(ctx context.Context, user *model.User) error
}

type ShowcaseRepository interface {
	Create(ctx context.Context, sc *model.Showcase) error
	GetByID(ctx context.Context, id string) (*model.Showcase, error)
	List(ctx context.Context, opts ListOptions) ([]model.Showcase, error)
	ListByUser(ctx context.Context, userID string) ([]model.Showcase, error)

	// IncrementViews atomically bumps the view counter and returns the
	// updated showcase.
	IncrementViews(ctx context.Context, id string) (*model.Showcase, error)

	// IncrementLikes atomically bumps the like counter and returns the new
	// count.
	IncrementLikes(ctx context.Context, id string) (int64, error)

	Delete(ctx context.Context, id string) error
}
