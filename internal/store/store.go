package store

import (
	"context"
	"errors"

	"kelasku/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// CatalogStore serves the read-only product catalog in catalog order.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
	SeedProducts(ctx context.Context, products []domain.Product) (int, error)
}

// StateStore persists per-user browsing state. Getters return empty values,
// never ErrNotFound, for users that have no state yet.
type StateStore interface {
	GetBehavior(ctx context.Context, userID string) (*domain.BehaviorProfile, error)
	PutBehavior(ctx context.Context, userID string, profile domain.BehaviorProfile) error
	GetHistory(ctx context.Context, userID string) ([]domain.ViewHistoryEntry, error)
	PutHistory(ctx context.Context, userID string, entries []domain.ViewHistoryEntry) error
	GetFavorites(ctx context.Context, userID string) ([]int, error)
	PutFavorites(ctx context.Context, userID string, productIDs []int) error
	GetCart(ctx context.Context, userID string) ([]domain.CartItem, error)
	PutCart(ctx context.Context, userID string, items []domain.CartItem) error
	ClearUserState(ctx context.Context, userID string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
}

type Repository interface {
	CatalogStore
	StateStore
	UserStore
}

const (
	StateKeyBehavior  = "behavior"
	StateKeyHistory   = "history"
	StateKeyFavorites = "favorites"
	StateKeyCart      = "cart"
)
