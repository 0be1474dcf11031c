package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kelasku/backend/internal/catalog"
	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kelasku.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSeedProductsKeepsCatalogOrderAndSkipsDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	products := catalog.Generate(12, 7)

	added, err := s.SeedProducts(ctx, products)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if added != len(products) {
		t.Fatalf("expected %d added, got %d", len(products), added)
	}

	again, err := s.SeedProducts(ctx, products[:3])
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected duplicates to be skipped, got %d added", again)
	}

	listed, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != len(products) {
		t.Fatalf("expected %d products, got %d", len(products), len(listed))
	}
	for i := range products {
		if listed[i] != products[i] {
			t.Fatalf("product %d mismatch:\nwant %+v\ngot  %+v", i, products[i], listed[i])
		}
	}

	if _, err := s.GetProduct(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.GetBehavior(ctx, "usr-1")
	if err != nil {
		t.Fatalf("get empty behavior: %v", err)
	}
	if empty.CategoryViews == nil || empty.TotalViews != 0 {
		t.Fatalf("expected zero profile, got %+v", empty)
	}

	profile := domain.NewBehaviorProfile()
	profile.CategoryViews["design"] = 3
	profile.PriceRangeViews[domain.PriceBucketMedium] = 3
	profile.TotalViews = 3
	if err := s.PutBehavior(ctx, "usr-1", profile); err != nil {
		t.Fatalf("put behavior: %v", err)
	}
	got, err := s.GetBehavior(ctx, "usr-1")
	if err != nil {
		t.Fatalf("get behavior: %v", err)
	}
	if got.CategoryViews["design"] != 3 || got.TotalViews != 3 {
		t.Fatalf("unexpected behavior %+v", got)
	}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	history := []domain.ViewHistoryEntry{{
		Product:       domain.Product{ID: 4, Name: "Figma", Category: "design"},
		FirstViewed:   now,
		LastViewed:    now,
		ViewCount:     2,
		TotalViewTime: 90 * time.Second,
	}}
	if err := s.PutHistory(ctx, "usr-1", history); err != nil {
		t.Fatalf("put history: %v", err)
	}
	gotHistory, err := s.GetHistory(ctx, "usr-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(gotHistory) != 1 || gotHistory[0].TotalViewTime != 90*time.Second || !gotHistory[0].FirstViewed.Equal(now) {
		t.Fatalf("unexpected history %+v", gotHistory)
	}

	if err := s.PutFavorites(ctx, "usr-1", []int{4, 9}); err != nil {
		t.Fatalf("put favorites: %v", err)
	}
	if err := s.PutFavorites(ctx, "usr-1", []int{9}); err != nil {
		t.Fatalf("overwrite favorites: %v", err)
	}
	favs, _ := s.GetFavorites(ctx, "usr-1")
	if len(favs) != 1 || favs[0] != 9 {
		t.Fatalf("expected overwrite to win, got %v", favs)
	}

	if err := s.ClearUserState(ctx, "usr-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	favs, _ = s.GetFavorites(ctx, "usr-1")
	gotHistory, _ = s.GetHistory(ctx, "usr-1")
	if len(favs) != 0 || len(gotHistory) != 0 {
		t.Fatalf("expected cleared state, got favorites=%v history=%v", favs, gotHistory)
	}
}

func TestCreateUserConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := domain.UserAccount{ID: "usr-a", Name: "A", Email: "A@Example.com", Password: "hash", CreatedAt: time.Now()}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	user.ID = "usr-b"
	if err := s.CreateUser(ctx, user); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	found, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found.ID != "usr-a" || found.CreatedAt.IsZero() {
		t.Fatalf("unexpected user %+v", found)
	}

	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("expected one user, got %v %v", users, err)
	}
}
