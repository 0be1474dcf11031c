package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/store"
)

func TestUserStateAndAccountsAgainstPostgres(t *testing.T) {
	databaseURL := os.Getenv("KELASKU_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KELASKU_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	userID := fmt.Sprintf("usr-it-%d", stamp)
	email := fmt.Sprintf("it-%d@kelasku.id", stamp)
	productID := int(stamp%1_000_000) + 1_000_000

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM user_state WHERE user_id = $1`, userID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	added, err := s.SeedProducts(ctx, []domain.Product{{ID: productID, Name: "Integration Course", Price: 500000, Category: "design", Rating: 4.5}})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 product added, got %d", added)
	}
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p.Price != 500000 || p.Category != "design" {
		t.Fatalf("unexpected product %+v", p)
	}

	cart := []domain.CartItem{{Product: *p, Quantity: 2, AddedAt: time.Now().UTC()}}
	if err := s.PutCart(ctx, userID, cart); err != nil {
		t.Fatalf("put cart: %v", err)
	}
	gotCart, err := s.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(gotCart) != 1 || gotCart[0].Quantity != 2 {
		t.Fatalf("unexpected cart %+v", gotCart)
	}

	user := domain.UserAccount{ID: userID, Name: "IT", Email: email, Password: "hash", CreatedAt: time.Now().UTC()}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, user); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := s.ClearUserState(ctx, userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	gotCart, _ = s.GetCart(ctx, userID)
	if len(gotCart) != 0 {
		t.Fatalf("expected empty cart after clear, got %+v", gotCart)
	}
}
