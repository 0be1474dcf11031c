package httpapi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/store"
	"kelasku/backend/internal/store/memory"
)

func TestRegisterStoresPasswordHashAndSignsIn(t *testing.T) {
	users := memory.New()
	manager := NewAuthManager("test-secret", time.Hour, users)
	ctx := context.Background()

	resp, err := manager.Register(ctx, domain.RegisterRequest{
		Name:     "Sari",
		Email:    "  Sari@Example.com ",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.AccessToken == "" || !strings.HasPrefix(resp.UserID, "usr-") {
		t.Fatalf("unexpected register response %+v", resp)
	}

	saved, err := users.GetUserByEmail(ctx, "sari@example.com")
	if err != nil {
		t.Fatalf("expected normalized email to be stored: %v", err)
	}
	if saved.Password == "pass1234" || !strings.HasPrefix(saved.Password, "$2") {
		t.Fatalf("expected bcrypt hash, got %s", saved.Password)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.UserID != resp.UserID || actor.Email != "sari@example.com" || actor.Name != "Sari" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, memory.New())
	ctx := context.Background()
	req := domain.RegisterRequest{Name: "Budi", Email: "budi@example.com", Password: "pass1234"}

	if _, err := manager.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := manager.Register(ctx, req); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, memory.New())
	_, err := manager.Register(context.Background(), domain.RegisterRequest{Name: "A", Email: "a@example.com", Password: "12345"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, memory.New())
	ctx := context.Background()
	if _, err := manager.Register(ctx, domain.RegisterRequest{Name: "Dewi", Email: "dewi@example.com", Password: "pass1234"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name string
		req  domain.LoginRequest
	}{
		{name: "wrong password", req: domain.LoginRequest{Email: "dewi@example.com", Password: "nope1234"}},
		{name: "unknown email", req: domain.LoginRequest{Email: "ghost@example.com", Password: "pass1234"}},
		{name: "blank password", req: domain.LoginRequest{Email: "dewi@example.com", Password: " "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := manager.Login(ctx, tc.req); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected invalid credentials, got %v", err)
			}
		})
	}

	resp, err := manager.Login(ctx, domain.LoginRequest{Email: "DEWI@example.com", Password: "pass1234"})
	if err != nil || resp.AccessToken == "" {
		t.Fatalf("expected case-insensitive login to succeed, got %+v %v", resp, err)
	}
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	users := memory.New()
	manager := NewAuthManager("test-secret", time.Hour, users)
	resp, err := manager.Register(context.Background(), domain.RegisterRequest{Name: "Eka", Email: "eka@example.com", Password: "pass1234"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	other := NewAuthManager("another-secret", time.Hour, users)
	if _, err := other.ParseToken(resp.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token signed with another secret to be rejected, got %v", err)
	}

	expired := NewAuthManager("test-secret", time.Hour, users)
	expired.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	old, err := expired.Login(context.Background(), domain.LoginRequest{Email: "eka@example.com", Password: "pass1234"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := manager.ParseToken(old.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	if _, err := manager.ParseToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage token to be rejected, got %v", err)
	}
}
