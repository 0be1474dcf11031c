package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"kelasku/backend/internal/catalog"
	"kelasku/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	tests := []config.Config{
		{AuthSecret: "short", AllowedOrigin: "https://kelasku.id"},
		{AuthSecret: "0123456789abcdef0123456789abcdef", AllowedOrigin: "*"},
	}
	for _, cfg := range tests {
		if err := validateSecurityConfig(cfg); err == nil {
			t.Fatalf("expected %+v to be rejected", cfg)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", AllowedOrigin: "https://kelasku.id"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestLoadCatalogPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	if err := catalog.WriteFile(path, catalog.Generate(4, 9)); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	products, err := loadCatalog(config.Config{CatalogPath: path, CatalogSize: 50})
	if err != nil || len(products) != 4 {
		t.Fatalf("expected file catalog of 4, got %d (%v)", len(products), err)
	}

	products, err = loadCatalog(config.Config{CatalogSize: 12, CatalogSeed: 3})
	if err != nil || len(products) != 12 {
		t.Fatalf("expected generated catalog of 12, got %d (%v)", len(products), err)
	}

	if _, err := loadCatalog(config.Config{CatalogPath: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatalf("expected missing catalog file to fail")
	}
}

func TestOpenRepositorySeedsSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{SQLitePath: filepath.Join(t.TempDir(), "kelasku.db")}
	products := catalog.Generate(6, 1)

	repo, closers, err := openRepository(ctx, cfg, products, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		for _, c := range closers {
			_ = c()
		}
	})

	listed, err := repo.ListProducts(ctx)
	if err != nil || len(listed) != len(products) {
		t.Fatalf("expected %d seeded products, got %d (%v)", len(products), len(listed), err)
	}
}

func TestOpenRepositoryFallsBackToMemory(t *testing.T) {
	repo, closers, err := openRepository(context.Background(), config.Config{}, catalog.Generate(3, 1), zerolog.Nop())
	if err != nil || len(closers) != 0 {
		t.Fatalf("expected in-memory repository, got %v %d closers", err, len(closers))
	}
	if _, err := repo.GetUserByEmail(context.Background(), "demo@kelasku.id"); err != nil {
		t.Fatalf("expected demo account in memory store: %v", err)
	}
}
