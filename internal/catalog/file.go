package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"kelasku/backend/internal/domain"
)

// LoadFile reads a JSON array of products. Order in the file is catalog order.
func LoadFile(path string) ([]domain.Product, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var products []domain.Product
	if err := json.Unmarshal(payload, &products); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if err := validate(products); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return products, nil
}

func WriteFile(path string, products []domain.Product) error {
	payload, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}

func validate(products []domain.Product) error {
	seen := make(map[int]struct{}, len(products))
	for _, p := range products {
		if p.ID < 1 {
			return fmt.Errorf("product %q has non-positive id %d", p.Name, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Rating < 0 || p.Rating > 5 {
			return fmt.Errorf("product %d rating %.2f out of range", p.ID, p.Rating)
		}
		if p.Reviews < 0 || p.Price < 0 {
			return fmt.Errorf("product %d has negative price or reviews", p.ID)
		}
	}
	return nil
}
