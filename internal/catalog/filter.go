package catalog

import (
	"sort"
	"strings"

	"kelasku/backend/internal/domain"
)

const (
	SortPopular   = "popular"
	SortRating    = "rating"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

type Query struct {
	Category  string
	Level     string
	Search    string
	MinPrice  int64
	MaxPrice  int64
	MinRating float64
	Sort      string
}

// Filter returns the products matching q. Without a sort key the catalog
// order is kept; sorted results fall back to catalog order on ties.
func Filter(products []domain.Product, q Query) []domain.Product {
	category := strings.ToLower(strings.TrimSpace(q.Category))
	level := strings.ToLower(strings.TrimSpace(q.Level))
	search := strings.ToLower(strings.TrimSpace(q.Search))

	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		if level != "" && strings.ToLower(p.Level) != level {
			continue
		}
		if q.MinPrice > 0 && p.Price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && p.Price > q.MaxPrice {
			continue
		}
		if q.MinRating > 0 && p.Rating < q.MinRating {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		result = append(result, p)
	}

	switch q.Sort {
	case SortPopular:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Reviews > result[j].Reviews })
	case SortRating:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Rating > result[j].Rating })
	case SortPriceAsc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price < result[j].Price })
	case SortPriceDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price > result[j].Price })
	}
	return result
}

func matchesSearch(p domain.Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Instructor), needle) ||
		strings.Contains(strings.ToLower(p.ShortDescription), needle)
}

// Summarize counts products per category, ordered by category name.
func Summarize(products []domain.Product) []domain.CategorySummary {
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.Category]++
	}
	result := make([]domain.CategorySummary, 0, len(counts))
	for name, n := range counts {
		result = append(result, domain.CategorySummary{Name: name, Products: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
