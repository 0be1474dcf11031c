// Package behavior records raw user interaction signals: view history,
// per-category counters, price bucket counters and the search log.
package behavior

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/store"
)

const (
	MaxHistoryEntries = 20
	MaxSearchEntries  = 50

	budgetCeiling = 500_000
	premiumFloor  = 1_000_000
)

// PriceBucket maps a price in minor units to budget, medium or premium.
// Both 500000 and 1000000 are medium.
func PriceBucket(price int64) string {
	switch {
	case price < budgetCeiling:
		return domain.PriceBucketBudget
	case price <= premiumFloor:
		return domain.PriceBucketMedium
	default:
		return domain.PriceBucketPremium
	}
}

// Attribution controls how a favorite is attributed to a category.
type Attribution string

const (
	// AttributionHistory resolves the category only from the view history
	// snapshot. Favoriting a never-viewed product adds nothing.
	AttributionHistory Attribution = "history"
	// AttributionCatalog tries the view history first and falls back to the
	// catalog.
	AttributionCatalog Attribution = "catalog"
)

func ParseAttribution(raw string) (Attribution, error) {
	switch Attribution(strings.ToLower(strings.TrimSpace(raw))) {
	case "", AttributionCatalog:
		return AttributionCatalog, nil
	case AttributionHistory:
		return AttributionHistory, nil
	default:
		return "", fmt.Errorf("%w: favorite attribution %q", store.ErrInvalidInput, raw)
	}
}

// ProductLookup resolves a product by id. catalog.Cache satisfies it.
type ProductLookup interface {
	Lookup(ctx context.Context, id int) (domain.Product, bool, error)
}

// Tracker applies interaction events to the persisted behavior state.
// Updates are read-modify-write, so the tracker serializes them.
type Tracker struct {
	state       store.StateStore
	products    ProductLookup
	attribution Attribution
	now         func() time.Time

	mu sync.Mutex
}

// NewTracker builds a tracker. products may be nil, in which case favorite
// attribution always behaves like AttributionHistory.
func NewTracker(state store.StateStore, products ProductLookup, attribution Attribution) *Tracker {
	if attribution == "" {
		attribution = AttributionCatalog
	}
	return &Tracker{
		state:       state,
		products:    products,
		attribution: attribution,
		now:         time.Now,
	}
}

// RecordView updates the view history entry for product and bumps the
// category, price bucket and total view counters.
func (t *Tracker) RecordView(ctx context.Context, userID string, product domain.Product, viewTime time.Duration) error {
	if viewTime < 0 {
		viewTime = 0
	}
	now := t.now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	history, err := t.state.GetHistory(ctx, userID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	history = upsertHistory(history, product, viewTime, now)
	if err := t.state.PutHistory(ctx, userID, history); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	profile, err := t.state.GetBehavior(ctx, userID)
	if err != nil {
		return fmt.Errorf("load behavior: %w", err)
	}
	profile.EnsureMaps()
	profile.CategoryViews[product.Category]++
	profile.PriceRangeViews[PriceBucket(product.Price)]++
	profile.TotalViews++
	profile.LastActive = now
	if err := t.state.PutBehavior(ctx, userID, *profile); err != nil {
		return fmt.Errorf("save behavior: %w", err)
	}
	return nil
}

// upsertHistory keeps entries most-recent-first by first view. A repeat view
// mutates the existing entry without moving it.
func upsertHistory(history []domain.ViewHistoryEntry, product domain.Product, viewTime time.Duration, now time.Time) []domain.ViewHistoryEntry {
	for i := range history {
		if history[i].Product.ID == product.ID {
			history[i].ViewCount++
			history[i].TotalViewTime += viewTime
			history[i].LastViewed = now
			return history
		}
	}

	entry := domain.ViewHistoryEntry{
		Product:       product,
		FirstViewed:   now,
		LastViewed:    now,
		ViewCount:     1,
		TotalViewTime: viewTime,
	}
	history = append([]domain.ViewHistoryEntry{entry}, history...)
	if len(history) > MaxHistoryEntries {
		history = history[:MaxHistoryEntries]
	}
	return history
}

// RecordFavorite attributes a favorite to the product's category. It reports
// whether a category was found.
func (t *Tracker) RecordFavorite(ctx context.Context, userID string, productID int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	category, err := t.favoriteCategory(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if category == "" {
		return false, nil
	}

	profile, err := t.state.GetBehavior(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load behavior: %w", err)
	}
	profile.EnsureMaps()
	profile.FavoriteCategories[category]++
	if err := t.state.PutBehavior(ctx, userID, *profile); err != nil {
		return false, fmt.Errorf("save behavior: %w", err)
	}
	return true, nil
}

func (t *Tracker) favoriteCategory(ctx context.Context, userID string, productID int) (string, error) {
	history, err := t.state.GetHistory(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	for _, entry := range history {
		if entry.Product.ID == productID {
			return entry.Product.Category, nil
		}
	}

	if t.attribution != AttributionCatalog || t.products == nil {
		return "", nil
	}
	product, ok, err := t.products.Lookup(ctx, productID)
	if err != nil {
		return "", fmt.Errorf("lookup product: %w", err)
	}
	if !ok {
		return "", nil
	}
	return product.Category, nil
}

// Clear wipes all persisted state for the user. It shares the tracker lock,
// so a clear never interleaves with a half-applied event.
func (t *Tracker) Clear(ctx context.Context, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.state.ClearUserState(ctx, userID); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

func (t *Tracker) RecordCartAdd(ctx context.Context, userID string, category string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	profile, err := t.state.GetBehavior(ctx, userID)
	if err != nil {
		return fmt.Errorf("load behavior: %w", err)
	}
	profile.EnsureMaps()
	profile.CartCategories[category]++
	if err := t.state.PutBehavior(ctx, userID, *profile); err != nil {
		return fmt.Errorf("save behavior: %w", err)
	}
	return nil
}

// RecordSearch appends to the search log, keeping the newest MaxSearchEntries.
func (t *Tracker) RecordSearch(ctx context.Context, userID string, query string, resultsCount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	profile, err := t.state.GetBehavior(ctx, userID)
	if err != nil {
		return fmt.Errorf("load behavior: %w", err)
	}
	profile.EnsureMaps()
	profile.SearchHistory = append(profile.SearchHistory, domain.SearchEntry{
		Query:        query,
		Timestamp:    t.now().UTC(),
		ResultsCount: resultsCount,
	})
	if over := len(profile.SearchHistory) - MaxSearchEntries; over > 0 {
		profile.SearchHistory = profile.SearchHistory[over:]
	}
	if err := t.state.PutBehavior(ctx, userID, *profile); err != nil {
		return fmt.Errorf("save behavior: %w", err)
	}
	return nil
}
