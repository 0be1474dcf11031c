package recommendation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"kelasku/backend/internal/domain"
)

// ErrServiceUnavailable is the injected transient failure of GetSuggestions.
// Callers should retry it with backoff.
var ErrServiceUnavailable = errors.New("suggestion service unavailable")

const (
	MaxSuggestions = 5

	DefaultDelay       = 800 * time.Millisecond
	DefaultFailureRate = 0.10

	defaultConfidence = 0.6
	defaultRationale  = "Popular course suggestions"
)

type CatalogSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// StateReader is the read side of the per-user state store.
type StateReader interface {
	GetBehavior(ctx context.Context, userID string) (*domain.BehaviorProfile, error)
	GetHistory(ctx context.Context, userID string) ([]domain.ViewHistoryEntry, error)
	GetFavorites(ctx context.Context, userID string) ([]int, error)
	GetCart(ctx context.Context, userID string) ([]domain.CartItem, error)
}

type SuggesterConfig struct {
	// Delay simulates network latency before each request.
	Delay time.Duration
	// FailureRate is the probability in [0, 1] of ErrServiceUnavailable.
	FailureRate float64
}

// Suggester builds the suggestions panel from category frequencies over the
// user's history, favorites, cart and searches. It never retries.
type Suggester struct {
	catalog     CatalogSource
	state       StateReader
	delay       time.Duration
	failureRate float64
	rnd         RandSource
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

func NewSuggester(catalog CatalogSource, state StateReader, cfg SuggesterConfig, rnd RandSource) *Suggester {
	if rnd == nil {
		rnd = DefaultRand{}
	}
	return &Suggester{
		catalog:     catalog,
		state:       state,
		delay:       max(cfg.Delay, 0),
		failureRate: clamp(cfg.FailureRate, 0, 1),
		rnd:         rnd,
		sleep:       sleepContext,
		now:         time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetSuggestions returns up to MaxSuggestions products the user has not yet
// viewed, favorited or carted. Products from the most frequent category come
// first in catalog order; the rest is backfilled by review count.
func (s *Suggester) GetSuggestions(ctx context.Context, userID string) (domain.SuggestionResult, error) {
	if err := s.sleep(ctx, s.delay); err != nil {
		return domain.SuggestionResult{}, err
	}
	if s.rnd.Float64() < s.failureRate {
		return domain.SuggestionResult{}, ErrServiceUnavailable
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return domain.SuggestionResult{}, fmt.Errorf("load catalog: %w", err)
	}
	profile, err := s.state.GetBehavior(ctx, userID)
	if err != nil {
		return domain.SuggestionResult{}, fmt.Errorf("load behavior: %w", err)
	}
	history, err := s.state.GetHistory(ctx, userID)
	if err != nil {
		return domain.SuggestionResult{}, fmt.Errorf("load history: %w", err)
	}
	favorites, err := s.state.GetFavorites(ctx, userID)
	if err != nil {
		return domain.SuggestionResult{}, fmt.Errorf("load favorites: %w", err)
	}
	cart, err := s.state.GetCart(ctx, userID)
	if err != nil {
		return domain.SuggestionResult{}, fmt.Errorf("load cart: %w", err)
	}

	var searches []domain.SearchEntry
	if profile != nil {
		searches = profile.SearchHistory
	}

	result := Suggest(products, history, favorites, cart, searches)
	result.GeneratedAt = s.now().UTC()
	return result, nil
}

// Suggest is the deterministic core of GetSuggestions.
func Suggest(
	products []domain.Product,
	history []domain.ViewHistoryEntry,
	favorites []int,
	cart []domain.CartItem,
	searches []domain.SearchEntry,
) domain.SuggestionResult {
	byID := make(map[int]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	tally := make(map[string]int)
	for _, entry := range history {
		tally[entry.Product.Category]++
	}
	for _, id := range favorites {
		if p, ok := byID[id]; ok {
			tally[p.Category]++
		}
	}
	for _, item := range cart {
		tally[item.Product.Category]++
	}
	for _, search := range searches {
		if category, ok := searchCategory(products, search.Query); ok {
			tally[category]++
		}
	}

	topCategory := ""
	if ranked := rankByCount(tally); len(ranked) > 0 {
		topCategory = ranked[0]
	}

	excluded := make(map[int]struct{}, len(history)+len(favorites)+len(cart))
	for _, entry := range history {
		excluded[entry.Product.ID] = struct{}{}
	}
	for _, id := range favorites {
		excluded[id] = struct{}{}
	}
	for _, item := range cart {
		excluded[item.Product.ID] = struct{}{}
	}

	items := make([]domain.Product, 0, MaxSuggestions)
	if topCategory != "" {
		for _, p := range products {
			if len(items) == MaxSuggestions {
				break
			}
			if _, skip := excluded[p.ID]; skip || p.Category != topCategory {
				continue
			}
			items = append(items, p)
		}
	}

	if len(items) < MaxSuggestions {
		backfill := make([]domain.Product, 0, len(products))
		for _, p := range products {
			if _, skip := excluded[p.ID]; skip {
				continue
			}
			if topCategory != "" && p.Category == topCategory {
				continue
			}
			backfill = append(backfill, p)
		}
		sort.SliceStable(backfill, func(i, j int) bool {
			return backfill[i].Reviews > backfill[j].Reviews
		})
		need := MaxSuggestions - len(items)
		if len(backfill) > need {
			backfill = backfill[:need]
		}
		items = append(items, backfill...)
	}

	result := domain.SuggestionResult{
		Items:      items,
		Rationale:  defaultRationale,
		Confidence: defaultConfidence,
	}
	if topCategory != "" {
		total := 0
		for _, count := range tally {
			total += count
		}
		result.Rationale = fmt.Sprintf("Suggestions based on category '%s'", topCategory)
		result.Confidence = clamp(float64(tally[topCategory])/float64(total), 0, 1)
	}
	return result
}

// searchCategory returns the category of the first product whose name
// contains query, ignoring case.
func searchCategory(products []domain.Product, query string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return "", false
	}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p.Category, true
		}
	}
	return "", false
}
