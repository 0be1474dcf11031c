package behavior

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/store"
	"kelasku/backend/internal/store/memory"
)

type lookupStub map[int]domain.Product

func (l lookupStub) Lookup(_ context.Context, id int) (domain.Product, bool, error) {
	p, ok := l[id]
	return p, ok, nil
}

func newTestTracker(products ProductLookup, mode Attribution) (*Tracker, *memory.Store) {
	state := memory.New()
	tracker := NewTracker(state, products, mode)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	tracker.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return tracker, state
}

func TestPriceBucketBoundaries(t *testing.T) {
	cases := []struct {
		price int64
		want  string
	}{
		{0, domain.PriceBucketBudget},
		{499_999, domain.PriceBucketBudget},
		{500_000, domain.PriceBucketMedium},
		{750_000, domain.PriceBucketMedium},
		{1_000_000, domain.PriceBucketMedium},
		{1_000_001, domain.PriceBucketPremium},
		{5_000_000, domain.PriceBucketPremium},
	}
	for _, tc := range cases {
		if got := PriceBucket(tc.price); got != tc.want {
			t.Fatalf("PriceBucket(%d) = %s, want %s", tc.price, got, tc.want)
		}
	}
}

func TestRecordViewCountsExactBoundaryAsMedium(t *testing.T) {
	tracker, state := newTestTracker(nil, AttributionHistory)
	ctx := context.Background()

	product := domain.Product{ID: 1, Name: "Boundary", Price: 500_000, Category: "design"}
	if err := tracker.RecordView(ctx, "usr-1", product, 30*time.Second); err != nil {
		t.Fatalf("record view: %v", err)
	}

	profile, _ := state.GetBehavior(ctx, "usr-1")
	if profile.PriceRangeViews[domain.PriceBucketMedium] != 1 {
		t.Fatalf("expected medium bucket count 1, got %+v", profile.PriceRangeViews)
	}
	if profile.PriceRangeViews[domain.PriceBucketBudget] != 0 {
		t.Fatalf("500000 must never count as budget")
	}
	if profile.CategoryViews["design"] != 1 || profile.TotalViews != 1 || profile.LastActive.IsZero() {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestRecordViewMutatesRepeatEntryInPlace(t *testing.T) {
	tracker, state := newTestTracker(nil, AttributionHistory)
	ctx := context.Background()

	a := domain.Product{ID: 1, Category: "design", Price: 100_000}
	b := domain.Product{ID: 2, Category: "music", Price: 100_000}
	_ = tracker.RecordView(ctx, "u", a, 10*time.Second)
	_ = tracker.RecordView(ctx, "u", b, 5*time.Second)
	_ = tracker.RecordView(ctx, "u", a, 20*time.Second)

	history, _ := state.GetHistory(ctx, "u")
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Product.ID != 2 || history[1].Product.ID != 1 {
		t.Fatalf("repeat view must not reorder history: %d,%d", history[0].Product.ID, history[1].Product.ID)
	}
	if history[1].ViewCount != 2 || history[1].TotalViewTime != 30*time.Second {
		t.Fatalf("unexpected repeat entry %+v", history[1])
	}
	if !history[1].LastViewed.After(history[1].FirstViewed) {
		t.Fatalf("expected LastViewed to be bumped")
	}

	profile, _ := state.GetBehavior(ctx, "u")
	if profile.TotalViews != 3 || profile.CategoryViews["design"] != 2 {
		t.Fatalf("unexpected counters %+v", profile)
	}
}

func TestRecordViewCapsHistory(t *testing.T) {
	tracker, state := newTestTracker(nil, AttributionHistory)
	ctx := context.Background()

	for i := 1; i <= MaxHistoryEntries+5; i++ {
		_ = tracker.RecordView(ctx, "u", domain.Product{ID: i, Category: "design"}, 0)
	}
	history, _ := state.GetHistory(ctx, "u")
	if len(history) != MaxHistoryEntries {
		t.Fatalf("expected %d entries, got %d", MaxHistoryEntries, len(history))
	}
	if history[0].Product.ID != MaxHistoryEntries+5 {
		t.Fatalf("expected newest first, got id %d", history[0].Product.ID)
	}
	if history[len(history)-1].Product.ID != 6 {
		t.Fatalf("expected oldest evicted, last id %d", history[len(history)-1].Product.ID)
	}
}

func TestRecordFavoriteAttribution(t *testing.T) {
	ctx := context.Background()
	catalog := lookupStub{7: {ID: 7, Category: "music"}}

	t.Run("history mode ignores never viewed products", func(t *testing.T) {
		tracker, state := newTestTracker(catalog, AttributionHistory)
		ok, err := tracker.RecordFavorite(ctx, "u", 7)
		if err != nil {
			t.Fatalf("favorite: %v", err)
		}
		if ok {
			t.Fatalf("expected no attribution")
		}
		profile, _ := state.GetBehavior(ctx, "u")
		if len(profile.FavoriteCategories) != 0 {
			t.Fatalf("expected empty favorite categories, got %+v", profile.FavoriteCategories)
		}
	})

	t.Run("catalog mode falls back to catalog", func(t *testing.T) {
		tracker, state := newTestTracker(catalog, AttributionCatalog)
		ok, err := tracker.RecordFavorite(ctx, "u", 7)
		if err != nil || !ok {
			t.Fatalf("expected attribution, got ok=%v err=%v", ok, err)
		}
		profile, _ := state.GetBehavior(ctx, "u")
		if profile.FavoriteCategories["music"] != 1 {
			t.Fatalf("expected music favorite, got %+v", profile.FavoriteCategories)
		}
	})

	t.Run("history snapshot wins over catalog", func(t *testing.T) {
		tracker, state := newTestTracker(catalog, AttributionCatalog)
		_ = tracker.RecordView(ctx, "u", domain.Product{ID: 7, Category: "design"}, 0)
		if _, err := tracker.RecordFavorite(ctx, "u", 7); err != nil {
			t.Fatalf("favorite: %v", err)
		}
		profile, _ := state.GetBehavior(ctx, "u")
		if profile.FavoriteCategories["design"] != 1 || profile.FavoriteCategories["music"] != 0 {
			t.Fatalf("expected snapshot category, got %+v", profile.FavoriteCategories)
		}
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		tracker, _ := newTestTracker(catalog, AttributionCatalog)
		ok, err := tracker.RecordFavorite(ctx, "u", 404)
		if err != nil || ok {
			t.Fatalf("expected silent no-op, got ok=%v err=%v", ok, err)
		}
	})
}

func TestRecordSearchKeepsNewestEntries(t *testing.T) {
	tracker, state := newTestTracker(nil, AttributionHistory)
	ctx := context.Background()

	for i := 0; i < MaxSearchEntries+3; i++ {
		if err := tracker.RecordSearch(ctx, "u", fmt.Sprintf("q%d", i), i); err != nil {
			t.Fatalf("search: %v", err)
		}
	}
	profile, _ := state.GetBehavior(ctx, "u")
	if len(profile.SearchHistory) != MaxSearchEntries {
		t.Fatalf("expected %d entries, got %d", MaxSearchEntries, len(profile.SearchHistory))
	}
	if profile.SearchHistory[0].Query != "q3" {
		t.Fatalf("expected oldest dropped, first query %s", profile.SearchHistory[0].Query)
	}
	last := profile.SearchHistory[len(profile.SearchHistory)-1]
	if last.Query != fmt.Sprintf("q%d", MaxSearchEntries+2) || last.ResultsCount != MaxSearchEntries+2 {
		t.Fatalf("unexpected last entry %+v", last)
	}
}

func TestRecordCartAdd(t *testing.T) {
	tracker, state := newTestTracker(nil, AttributionHistory)
	ctx := context.Background()
	_ = tracker.RecordCartAdd(ctx, "u", "business")
	_ = tracker.RecordCartAdd(ctx, "u", "business")

	profile, _ := state.GetBehavior(ctx, "u")
	if profile.CartCategories["business"] != 2 {
		t.Fatalf("expected 2 cart adds, got %+v", profile.CartCategories)
	}
}

func TestParseAttribution(t *testing.T) {
	if got, err := ParseAttribution(""); err != nil || got != AttributionCatalog {
		t.Fatalf("expected catalog default, got %q %v", got, err)
	}
	if got, err := ParseAttribution(" History "); err != nil || got != AttributionHistory {
		t.Fatalf("expected history, got %q %v", got, err)
	}
	if _, err := ParseAttribution("random"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
