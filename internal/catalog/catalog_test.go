package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kelasku/backend/internal/domain"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(40, 7)
	b := Generate(40, 7)
	if len(a) != 40 || len(b) != 40 {
		t.Fatalf("expected 40 products, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("product %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateProducesValidProducts(t *testing.T) {
	products := Generate(DefaultSize, DefaultSeed)
	if err := validate(products); err != nil {
		t.Fatalf("generated catalog invalid: %v", err)
	}
	for i, p := range products {
		if p.ID != i+1 {
			t.Fatalf("expected sequential ids, got %d at index %d", p.ID, i)
		}
		if p.Price < 99000 || p.Price > 2500000 {
			t.Fatalf("price out of range: %d", p.Price)
		}
		if p.Category == "" || p.Level == "" || p.Instructor == "" {
			t.Fatalf("incomplete product: %+v", p)
		}
	}
}

func TestGenerateSpreadsCategoriesEvenly(t *testing.T) {
	products := Generate(DefaultSize, DefaultSeed)
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.Category]++
	}
	floor := DefaultSize / len(Categories)
	for _, c := range Categories {
		if counts[c] < floor || counts[c] > floor+1 {
			t.Fatalf("category %s has %d products, want %d or %d", c, counts[c], floor, floor+1)
		}
	}
}

func TestWriteAndLoadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "products.json")
	products := Generate(5, 1)
	if err := WriteFile(path, products); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(products) || loaded[0] != products[0] {
		t.Fatalf("loaded catalog differs from written one")
	}
}

func TestLoadFileRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	dup := []domain.Product{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}}
	if err := WriteFile(path, dup); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

type countingSource struct {
	calls    atomic.Int32
	products []domain.Product
	err      error
}

func (s *countingSource) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func TestCacheLoadsOnce(t *testing.T) {
	src := &countingSource{products: Generate(10, 3)}
	cache := NewCache(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.ListProducts(context.Background()); err != nil {
				t.Errorf("list: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := cache.ListProducts(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one source load, got %d", got)
	}

	p, ok, err := cache.Lookup(context.Background(), 4)
	if err != nil || !ok || p.ID != 4 {
		t.Fatalf("lookup failed: %+v %v %v", p, ok, err)
	}
}

type gatedSource struct {
	entered  chan struct{}
	release  chan struct{}
	products []domain.Product
	calls    atomic.Int32
}

func (s *gatedSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
	}
	<-s.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.products, nil
}

func TestCacheLoadSurvivesFirstCallerCancel(t *testing.T) {
	src := &gatedSource{
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		products: Generate(5, 2),
	}
	cache := NewCache(src)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := cache.ListProducts(firstCtx)
		firstDone <- err
	}()
	<-src.entered

	secondDone := make(chan error, 1)
	go func() {
		products, err := cache.ListProducts(context.Background())
		if err == nil && len(products) != 5 {
			err = errors.New("unexpected catalog size")
		}
		secondDone <- err
	}()

	cancel()
	time.Sleep(10 * time.Millisecond)
	close(src.release)

	if err := <-secondDone; err != nil {
		t.Fatalf("second caller must not inherit the first caller's cancel: %v", err)
	}
	<-firstDone
	if !cache.Loaded() {
		t.Fatalf("expected catalog to be cached after the shared load")
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected one source load, got %d", got)
	}
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	cache := NewCache(src)

	if _, err := cache.ListProducts(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if cache.Loaded() {
		t.Fatalf("failed load must not mark cache as loaded")
	}

	src.err = nil
	src.products = Generate(3, 3)
	products, err := cache.ListProducts(context.Background())
	if err != nil || len(products) != 3 {
		t.Fatalf("expected recovery, got %d products, err %v", len(products), err)
	}
}

func TestFilter(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Name: "Go Fundamentals", Category: "programming", Level: "Beginner", Price: 200000, Rating: 4.6, Reviews: 10},
		{ID: 2, Name: "Figma Masterclass", Category: "design", Level: "Advanced", Price: 800000, Rating: 4.1, Reviews: 500},
		{ID: 3, Name: "Practical Go", Category: "programming", Level: "Advanced", Price: 1500000, Rating: 4.9, Reviews: 80},
	}

	tests := []struct {
		name string
		q    Query
		want []int
	}{
		{name: "no filters keeps catalog order", q: Query{}, want: []int{1, 2, 3}},
		{name: "category", q: Query{Category: "Programming"}, want: []int{1, 3}},
		{name: "search is case insensitive", q: Query{Search: "GO"}, want: []int{1, 3}},
		{name: "price range", q: Query{MinPrice: 500000, MaxPrice: 1000000}, want: []int{2}},
		{name: "rating floor", q: Query{MinRating: 4.5}, want: []int{1, 3}},
		{name: "popular sort", q: Query{Sort: SortPopular}, want: []int{2, 3, 1}},
		{name: "price desc", q: Query{Sort: SortPriceDesc, Level: "advanced"}, want: []int{3, 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(products, tc.q)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %d products", tc.want, len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("position %d: expected id %d, got %d", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]domain.Product{
		{ID: 1, Category: "music"},
		{ID: 2, Category: "design"},
		{ID: 3, Category: "music"},
	})
	if len(summary) != 2 || summary[0].Name != "design" || summary[1].Products != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
