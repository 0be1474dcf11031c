package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"kelasku/backend/internal/catalog"
	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/metrics"
	"kelasku/backend/internal/store"
)

const maxCartQuantity = 99

func (s *Service) TrackView(ctx context.Context, userID string, req domain.ViewRequest) (domain.ViewHistoryEntry, error) {
	if userID == "" || req.ViewSeconds < 0 {
		return domain.ViewHistoryEntry{}, store.ErrInvalidInput
	}
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.ViewHistoryEntry{}, err
	}

	if err := s.tracker.RecordView(ctx, userID, product, time.Duration(req.ViewSeconds)*time.Second); err != nil {
		return domain.ViewHistoryEntry{}, err
	}
	metrics.RecordEvent("view")

	history, err := s.repo.GetHistory(ctx, userID)
	if err != nil {
		return domain.ViewHistoryEntry{}, err
	}
	for _, entry := range history {
		if entry.Product.ID == product.ID {
			return entry, nil
		}
	}
	return domain.ViewHistoryEntry{}, store.ErrNotFound
}

func (s *Service) History(ctx context.Context, userID string) ([]domain.ViewHistoryEntry, error) {
	history, err := s.repo.GetHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.ViewHistoryEntry{}
	}
	return history, nil
}

// Favorites resolves favorite ids against the catalog. Ids that no longer
// exist in the catalog are skipped.
func (s *Service) Favorites(ctx context.Context, userID string) ([]domain.Product, error) {
	ids, err := s.repo.GetFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		product, ok, err := s.catalog.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			products = append(products, product)
		}
	}
	return products, nil
}

// AddFavorite is idempotent: favoriting twice counts once.
func (s *Service) AddFavorite(ctx context.Context, userID string, productID int) error {
	if userID == "" {
		return store.ErrInvalidInput
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}

	s.stateMu.Lock()
	ids, err := s.repo.GetFavorites(ctx, userID)
	if err != nil {
		s.stateMu.Unlock()
		return err
	}
	if slices.Contains(ids, productID) {
		s.stateMu.Unlock()
		return nil
	}
	err = s.repo.PutFavorites(ctx, userID, append(ids, productID))
	s.stateMu.Unlock()
	if err != nil {
		return err
	}

	attributed, err := s.tracker.RecordFavorite(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !attributed {
		s.logger.Debug().Str("user_id", userID).Int("product_id", productID).Msg("favorite has no category attribution")
	}
	metrics.RecordEvent("favorite")
	return nil
}

// RemoveFavorite drops the id from the favorites list. Category counters are
// not decremented.
func (s *Service) RemoveFavorite(ctx context.Context, userID string, productID int) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	ids, err := s.repo.GetFavorites(ctx, userID)
	if err != nil {
		return err
	}
	idx := slices.Index(ids, productID)
	if idx < 0 {
		return store.ErrNotFound
	}
	return s.repo.PutFavorites(ctx, userID, slices.Delete(ids, idx, idx+1))
}

func (s *Service) Cart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	items, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return items, nil
}

// AddToCart adds quantity (default 1) of a product. A product already in the
// cart has its quantity increased, capped at 99.
func (s *Service) AddToCart(ctx context.Context, userID string, req domain.CartAddRequest) ([]domain.CartItem, error) {
	if userID == "" || req.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	s.stateMu.Lock()
	items, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		s.stateMu.Unlock()
		return nil, err
	}
	found := false
	for i := range items {
		if items[i].Product.ID == product.ID {
			items[i].Quantity = min(items[i].Quantity+quantity, maxCartQuantity)
			found = true
			break
		}
	}
	if !found {
		items = append(items, domain.CartItem{
			Product:  product,
			Quantity: min(quantity, maxCartQuantity),
			AddedAt:  time.Now().UTC(),
		})
	}
	err = s.repo.PutCart(ctx, userID, items)
	s.stateMu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := s.tracker.RecordCartAdd(ctx, userID, product.Category); err != nil {
		return nil, err
	}
	metrics.RecordEvent("cart_add")
	return items, nil
}

func (s *Service) RemoveFromCart(ctx context.Context, userID string, productID int) ([]domain.CartItem, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	items, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(items, func(item domain.CartItem) bool { return item.Product.ID == productID })
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	items = slices.Delete(items, idx, idx+1)
	if err := s.repo.PutCart(ctx, userID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search runs a catalog text search and records it with its result count.
func (s *Service) Search(ctx context.Context, userID string, query string) (domain.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.SearchResponse{}, store.ErrInvalidInput
	}
	results, err := s.ListProducts(ctx, catalog.Query{Search: query})
	if err != nil {
		return domain.SearchResponse{}, err
	}

	resp := domain.SearchResponse{Query: query, Results: results}
	if userID != "" {
		if err := s.tracker.RecordSearch(ctx, userID, query, len(results)); err != nil {
			return domain.SearchResponse{}, err
		}
		resp.Recorded = true
		metrics.RecordEvent("search")
	}
	return resp, nil
}
