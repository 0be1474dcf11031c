package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"kelasku/backend/internal/catalog"
	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/store"
	"kelasku/backend/internal/xid"
)

type Store struct {
	mu          sync.RWMutex
	products    []domain.Product
	productByID map[int]int
	behavior    map[string]domain.BehaviorProfile
	history     map[string][]domain.ViewHistoryEntry
	favorites   map[string][]int
	carts       map[string][]domain.CartItem
	usersByMail map[string]domain.UserAccount
}

// seedUsers builds the demo account for dev mode. The password is read from
// SEED_DEMO_PASSWORD; when unset a hardcoded dev default is used with a
// warning. The in-memory store is never used when a database is configured.
func seedUsers() map[string]domain.UserAccount {
	demoPwd := envOr("SEED_DEMO_PASSWORD", "demo123")
	if os.Getenv("SEED_DEMO_PASSWORD") == "" {
		log.Warn().Str("component", "memory-store").Msg("using default dev credentials; set SEED_DEMO_PASSWORD to override")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Str("component", "memory-store").Msg("failed to hash seed password")
	}

	return map[string]domain.UserAccount{
		"demo@kelasku.id": {
			ID:        xid.New("usr"),
			Name:      "Demo Learner",
			Email:     "demo@kelasku.id",
			Password:  string(hash),
			CreatedAt: time.Now().UTC(),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	return &Store{
		productByID: make(map[int]int),
		behavior:    make(map[string]domain.BehaviorProfile),
		history:     make(map[string][]domain.ViewHistoryEntry),
		favorites:   make(map[string][]int),
		carts:       make(map[string][]domain.CartItem),
		usersByMail: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store holding the default generated catalog and the
// demo account.
func NewSeeded() *Store {
	return NewSeededWith(catalog.Generate(catalog.DefaultSize, catalog.DefaultSeed))
}

// NewSeededWith is NewSeeded with a caller-supplied catalog.
func NewSeededWith(products []domain.Product) *Store {
	s := New()
	_, _ = s.SeedProducts(context.Background(), products)
	s.usersByMail = seedUsers()
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, len(s.products))
	copy(products, s.products)
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.productByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	product := s.products[idx]
	return &product, nil
}

// SeedProducts appends products whose ids are not yet present and returns how
// many were added.
func (s *Store) SeedProducts(_ context.Context, products []domain.Product) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, p := range products {
		if p.ID < 1 || strings.TrimSpace(p.Name) == "" {
			return added, store.ErrInvalidInput
		}
		if _, exists := s.productByID[p.ID]; exists {
			continue
		}
		s.productByID[p.ID] = len(s.products)
		s.products = append(s.products, p)
		added++
	}
	return added, nil
}

func (s *Store) GetBehavior(_ context.Context, userID string) (*domain.BehaviorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.behavior[userID]
	if !ok {
		empty := domain.NewBehaviorProfile()
		return &empty, nil
	}
	cloned := cloneBehavior(profile)
	return &cloned, nil
}

func (s *Store) PutBehavior(_ context.Context, userID string, profile domain.BehaviorProfile) error {
	if userID == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behavior[userID] = cloneBehavior(profile)
	return nil
}

func (s *Store) GetHistory(_ context.Context, userID string) ([]domain.ViewHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history[userID]), nil
}

func (s *Store) PutHistory(_ context.Context, userID string, entries []domain.ViewHistoryEntry) error {
	if userID == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[userID] = slices.Clone(entries)
	return nil
}

func (s *Store) GetFavorites(_ context.Context, userID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.favorites[userID]), nil
}

func (s *Store) PutFavorites(_ context.Context, userID string, productIDs []int) error {
	if userID == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[userID] = slices.Clone(productIDs)
	return nil
}

func (s *Store) GetCart(_ context.Context, userID string) ([]domain.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.carts[userID]), nil
}

func (s *Store) PutCart(_ context.Context, userID string, items []domain.CartItem) error {
	if userID == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = slices.Clone(items)
	return nil
}

func (s *Store) ClearUserState(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.behavior, userID)
	delete(s.history, userID)
	delete(s.favorites, userID)
	delete(s.carts, userID)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || user.ID == "" || user.Password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByMail[email]; exists {
		return store.ErrConflict
	}
	user.Email = email
	s.usersByMail[email] = user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByMail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByMail))
	for _, u := range s.usersByMail {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Email, b.Email)
	})
	return users, nil
}

func cloneBehavior(p domain.BehaviorProfile) domain.BehaviorProfile {
	out := domain.BehaviorProfile{
		TotalViews:         p.TotalViews,
		LastActive:         p.LastActive,
		CategoryViews:      cloneCounts(p.CategoryViews),
		PriceRangeViews:    cloneCounts(p.PriceRangeViews),
		FavoriteCategories: cloneCounts(p.FavoriteCategories),
		CartCategories:     cloneCounts(p.CartCategories),
		SearchHistory:      slices.Clone(p.SearchHistory),
	}
	out.EnsureMaps()
	return out
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
