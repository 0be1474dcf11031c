package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"kelasku/backend/internal/behavior"
	"kelasku/backend/internal/cache"
	"kelasku/backend/internal/catalog"
	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/recommendation"
	"kelasku/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Deps wires the service. Only Repo is required; the rest default to
// implementations built on top of it.
type Deps struct {
	Repo      store.Repository
	Catalog   *catalog.Cache
	Tracker   *behavior.Tracker
	Suggester *recommendation.Suggester
	Retrier   *recommendation.Retrier
	Cache     cache.SuggestionCache
	CacheTTL  time.Duration
	Rand      recommendation.RandSource
	Logger    zerolog.Logger
}

type Service struct {
	repo      store.Repository
	catalog   *catalog.Cache
	tracker   *behavior.Tracker
	suggester *recommendation.Suggester
	retrier   *recommendation.Retrier
	cache     cache.SuggestionCache
	cacheTTL  time.Duration
	rnd       recommendation.RandSource
	logger    zerolog.Logger

	// stateMu serializes read-modify-write of favorites and carts.
	stateMu sync.Mutex

	genMu       sync.Mutex
	generations map[string]uint64

	// publishLocks holds a *sync.Mutex per user ordering cache writes.
	publishLocks sync.Map
}

func New(deps Deps) *Service {
	if deps.Catalog == nil {
		deps.Catalog = catalog.NewCache(deps.Repo)
	}
	if deps.Rand == nil {
		deps.Rand = recommendation.DefaultRand{}
	}
	if deps.Tracker == nil {
		deps.Tracker = behavior.NewTracker(deps.Repo, deps.Catalog, behavior.AttributionCatalog)
	}
	if deps.Suggester == nil {
		deps.Suggester = recommendation.NewSuggester(deps.Catalog, deps.Repo, recommendation.SuggesterConfig{
			Delay:       recommendation.DefaultDelay,
			FailureRate: recommendation.DefaultFailureRate,
		}, deps.Rand)
	}
	if deps.Retrier == nil {
		deps.Retrier = recommendation.NewRetrier(deps.Logger)
	}
	if deps.Cache == nil {
		deps.Cache = cache.NoopSuggestionCache{}
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}

	return &Service{
		repo:        deps.Repo,
		catalog:     deps.Catalog,
		tracker:     deps.Tracker,
		suggester:   deps.Suggester,
		retrier:     deps.Retrier,
		cache:       deps.Cache,
		cacheTTL:    deps.CacheTTL,
		rnd:         deps.Rand,
		logger:      deps.Logger,
		generations: make(map[string]uint64),
	}
}

func (s *Service) ListProducts(ctx context.Context, q catalog.Query) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(products, q), nil
}

func (s *Service) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	if id < 1 {
		return domain.Product{}, store.ErrInvalidInput
	}
	product, ok, err := s.catalog.Lookup(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !ok {
		return domain.Product{}, store.ErrNotFound
	}
	return product, nil
}

func (s *Service) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Summarize(products), nil
}

type userState struct {
	behavior  domain.BehaviorProfile
	history   []domain.ViewHistoryEntry
	favorites []int
	cart      []domain.CartItem
}

func (s *Service) loadState(ctx context.Context, userID string) (userState, error) {
	var state userState

	profile, err := s.repo.GetBehavior(ctx, userID)
	if err != nil {
		return state, fmt.Errorf("load behavior: %w", err)
	}
	state.behavior = *profile
	state.behavior.EnsureMaps()

	if state.history, err = s.repo.GetHistory(ctx, userID); err != nil {
		return state, fmt.Errorf("load history: %w", err)
	}
	if state.favorites, err = s.repo.GetFavorites(ctx, userID); err != nil {
		return state, fmt.Errorf("load favorites: %w", err)
	}
	if state.cart, err = s.repo.GetCart(ctx, userID); err != nil {
		return state, fmt.Errorf("load cart: %w", err)
	}
	return state, nil
}

func (st userState) excluded() map[int]struct{} {
	ids := make(map[int]struct{}, len(st.history)+len(st.favorites)+len(st.cart))
	for _, entry := range st.history {
		ids[entry.Product.ID] = struct{}{}
	}
	for _, id := range st.favorites {
		ids[id] = struct{}{}
	}
	for _, item := range st.cart {
		ids[item.Product.ID] = struct{}{}
	}
	return ids
}

// ClearUserData wipes all browsing state for the user and invalidates any
// suggestion refresh still in flight.
func (s *Service) ClearUserData(ctx context.Context, userID string) error {
	if userID == "" {
		return store.ErrInvalidInput
	}

	// stateMu fences favorite and cart writes; the tracker lock fences
	// behavior and history writes.
	s.stateMu.Lock()
	err := s.tracker.Clear(ctx, userID)
	s.stateMu.Unlock()
	if err != nil {
		return err
	}

	s.nextGeneration(userID)

	unlock := s.lockPublish(userID)
	err = s.cache.Delete(ctx, userID)
	unlock()
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to drop cached suggestions")
	}
	s.logger.Info().Str("user_id", userID).Msg("user data cleared")
	return nil
}
