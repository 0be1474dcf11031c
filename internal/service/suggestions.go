package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/metrics"
	"kelasku/backend/internal/recommendation"
)

func (s *Service) Preferences(ctx context.Context, userID string) (domain.PreferenceProfile, error) {
	state, err := s.loadState(ctx, userID)
	if err != nil {
		return domain.PreferenceProfile{}, err
	}
	return recommendation.ComputePreferences(state.behavior, state.history, state.favorites, state.cart), nil
}

func (s *Service) nextGeneration(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[userID]++
	return s.generations[userID]
}

// RefreshSuggestions runs a suggestion request with retry. Every call gets a
// new generation; a result that finishes after a newer request has started is
// returned to its caller marked stale and is never published.
func (s *Service) RefreshSuggestions(ctx context.Context, userID string) (domain.SuggestionResult, error) {
	startedAt := time.Now()
	generation := s.nextGeneration(userID)
	logger := s.logger.With().Str("user_id", userID).Uint64("generation", generation).Logger()

	result, attempts, err := s.retrier.Do(ctx, func(ctx context.Context) (domain.SuggestionResult, error) {
		res, err := s.suggester.GetSuggestions(ctx, userID)
		switch {
		case err == nil:
			metrics.RecordAttempt(metrics.OutcomeOK)
		case errors.Is(err, recommendation.ErrServiceUnavailable):
			metrics.RecordAttempt(metrics.OutcomeUnavailable)
		default:
			metrics.RecordAttempt(metrics.OutcomeError)
		}
		return res, err
	})
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, recommendation.ErrSuggestionsExhausted) {
			outcome = metrics.OutcomeExhausted
		}
		metrics.RecordSuggestion(outcome, time.Since(startedAt))
		logger.Warn().Err(err).Int("attempts", attempts).Msg("suggestion refresh failed")
		return domain.SuggestionResult{}, err
	}

	result.Generation = generation
	result.Attempts = attempts

	published, err := s.publish(ctx, userID, &result)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to cache suggestions")
	}
	if !published {
		result.Stale = true
		metrics.RecordSuggestion(metrics.OutcomeStale, time.Since(startedAt))
		logger.Info().Msg("discarding stale suggestion result")
		return result, nil
	}

	metrics.RecordSuggestion(metrics.OutcomeOK, time.Since(startedAt))
	logger.Debug().Int("attempts", attempts).Int("items", len(result.Items)).Msg("suggestions refreshed")
	return result, nil
}

func (s *Service) currentGeneration(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// lockPublish serializes cache writes for one user without blocking other
// users on a slow cache.
func (s *Service) lockPublish(userID string) func() {
	mu, _ := s.publishLocks.LoadOrStore(userID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// publish stores result as the latest suggestions unless a newer generation
// exists. Writes for a user are ordered by the per-user publish lock, so a
// newer generation or a clear always lands after an older write.
func (s *Service) publish(ctx context.Context, userID string, result *domain.SuggestionResult) (bool, error) {
	unlock := s.lockPublish(userID)
	defer unlock()

	if result.Generation != s.currentGeneration(userID) {
		return false, nil
	}
	if err := s.cache.Set(ctx, userID, result, s.cacheTTL); err != nil {
		return true, err
	}
	if result.Generation != s.currentGeneration(userID) {
		// A newer generation started during the write.
		return false, nil
	}
	return true, nil
}

// LatestSuggestions returns the last published result, if any.
func (s *Service) LatestSuggestions(ctx context.Context, userID string) (domain.SuggestionResult, bool, error) {
	cached, ok, err := s.cache.Get(ctx, userID)
	if err != nil || !ok {
		return domain.SuggestionResult{}, false, err
	}
	return *cached, true, nil
}

const (
	replyTrending      = "Here are the courses trending right now."
	replyCollaborative = "Learners like you also picked these courses."
	replyContent       = "Based on what you have been browsing, you might like these courses."
	replyEmpty         = "I could not find anything new to suggest yet. Try browsing a few courses first."
)

// Ask answers an assistant message by routing it to one of the scorers.
// Products the user has already seen, favorited or carted are left out.
func (s *Service) Ask(ctx context.Context, userID string, message string) (domain.AssistantReply, error) {
	state, err := s.loadState(ctx, userID)
	if err != nil {
		return domain.AssistantReply{}, err
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return domain.AssistantReply{}, err
	}

	excluded := state.excluded()
	candidates := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if _, skip := excluded[p.ID]; !skip {
			candidates = append(candidates, p)
		}
	}

	profile := recommendation.ComputePreferences(state.behavior, state.history, state.favorites, state.cart)
	reply := domain.AssistantReply{}

	switch intent := strings.ToLower(message); {
	case strings.Contains(intent, "trending"), strings.Contains(intent, "popular"):
		reply.Strategy = domain.StrategyTrending
		reply.Items = recommendation.Trending(candidates, profile)
		reply.Message = replyTrending
	case strings.Contains(intent, "others"), strings.Contains(intent, "people"):
		reply.Strategy = domain.StrategyCollaborative
		reply.Items = recommendation.Collaborative(candidates, userID, s.rnd)
		reply.Message = replyCollaborative
	default:
		reply.Strategy = domain.StrategyContent
		reply.Items = recommendation.ContentBased(candidates, profile, state.history)
		reply.Message = replyContent
		if len(reply.Items) == 0 {
			reply.Strategy = domain.StrategyTrending
			reply.Items = recommendation.Trending(candidates, profile)
			reply.Message = replyTrending
		}
	}

	if len(reply.Items) == 0 {
		reply.Message = replyEmpty
	}
	if reply.Items == nil {
		reply.Items = []domain.ScoredProduct{}
	}
	metrics.RecordAssistant(reply.Strategy)
	return reply, nil
}
