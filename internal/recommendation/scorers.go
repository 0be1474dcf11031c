package recommendation

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"kelasku/backend/internal/behavior"
	"kelasku/backend/internal/domain"
)

// RandSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// DefaultRand draws from the process-wide generator, which is safe for
// concurrent use.
type DefaultRand struct{}

func (DefaultRand) Float64() float64 { return rand.Float64() }

const (
	contentTopN       = 5
	collaborativeTopN = 3
	trendingTopN      = 3

	recentHistoryWindow = 5
	trendingMinReviews  = 300
)

// collaborativeGroups maps a synthetic user group to its preferred
// categories.
var collaborativeGroups = [3][2]string{
	{"programming", "design"},
	{"marketing", "business"},
	{"photography", "music"},
}

// ContentBased scores catalog products against the preference profile and
// the categories of the most recent history entries. Only positive scores are
// kept; the result is ordered by score with catalog order on ties.
func ContentBased(catalog []domain.Product, profile domain.PreferenceProfile, history []domain.ViewHistoryEntry) []domain.ScoredProduct {
	recent := history
	if len(recent) > recentHistoryWindow {
		recent = recent[:recentHistoryWindow]
	}

	scored := make([]domain.ScoredProduct, 0, len(catalog))
	for _, product := range catalog {
		score := 0.0
		if slices.Contains(profile.PreferredCategories, product.Category) {
			score += 0.4
		}
		if slices.Contains(profile.RecentCategories, product.Category) {
			score += 0.3
		}
		if behavior.PriceBucket(product.Price) == profile.PreferredPriceRange {
			score += 0.2
		}
		if product.Rating >= profile.MinPreferredRating {
			score += 0.1
		}
		for _, entry := range recent {
			if entry.Product.ID != product.ID && entry.Product.Category == product.Category {
				score += 0.15
			}
		}
		if score <= 0 {
			continue
		}
		scored = append(scored, domain.ScoredProduct{
			Product:  product,
			Score:    round2(score),
			Strategy: domain.StrategyContent,
		})
	}

	return topScored(scored, contentTopN)
}

// Collaborative stands in for a collaborative filter: the user falls into one
// of three fixed groups by the last digit of its id, and the first matching
// products of that group's categories get a random score in [0.5, 1.0).
func Collaborative(catalog []domain.Product, userID string, rnd RandSource) []domain.ScoredProduct {
	if rnd == nil {
		rnd = DefaultRand{}
	}
	group := collaborativeGroups[userGroup(userID)]

	scored := make([]domain.ScoredProduct, 0, collaborativeTopN)
	for _, product := range catalog {
		if len(scored) == collaborativeTopN {
			break
		}
		if product.Category != group[0] && product.Category != group[1] {
			continue
		}
		scored = append(scored, domain.ScoredProduct{
			Product:  product,
			Score:    0.5 + rnd.Float64()*0.5,
			Strategy: domain.StrategyCollaborative,
		})
	}
	return scored
}

// userGroup returns the last decimal digit of userID modulo the group count,
// or 0 when the id has no digit.
func userGroup(userID string) int {
	for i := len(userID) - 1; i >= 0; i-- {
		if c := userID[i]; c >= '0' && c <= '9' {
			return int(c-'0') % len(collaborativeGroups)
		}
	}
	return 0
}

// Trending keeps products in a preferred category or with more than 300
// reviews, scored by review volume. Scores are not rounded so close review
// counts still rank apart.
func Trending(catalog []domain.Product, profile domain.PreferenceProfile) []domain.ScoredProduct {
	scored := make([]domain.ScoredProduct, 0, len(catalog))
	for _, product := range catalog {
		if !slices.Contains(profile.PreferredCategories, product.Category) && product.Reviews <= trendingMinReviews {
			continue
		}
		scored = append(scored, domain.ScoredProduct{
			Product:  product,
			Score:    float64(product.Reviews) / 500 * 0.8,
			Strategy: domain.StrategyTrending,
		})
	}
	return topScored(scored, trendingTopN)
}

func topScored(scored []domain.ScoredProduct, n int) []domain.ScoredProduct {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func clamp(val float64, minVal float64, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
