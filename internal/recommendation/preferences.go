package recommendation

import (
	"math"
	"sort"

	"kelasku/backend/internal/domain"
)

const (
	favoriteWeight = 3
	cartWeight     = 2

	maxPreferredCategories = 3
	maxRecentCategories    = 5

	assumedAverageRating = 4.5
	ratingSlack          = 0.5
	ratingFloor          = 4.0
)

// ComputePreferences derives a preference profile from raw behavior. It is
// pure: identical inputs give identical output and nothing is mutated. Ties
// are broken by category or bucket name.
func ComputePreferences(
	behavior domain.BehaviorProfile,
	history []domain.ViewHistoryEntry,
	favorites []int,
	cart []domain.CartItem,
) domain.PreferenceProfile {
	scores := make(map[string]int, len(behavior.CategoryViews))
	for category, views := range behavior.CategoryViews {
		scores[category] += views
	}
	for category, favs := range behavior.FavoriteCategories {
		scores[category] += favs * favoriteWeight
	}
	for category, adds := range behavior.CartCategories {
		scores[category] += adds * cartWeight
	}

	preferred := rankByCount(scores)
	if len(preferred) > maxPreferredCategories {
		preferred = preferred[:maxPreferredCategories]
	}

	priceRange := domain.PriceBucketMedium
	if ranked := rankByCount(behavior.PriceRangeViews); len(ranked) > 0 {
		priceRange = ranked[0]
	}

	return domain.PreferenceProfile{
		PreferredCategories: preferred,
		PreferredPriceRange: priceRange,
		MinPreferredRating:  minPreferredRating(history),
		RecentCategories:    recentCategories(history),
		TotalInteractions:   behavior.TotalViews + len(favorites) + len(cart),
		IsActiveUser:        behavior.TotalViews > 5 || len(favorites) > 2 || len(cart) > 0,
	}
}

// rankByCount returns keys ordered by descending count, then by name.
func rankByCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func minPreferredRating(history []domain.ViewHistoryEntry) float64 {
	average := assumedAverageRating
	if len(history) > 0 {
		total := 0.0
		for _, entry := range history {
			total += entry.Product.Rating
		}
		average = total / float64(len(history))
	}
	return math.Max(average-ratingSlack, ratingFloor)
}

// recentCategories collapses the categories of the newest history entries,
// keeping first occurrence order. History is stored newest first.
func recentCategories(history []domain.ViewHistoryEntry) []string {
	recent := history
	if len(recent) > maxRecentCategories {
		recent = recent[:maxRecentCategories]
	}

	seen := make(map[string]struct{}, len(recent))
	out := make([]string, 0, len(recent))
	for _, entry := range recent {
		category := entry.Product.Category
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	return out
}
