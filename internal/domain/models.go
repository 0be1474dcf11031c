package domain

import "time"

type Product struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Price            int64   `json:"price"`
	Image            string  `json:"image"`
	ShortDescription string  `json:"shortDescription"`
	FullDescription  string  `json:"fullDescription"`
	Rating           float64 `json:"rating"`
	Reviews          int     `json:"reviews"`
	Category         string  `json:"category"`
	Instructor       string  `json:"instructor"`
	Duration         string  `json:"duration"`
	Level            string  `json:"level"`
}

type ViewHistoryEntry struct {
	Product       Product       `json:"product"`
	FirstViewed   time.Time     `json:"firstViewed"`
	LastViewed    time.Time     `json:"lastViewed"`
	ViewCount     int           `json:"viewCount"`
	TotalViewTime time.Duration `json:"totalViewTime"`
}

type SearchEntry struct {
	Query        string    `json:"query"`
	Timestamp    time.Time `json:"timestamp"`
	ResultsCount int       `json:"resultsCount"`
}

// BehaviorProfile holds the raw interaction counters for one user. The zero
// value is usable once EnsureMaps has been called.
type BehaviorProfile struct {
	CategoryViews      map[string]int `json:"categoryViews"`
	PriceRangeViews    map[string]int `json:"priceRangeViews"`
	TotalViews         int            `json:"totalViews"`
	FavoriteCategories map[string]int `json:"favoriteCategories"`
	SearchHistory      []SearchEntry  `json:"searchHistory"`
	CartCategories     map[string]int `json:"cartCategories"`
	LastActive         time.Time      `json:"lastActive"`
}

func NewBehaviorProfile() BehaviorProfile {
	p := BehaviorProfile{}
	p.EnsureMaps()
	return p
}

func (p *BehaviorProfile) EnsureMaps() {
	if p.CategoryViews == nil {
		p.CategoryViews = make(map[string]int)
	}
	if p.PriceRangeViews == nil {
		p.PriceRangeViews = make(map[string]int)
	}
	if p.FavoriteCategories == nil {
		p.FavoriteCategories = make(map[string]int)
	}
	if p.CartCategories == nil {
		p.CartCategories = make(map[string]int)
	}
	if p.SearchHistory == nil {
		p.SearchHistory = make([]SearchEntry, 0)
	}
}

type PreferenceProfile struct {
	PreferredCategories []string `json:"preferredCategories"`
	PreferredPriceRange string   `json:"preferredPriceRange"`
	MinPreferredRating  float64  `json:"minPreferredRating"`
	RecentCategories    []string `json:"recentCategories"`
	TotalInteractions   int      `json:"totalInteractions"`
	IsActiveUser        bool     `json:"isActiveUser"`
}

type CartItem struct {
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

type SuggestionResult struct {
	Items       []Product `json:"items"`
	Rationale   string    `json:"rationale"`
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"generatedAt"`
	Generation  uint64    `json:"generation,omitempty"`
	Attempts    int       `json:"attempts,omitempty"`
	Stale       bool      `json:"stale,omitempty"`
}

type ScoredProduct struct {
	Product  Product `json:"product"`
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy"`
}

type AssistantRequest struct {
	Message string `json:"message" validate:"required,max=500"`
}

type AssistantReply struct {
	Message  string          `json:"message"`
	Strategy string          `json:"strategy"`
	Items    []ScoredProduct `json:"items"`
}

type ViewRequest struct {
	ProductID   int `json:"product_id" validate:"required,gt=0"`
	ViewSeconds int `json:"view_seconds" validate:"gte=0,lte=86400"`
}

type CartAddRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"gte=0,lte=99"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

type SearchResponse struct {
	Query    string    `json:"query"`
	Results  []Product `json:"results"`
	Recorded bool      `json:"recorded"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	UserID string
	Email  string
	Name   string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID        string
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
}

type CategorySummary struct {
	Name     string `json:"name"`
	Products int    `json:"products"`
}

const (
	PriceBucketBudget  = "budget"
	PriceBucketMedium  = "medium"
	PriceBucketPremium = "premium"
)

const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelAllLevels    = "All levels"
)

const (
	StrategyContent       = "content"
	StrategyCollaborative = "collaborative"
	StrategyTrending      = "trending"
)
