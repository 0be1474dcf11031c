package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kelasku/backend/internal/catalog"
	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/service"
	"kelasku/backend/internal/store"
)

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, err)
		return
	}
	resp, err := a.auth.Register(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, err)
		return
	}
	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	products, err := a.service.ListProducts(r.Context(), q)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": products,
		"total": len(products),
	})
}

func parseProductQuery(r *http.Request) (catalog.Query, error) {
	values := r.URL.Query()
	q := catalog.Query{
		Category: values.Get("category"),
		Level:    values.Get("level"),
		Search:   values.Get("q"),
		Sort:     strings.ToLower(strings.TrimSpace(values.Get("sort"))),
	}
	switch q.Sort {
	case "", catalog.SortPopular, catalog.SortRating, catalog.SortPriceAsc, catalog.SortPriceDesc:
	default:
		return catalog.Query{}, fmt.Errorf("%w: unknown sort %q", store.ErrInvalidInput, q.Sort)
	}

	var err error
	if q.MinPrice, err = parseInt64Param(values.Get("min_price"), "min_price"); err != nil {
		return catalog.Query{}, err
	}
	if q.MaxPrice, err = parseInt64Param(values.Get("max_price"), "max_price"); err != nil {
		return catalog.Query{}, err
	}
	if raw := strings.TrimSpace(values.Get("min_rating")); raw != "" {
		rating, perr := strconv.ParseFloat(raw, 64)
		if perr != nil || rating < 0 || rating > 5 {
			return catalog.Query{}, fmt.Errorf("%w: min_rating must be between 0 and 5", store.ErrInvalidInput)
		}
		q.MinRating = rating
	}
	return q, nil
}

func parseInt64Param(raw, name string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", store.ErrInvalidInput, name)
	}
	return v, nil
}

func (a *API) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	product, err := a.service.GetProduct(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.service.Categories(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func userID(r *http.Request) string {
	actor, _ := service.ActorFromContext(r.Context())
	return actor.UserID
}

func (a *API) handleTrackView(w http.ResponseWriter, r *http.Request) {
	var req domain.ViewRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, err)
		return
	}
	entry, err := a.service.TrackView(r.Context(), userID(r), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := a.service.History(r.Context(), userID(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (a *API) handleFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := a.service.Favorites(r.Context(), userID(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}

func (a *API) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if err := a.service.AddFavorite(r.Context(), userID(r), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.handleFavorites(w, r)
}

func (a *API) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if err := a.service.RemoveFavorite(r.Context(), userID(r), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.handleFavorites(w, r)
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.Cart(r.Context(), userID(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req domain.CartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, err)
		return
	}
	items, err := a.service.AddToCart(r.Context(), userID(r), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	items, err := a.service.RemoveFromCart(r.Context(), userID(r), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, err)
		return
	}
	resp, err := a.service.Search(r.Context(), userID(r), req.Query)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handlePreferences(w http.ResponseWriter, r *http.Request) {
	profile, err := a.service.Preferences(r.Context(), userID(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleRefreshSuggestions(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.RefreshSuggestions(r.Context(), userID(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleLatestSuggestions(w http.ResponseWriter, r *http.Request) {
	result, ok, err := a.service.LatestSuggestions(r.Context(), userID(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no suggestions yet, request a refresh"))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req domain.AssistantRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, err)
		return
	}
	reply, err := a.service.Ask(r.Context(), userID(r), req.Message)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (a *API) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := a.service.ClearUserData(r.Context(), userID(r)); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
