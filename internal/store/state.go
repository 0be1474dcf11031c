package store

import (
	"fmt"

	json "github.com/goccy/go-json"

	"kelasku/backend/internal/domain"
)

// SQL backends keep each piece of user state as one JSON document keyed by
// (user_id, state_key). These helpers own that document format.

func EncodeState(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return payload, nil
}

func DecodeBehavior(payload []byte) (*domain.BehaviorProfile, error) {
	profile := domain.NewBehaviorProfile()
	if len(payload) == 0 {
		return &profile, nil
	}
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, fmt.Errorf("decode behavior: %w", err)
	}
	profile.EnsureMaps()
	return &profile, nil
}

func DecodeHistory(payload []byte) ([]domain.ViewHistoryEntry, error) {
	var entries []domain.ViewHistoryEntry
	if len(payload) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

func DecodeFavorites(payload []byte) ([]int, error) {
	var ids []int
	if len(payload) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(payload, &ids); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return ids, nil
}

func DecodeCart(payload []byte) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if len(payload) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}
