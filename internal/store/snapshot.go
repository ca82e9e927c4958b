package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Load decodes the JSON value stored under key into a T. A missing key
// yields defaultValue with a nil error. A value that fails to decode yields
// defaultValue together with the decode error so callers can log and go on.
func Load[T any](ctx context.Context, s Store, key string, defaultValue T) (T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return defaultValue, nil
		}
		return defaultValue, err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return defaultValue, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, nil
}

// Save encodes value as JSON and stores it under key.
func Save[T any](ctx context.Context, s Store, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}
