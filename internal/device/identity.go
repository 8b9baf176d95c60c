package device

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SettingsStore is the subset of the settings repository identity needs.
// GetSetting returns an empty string for an absent key.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

const identityKey = "device_id"

// Identity returns the stable per-device identifier, creating and persisting
// one on first use. The identifier only distinguishes "same device retry"
// from "different device concurrent session".
func Identity(ctx context.Context, store SettingsStore) (string, error) {
	id, err := store.GetSetting(ctx, identityKey)
	if err != nil {
		return "", fmt.Errorf("loading device id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := store.PutSetting(ctx, identityKey, id); err != nil {
		return "", fmt.Errorf("storing device id: %w", err)
	}
	return id, nil
}
