package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const authTokenKey = "auth_token"

// ConfigStore is the key/value table the auth token lives in.
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// EnsureAuthToken returns the stored bearer token, generating one on first
// start.
func EnsureAuthToken(ctx context.Context, repo ConfigStore) (string, error) {
	existing, err := repo.GetConfig(ctx, authTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, authTokenKey, token); err != nil {
		return "", fmt.Errorf("store auth token: %w", err)
	}
	return token, nil
}
