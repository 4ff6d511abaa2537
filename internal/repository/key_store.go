package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"Heatmap/internal/service/cache"
)

const apiKeyKey = "config:finnhub_api_key"

type storedKey struct {
	Key       string `json:"key"`
	UpdatedAt int64  `json:"updated_at"`
}

// KeyStore holds the per-deployment Finnhub credential. A stored key takes
// precedence over the environment default; an explicit override beats both.
type KeyStore struct {
	cache cache.BytesCache
	now   func() time.Time
}

func NewKeyStore(c cache.BytesCache) *KeyStore {
	return &KeyStore{cache: c, now: time.Now}
}

func (s *KeyStore) StoredKey(ctx context.Context) (string, int64, error) {
	b, ok, err := s.cache.GetBytes(ctx, apiKeyKey)
	if err != nil {
		return "", 0, fmt.Errorf("key store read: %w", err)
	}
	if !ok {
		return "", 0, nil
	}
	var sk storedKey
	if err := json.Unmarshal(b, &sk); err != nil {
		return "", 0, nil
	}
	return strings.TrimSpace(sk.Key), sk.UpdatedAt, nil
}

func (s *KeyStore) SetKey(ctx context.Context, key string) error {
	sk := storedKey{Key: strings.TrimSpace(key), UpdatedAt: s.now().Unix()}
	b, err := json.Marshal(sk)
	if err != nil {
		return fmt.Errorf("key store encode: %w", err)
	}
	if err := s.cache.SetBytes(ctx, apiKeyKey, b, 0); err != nil {
		return fmt.Errorf("key store write: %w", err)
	}
	return nil
}

// MaskKey renders a key safe for display: short keys keep only their last
// two characters, longer ones their first and last three.
func MaskKey(key string) string {
	k := strings.TrimSpace(key)
	if k == "" {
		return ""
	}
	if len(k) <= 6 {
		if len(k) < 2 {
			return "***" + k
		}
		return "***" + k[len(k)-2:]
	}
	return k[:3] + "***" + k[len(k)-3:]
}
