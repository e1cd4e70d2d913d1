package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// LocatorPrefix prefixes the content hash in a vote's metadata locator.
const LocatorPrefix = "ipfs:"

// PinDescription publishes vote descriptions, reusing earlier pins of the
// same text
type PinDescription struct {
	pinner Pinner
	cache  PinCache
	log    *slog.Logger
}

// NewPinDescription creates a new PinDescription use case
func NewPinDescription(pinner Pinner, cache PinCache, log *slog.Logger) *PinDescription {
	return &PinDescription{pinner: pinner, cache: cache, log: log.With("component", "pin")}
}

// DescriptionKey is the cache key of a description.
func DescriptionKey(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])
}

// Execute returns the locator for description, pinning it if needed
func (uc *PinDescription) Execute(ctx context.Context, description string) (string, error) {
	key := DescriptionKey(description)

	hash, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.log.Warn("pin cache unavailable, pinning again", "error", err)
	} else if ok {
		uc.log.Info("found cached pin for description", "hash", hash)
		return LocatorPrefix + hash, nil
	}

	hash, err = uc.pinner.Pin(ctx, description)
	if err != nil {
		return "", fmt.Errorf("failed to pin vote description: %w", err)
	}
	uc.log.Info("pinned vote description", "hash", hash)

	if err := uc.cache.Put(ctx, key, hash); err != nil {
		uc.log.Warn("could not save pin cache", "error", err)
	}
	return LocatorPrefix + hash, nil
}
