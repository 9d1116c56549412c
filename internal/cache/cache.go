package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const keyPrefix = "claimcheck:v1:"

// Cache stores encoded verification responses. A failed lookup is reported as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// NormalizeClaim lowercases the claim and collapses runs of whitespace.
func NormalizeClaim(claim string) string {
	return strings.Join(strings.Fields(strings.ToLower(claim)), " ")
}

// Key fingerprints everything that can change a verification response.
func Key(claim, mode string, useCrossEncoder bool, classifierKG, classifierBackup string) string {
	parts := []string{
		NormalizeClaim(claim),
		strings.ToLower(mode),
		strconv.FormatBool(useCrossEncoder),
		strings.ToUpper(classifierKG),
		strings.ToUpper(classifierBackup),
	}
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return keyPrefix + hex.EncodeToString(hash[:])
}
