package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is a best-effort key-value accelerator. Implementations must be safe
// for concurrent use and must never return an expired entry. Callers treat
// any error as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key derives a deterministic cache key from an operation name, the exact
// input text, and any extra parameters. The text is hashed as-is: no case or
// whitespace normalization, so textually different inputs are distinct
// entries even when semantically identical.
func Key(op string, text string, params ...string) string {
	sum := sha256.Sum256([]byte(text))

	key := op + ":" + hex.EncodeToString(sum[:])

	if len(params) > 0 {
		key += ":" + strings.Join(params, ":")
	}

	return key
}
