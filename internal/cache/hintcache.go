package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
)

// HintCache stores generated hint responses keyed by a digest of model and
// card content, so re-running a lesson never repeats a model call.
type HintCache struct {
	Dir string
}

// HintKey builds a cache key from the model name and the card content the
// hint was generated for.
func HintKey(model, front, back string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + front + "\n\n" + back))
	return hex.EncodeToString(h[:])
}

func (c *HintCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return os.MkdirAll(c.Dir, 0o755)
}

func (c *HintCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached hint if present.
func (c *HintCache) Get(_ context.Context, key string) (string, bool, error) {
	if err := c.ensureDir(); err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return "", false, nil
	}
	return string(b), true, nil
}

// Save writes a hint to the cache.
func (c *HintCache) Save(_ context.Context, key, hint string) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	return os.WriteFile(c.pathFor(key), []byte(hint), 0o644)
}
