// Package cache is the durable per-user key/value store. It stands in for the
// browser's localStorage: one JSON file per slot under the data directory,
// shared between the sync client, the notifier and the auth gate.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
)

// Cache reads and writes JSON slots under a single directory. A file lock
// serializes access so a running notifier and a CLI invocation cannot tear
// each other's writes.
type Cache struct {
	dir    string
	flk    *flock.Flock
	logger *logger.Logger
}

// New creates the data directory if needed and returns a cache over it.
func New(dir string, log *logger.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Cache{
		dir:    dir,
		flk:    flock.New(filepath.Join(dir, ".lifeos.lock")),
		logger: log.WithComponent("cache"),
	}, nil
}

// Dir returns the backing directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Get unmarshals the slot into v. Missing slots and parse failures both report
// false; the caller degrades to its zero value.
func (c *Cache) Get(key string, v any) bool {
	c.acquire()
	defer c.release()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warnw("Discarding unreadable cache slot", "key", key, "error", err)
		return false
	}
	return true
}

// Put marshals v into the slot. Write failures are logged and swallowed; the
// caller must keep working without durable state.
func (c *Cache) Put(key string, v any) {
	c.acquire()
	defer c.release()

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Errorw("Failed to encode cache slot", "key", key, "error", err)
		return
	}

	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		c.logger.Errorw("Failed to write cache slot", "key", key, "error", err)
		return
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		c.logger.Errorw("Failed to replace cache slot", "key", key, "error", err)
	}
}

// GetList reads a collection slot, degrading to an empty list.
func (c *Cache) GetList(key string) []entities.Record {
	var records []entities.Record
	if !c.Get(key, &records) || records == nil {
		return []entities.Record{}
	}
	return records
}

// PutList writes a collection slot. A nil list is stored as an empty array so a
// later read yields [] rather than null.
func (c *Cache) PutList(key string, records []entities.Record) {
	if records == nil {
		records = []entities.Record{}
	}
	c.Put(key, records)
}

// Delete removes a slot.
func (c *Cache) Delete(key string) {
	c.acquire()
	defer c.release()

	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		c.logger.Errorw("Failed to delete cache slot", "key", key, "error", err)
	}
}

// Reset clears the three collection slots, leaving settings and session alone.
func (c *Cache) Reset() {
	for _, col := range entities.Collections() {
		c.Delete(col.CacheKey())
	}
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *Cache) acquire() {
	if err := c.flk.Lock(); err != nil {
		c.logger.Warnw("Cache lock unavailable, proceeding unlocked", "error", err)
	}
}

func (c *Cache) release() {
	if err := c.flk.Unlock(); err != nil {
		c.logger.Warnw("Cache unlock failed", "error", err)
	}
}
