package cache

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// persistedItem is the on-disk form of a cache entry. Values survive restarts
// as decoded JSON (maps and slices), not as their original Go types; callers
// must tolerate a type-assertion miss after reload.
type persistedItem struct {
	Value      interface{} `json:"value"`
	Expiration int64       `json:"expiration"`
}

// FilePersistentCache provides a simple file-backed persistent cache.
type FilePersistentCache struct {
	store    map[string]persistedItem
	mutex    sync.RWMutex
	ttl      time.Duration
	filePath string
	logger   Logger
}

// NewFilePersistentCache creates a new persistent cache with a default TTL and file path.
func NewFilePersistentCache(defaultTTL time.Duration, filePath string, logger Logger) *FilePersistentCache {
	c := &FilePersistentCache{
		store:    make(map[string]persistedItem),
		ttl:      defaultTTL,
		filePath: filePath,
		logger:   logger,
	}
	c.loadFromFile()
	go c.cleanupLoop(10 * time.Minute)
	return c
}

// loadFromFile loads cache items from the file.
func (c *FilePersistentCache) loadFromFile() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	file, err := os.Open(c.filePath)
	if err != nil {
		return
	}
	defer file.Close()
	decoder := json.NewDecoder(file)
	_ = decoder.Decode(&c.store)
}

// saveToFileLocked writes the store to disk. Caller must hold the mutex.
func (c *FilePersistentCache) saveToFileLocked() {
	file, err := os.Create(c.filePath)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("Failed to persist cache", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	defer file.Close()
	encoder := json.NewEncoder(file)
	_ = encoder.Encode(c.store)
}

// Get retrieves an item from the cache.
func (c *FilePersistentCache) Get(ctx context.Context, key string) (interface{}, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, err
	}

	c.mutex.RLock()
	item, found := c.store[key]
	c.mutex.RUnlock()

	if !found {
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cache item not found", nil))
	}
	if time.Now().UnixNano() > item.Expiration {
		if c.logger != nil {
			c.logger.Info("Persistent cache item expired", map[string]interface{}{"key": key})
		}
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cache item expired", nil))
	}
	return item.Value, nil
}

// Set adds or updates an item in the cache.
func (c *FilePersistentCache) Set(ctx context.Context, key string, value interface{}) error {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return err
	}

	c.mutex.Lock()
	c.store[key] = persistedItem{
		Value:      value,
		Expiration: time.Now().Add(c.ttl).UnixNano(),
	}
	c.saveToFileLocked()
	c.mutex.Unlock()

	if c.logger != nil {
		c.logger.Info("Persistent cache item set", map[string]interface{}{"key": key})
	}
	return nil
}

// cleanupLoop periodically removes expired items and saves the file.
func (c *FilePersistentCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		c.mutex.Lock()
		now := time.Now().UnixNano()
		for key, item := range c.store {
			if now > item.Expiration {
				delete(c.store, key)
			}
		}
		c.saveToFileLocked()
		c.mutex.Unlock()
	}
}
