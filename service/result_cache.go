package service

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// ResultCache is an LRU of msgpack-encoded per-file results. A capacity
// of zero disables it.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // most recently used at front
	hits     int
	misses   int
}

type cacheEntry struct {
	Key     string `msgpack:"key"`
	Payload []byte `msgpack:"payload"`
}

// persistedCache is the on-disk layout, oldest entry first
type persistedCache struct {
	Version int          `msgpack:"version"`
	Entries []cacheEntry `msgpack:"entries"`
}

const cacheFormatVersion = 1

// NewResultCache creates a cache holding up to capacity entries
func NewResultCache(capacity int) *ResultCache {
	if capacity < 0 {
		capacity = 0
	}
	return &ResultCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// CacheKey hashes file content together with the options that affect the
// result
func CacheKey(content []byte, options ...interface{}) (string, error) {
	h := sha256.New()
	h.Write(content)
	enc := msgpack.NewEncoder(h)
	enc.SetSortMapKeys(true)
	for _, opt := range options {
		if err := enc.Encode(opt); err != nil {
			return "", fmt.Errorf("failed to encode cache key: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get decodes the cached value for key into out
func (c *ResultCache) Get(key string, out interface{}) bool {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		return false
	}
	c.order.MoveToFront(el)
	payload := el.Value.(*cacheEntry).Payload
	c.mu.Unlock()

	if err := msgpack.Unmarshal(payload, out); err != nil {
		c.remove(key)
		return false
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	cacheHitsTotal.Inc()
	return true
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full
func (c *ResultCache) Put(key string, value interface{}) error {
	if c.capacity == 0 {
		return nil
	}
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, payload)
	return nil
}

func (c *ResultCache) putLocked(key string, payload []byte) {
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).Payload = payload
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cacheEntry{Key: key, Payload: payload})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).Key)
	}
}

func (c *ResultCache) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

// Len returns the number of cached entries
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counts since creation
func (c *ResultCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Save writes the cache to w
func (c *ResultCache) Save(w io.Writer) error {
	c.mu.Lock()
	data := persistedCache{Version: cacheFormatVersion}
	for el := c.order.Back(); el != nil; el = el.Prev() {
		data.Entries = append(data.Entries, *el.Value.(*cacheEntry))
	}
	c.mu.Unlock()

	if err := msgpack.NewEncoder(w).Encode(&data); err != nil {
		return fmt.Errorf("failed to save cache: %w", err)
	}
	return nil
}

// Load adds the entries saved in r. Entries of another format version are
// ignored.
func (c *ResultCache) Load(r io.Reader) error {
	var data persistedCache
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	if data.Version != cacheFormatVersion || c.capacity == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range data.Entries {
		c.putLocked(e.Key, e.Payload)
	}
	return nil
}

// SaveFile writes the cache to path
func (c *ResultCache) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file %s: %w", path, err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFile loads path; a missing file is not an error
func (c *ResultCache) LoadFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file %s: %w", path, err)
	}
	defer f.Close()
	return c.Load(f)
}
