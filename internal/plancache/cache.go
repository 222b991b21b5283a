package plancache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache holds encoded plans keyed by a digest of the request that produced
// them. Plans are deterministic in their request, so a hit is always current.
type Cache struct {
	entries *lru.Cache[string, []byte]
}

func New(size int) (*Cache, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("plan cache: %w", err)
	}
	return &Cache{entries: c}, nil
}

// Key digests kind and the JSON encoding of req.
func Key(kind string, req any) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("plan cache key: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) Get(key string) ([]byte, bool) {
	return c.entries.Get(key)
}

func (c *Cache) Add(key string, body []byte) {
	c.entries.Add(key, body)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry; called after snapshots are refreshed.
func (c *Cache) Purge() {
	c.entries.Purge()
}
