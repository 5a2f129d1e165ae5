package ktree

import lru "github.com/hashicorp/golang-lru/v2"

// chunkKey addresses one decoded chunk inside a file.
type chunkKey struct {
	branch string
	chunk  int
}

// chunkCache is a bounded LRU over decoded chunk payloads. It belongs
// to a single open file and is torn down when the file closes, so the
// memory bound is per file, not per process.
type chunkCache struct {
	lru *lru.Cache[chunkKey, []byte]
}

func newChunkCache(size int) (*chunkCache, error) {
	c, err := lru.New[chunkKey, []byte](size)
	if err != nil {
		return nil, err
	}
	return &chunkCache{lru: c}, nil
}

func (c *chunkCache) get(key chunkKey) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *chunkCache) put(key chunkKey, raw []byte) {
	c.lru.Add(key, raw)
}

func (c *chunkCache) drop() {
	c.lru.Purge()
}
