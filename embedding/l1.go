// File: embedding/l1.go
package embedding

import lru "github.com/hashicorp/golang-lru/v2"

// l1Cache is the in-memory LRU of decompressed vectors. Evictions are
// silent: L2/L3 remain the authoritative copy, so an evicted key is
// simply re-fetched and re-promoted on its next Get.
type l1Cache struct {
	cache *lru.Cache[Key, []float32]
}

func newL1Cache(size int) (*l1Cache, error) {
	c, err := lru.New[Key, []float32](size)
	if err != nil {
		return nil, err
	}
	return &l1Cache{cache: c}, nil
}

func (l *l1Cache) get(k Key) ([]float32, bool) {
	return l.cache.Get(k)
}

func (l *l1Cache) put(k Key, v []float32) {
	l.cache.Add(k, v)
}

func (l *l1Cache) len() int { return l.cache.Len() }
