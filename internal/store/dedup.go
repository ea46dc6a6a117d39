// Package store provides the credential caches and the recent-submission dedup store.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DedupStore remembers the most recent keys it has seen. A Bloom filter
// answers most misses without touching the LRU; the LRU bounds memory and is
// authoritative for hits.
type DedupStore struct {
	bloom                  *bloom.BloomFilter
	lru                    *lru.Cache[string, struct{}]
	mutex                  sync.Mutex
	maxEntries             int
	bloomFalsePositiveRate float64
	evictions              int
}

// NewDedupStore creates a dedup store holding up to maxEntries keys.
func NewDedupStore(maxEntries int, bloomFalsePositiveRate float64) *DedupStore {
	if maxEntries <= 0 || maxEntries > int(^uint(0)>>1) {
		panic("maxEntries value out of range for uint conversion")
	}

	ds := &DedupStore{
		maxEntries:             maxEntries,
		bloomFalsePositiveRate: bloomFalsePositiveRate,
	}
	ds.lru, _ = lru.NewWithEvict[string, struct{}](maxEntries, ds.onEvict)
	ds.bloom = bloom.NewWithEstimates(uint(maxEntries), bloomFalsePositiveRate)
	return ds
}

// Seen records key and reports whether it had already been recorded.
func (ds *DedupStore) Seen(key string) bool {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.has(key) {
		ds.lru.Get(key) // refresh recency
		return true
	}
	ds.add(key)
	return false
}

func (ds *DedupStore) has(key string) bool {
	if !ds.bloom.TestString(key) {
		return false
	}
	return ds.lru.Contains(key)
}

func (ds *DedupStore) add(key string) {
	if ds.lru.Contains(key) {
		return
	}
	ds.bloom.AddString(key)
	ds.lru.Add(key, struct{}{})

	// Bloom filters cannot forget; rebuild once a full cache worth of keys has
	// been evicted so the false positive rate stays near its target.
	if ds.evictions >= ds.maxEntries {
		ds.rebuildBloom()
	}
}

// onEvict runs under ds.mutex, from within lru.Add.
func (ds *DedupStore) onEvict(string, struct{}) {
	ds.evictions++
}

func (ds *DedupStore) rebuildBloom() {
	ds.bloom = bloom.NewWithEstimates(uint(ds.maxEntries), ds.bloomFalsePositiveRate)
	for _, key := range ds.lru.Keys() {
		ds.bloom.AddString(key)
	}
	ds.evictions = 0
}
