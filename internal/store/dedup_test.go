package store

import (
	"fmt"
	"sync"
	"testing"
)

func TestDedupStore_Seen(t *testing.T) {
	store := NewDedupStore(100, 0.001)

	if store.Seen("hello") {
		t.Error("First Seen() should report false")
	}
	if !store.Seen("hello") {
		t.Error("Second Seen() should report true")
	}
	if store.Seen("other") {
		t.Error("Seen() for a new key should report false")
	}
	if store.lru.Len() != 2 {
		t.Errorf("Store size should be 2, got %d", store.lru.Len())
	}
}

func TestDedupStore_SeenRefreshesRecency(t *testing.T) {
	store := NewDedupStore(2, 0.001)

	store.Seen("a")
	store.Seen("b")
	store.Seen("a") // a is now most recent
	store.Seen("c") // evicts b

	if !store.has("a") {
		t.Error("Refreshed key should survive eviction")
	}
	if store.has("b") {
		t.Error("Least recently seen key should be evicted")
	}
}

func TestDedupStore_MaxCapacity(t *testing.T) {
	maxEntries := 5
	store := NewDedupStore(maxEntries, 0.001)

	for i := 0; i < maxEntries+3; i++ {
		if store.Seen(fmt.Sprintf("key%d", i)) {
			t.Errorf("key%d should be new", i)
		}
	}

	if store.lru.Len() > maxEntries {
		t.Errorf("Store size should not exceed %d, got %d", maxEntries, store.lru.Len())
	}

	for _, key := range []string{"key0", "key1", "key2"} {
		if store.has(key) {
			t.Errorf("Store should have evicted key %s", key)
		}
	}

	for _, key := range []string{"key5", "key6", "key7"} {
		if !store.Seen(key) {
			t.Errorf("Store should have recent key %s", key)
		}
	}
}

func TestDedupStore_EvictedKeyIsNewAgain(t *testing.T) {
	store := NewDedupStore(2, 0.001)

	store.Seen("a")
	store.Seen("b")
	store.Seen("c") // evicts a

	if store.Seen("a") {
		t.Error("Evicted key should be reported as new")
	}
}

func TestDedupStore_BloomRebuildKeepsRecentKeys(t *testing.T) {
	maxEntries := 10
	store := NewDedupStore(maxEntries, 0.001)

	// Enough churn to trigger several rebuilds
	for i := 0; i < maxEntries*5; i++ {
		store.Seen(fmt.Sprintf("key%d", i))
	}

	for i := maxEntries * 4; i < maxEntries*5; i++ {
		key := fmt.Sprintf("key%d", i)
		if !store.Seen(key) {
			t.Errorf("Store should still have %s after bloom rebuilds", key)
		}
	}
}

func TestDedupStore_BloomFilterEffectiveness(t *testing.T) {
	store := NewDedupStore(1000, 0.001)

	numKeys := 500
	for i := 0; i < numKeys; i++ {
		store.Seen(fmt.Sprintf("key_%d", i))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("key_%d", i)
		if !store.has(key) {
			t.Errorf("Store should have key %s", key)
		}
	}

	falsePositives := 0
	testCount := 1000
	for i := numKeys; i < numKeys+testCount; i++ {
		if store.has(fmt.Sprintf("nonexistent_%d", i)) {
			falsePositives++
		}
	}

	// The LRU is authoritative, so misses are never reported as hits
	if falsePositives != 0 {
		t.Errorf("Expected no false positives, got %d", falsePositives)
	}
}

func TestDedupStore_ConcurrentSeen(t *testing.T) {
	store := NewDedupStore(100, 0.001)

	var wg sync.WaitGroup
	var mu sync.Mutex
	firstSeen := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !store.Seen("same") {
				mu.Lock()
				firstSeen++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstSeen != 1 {
		t.Errorf("Exactly one goroutine should see the key first, got %d", firstSeen)
	}
}

func BenchmarkDedupStore_Seen(b *testing.B) {
	store := NewDedupStore(10000, 0.001)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Seen(fmt.Sprintf("key_%d", i%20000))
	}
}
