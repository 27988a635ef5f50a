// Package hash implements ExtendibleHashIndex: a concurrent associative
// map tuned for cache-sized workloads, built on extendible hashing with
// per-bucket local depth and a power-of-two directory that doubles on
// overflow instead of triggering a full rehash.
package hash

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	pair "github.com/notEpsilon/go-pair"
	"github.com/sasha-s/go-deadlock"
	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"
)

// bucket holds up to Index.bucketSize key/value pairs at a given local
// depth. Multiple directory slots may share one bucket pointer.
type bucket[K comparable, V any] struct {
	localDepth int
	items      []pair.Pair[K, V]
}

// Index is a directory of 2^globalDepth shared bucket pointers mapping K
// to V, matching spec.md §4.1's ExtendibleHashIndex.
type Index[K comparable, V any] struct {
	mu          deadlock.Mutex
	globalDepth int
	directory   []*bucket[K, V]
	bucketSize  int
	hashKey     func(K) uint32
	logger      *zap.Logger
}

// New returns an Index with a single empty bucket at global depth 0.
// hashKey must be a stable hash function for K; if nil, DefaultHash is
// used (go's fmt.Sprintf over murmur3, adequate for any comparable K but
// slower than a type-specific hash). If logger is nil, a no-op logger is
// used.
func New[K comparable, V any](bucketSize int, hashKey func(K) uint32, logger *zap.Logger) *Index[K, V] {
	if bucketSize < 1 {
		panic("hash.New: bucketSize must be >= 1")
	}
	if hashKey == nil {
		hashKey = DefaultHash[K]
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index[K, V]{
		directory:  []*bucket[K, V]{{localDepth: 0}},
		bucketSize: bucketSize,
		hashKey:    hashKey,
		logger:     logger,
	}
}

// DefaultHash hashes any comparable key via murmur3 over its %v string
// form. Good enough when no type-specific hash is supplied; callers with a
// byte-serializable key (PageID, for instance) should supply a direct
// hash instead.
func DefaultHash[K comparable](k K) uint32 {
	h := murmur3.New128()
	h.Write([]byte(fmt.Sprintf("%v", k)))
	sum := h.Sum(nil)
	return uint32(sum[0]) | uint32(sum[1])<<8 | uint32(sum[2])<<16 | uint32(sum[3])<<24
}

func lowMask(n uint32, bits int) uint32 {
	if bits <= 0 {
		return 0
	}
	mask := uint32(1)<<uint(bits) - 1
	return n & mask
}

func (idx *Index[K, V]) slotOf(k K) int {
	return int(lowMask(idx.hashKey(k), idx.globalDepth))
}

// Find returns a copy of the value mapped to k, if present.
func (idx *Index[K, V]) Find(k K) (V, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b := idx.directory[idx.slotOf(k)]
	for _, item := range b.items {
		if item.First == k {
			return item.Second, true
		}
	}
	var zero V
	return zero, false
}

// Remove deletes the entry for k if present and reports whether it was.
func (idx *Index[K, V]) Remove(k K) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b := idx.directory[idx.slotOf(k)]
	for i, item := range b.items {
		if item.First == k {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// Insert upserts k -> v: overwrites the existing value if k is present,
// else inserts, splitting and possibly growing the directory as needed.
func (idx *Index[K, V]) Insert(k K, v V) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.insertLocked(k, v)
}

func (idx *Index[K, V]) insertLocked(k K, v V) {
	for {
		slot := idx.slotOf(k)
		b := idx.directory[slot]

		overwritten := false
		for i, item := range b.items {
			if item.First == k {
				b.items[i].Second = v
				overwritten = true
				break
			}
		}
		if overwritten {
			return
		}

		if len(b.items) < idx.bucketSize {
			b.items = append(b.items, pair.New(k, v))
			return
		}

		if b.localDepth == idx.globalDepth {
			idx.growDirectory()
		}
		idx.splitBucket(slot)
		// retry: the directory has changed, re-resolve the slot for k.
	}
}

func (idx *Index[K, V]) growDirectory() {
	oldLen := 1 << idx.globalDepth
	for s := 0; s < oldLen; s++ {
		idx.directory = append(idx.directory, idx.directory[s])
	}
	idx.globalDepth++
	idx.logger.Debug("hash index directory doubled", zap.Int("global_depth", idx.globalDepth))
}

// splitBucket splits the bucket occupying slot, incrementing its local
// depth, redistributing its items between it and a fresh sibling bucket,
// and repointing every directory slot that should now reach the sibling.
func (idx *Index[K, V]) splitBucket(slot int) {
	b := idx.directory[slot]
	b.localDepth++
	newDepth := b.localDepth
	survivingPattern := lowMask(uint32(slot), newDepth-1)

	sibling := &bucket[K, V]{localDepth: newDepth}

	kept := make([]pair.Pair[K, V], 0, len(b.items))
	for _, item := range b.items {
		if lowMask(idx.hashKey(item.First), newDepth) == survivingPattern {
			kept = append(kept, item)
		} else {
			sibling.items = append(sibling.items, item)
		}
	}
	b.items = kept

	dirLen := 1 << idx.globalDepth
	for s := 0; s < dirLen; s++ {
		si := uint32(s)
		if lowMask(si, newDepth-1) == survivingPattern && lowMask(si, newDepth) != survivingPattern {
			idx.directory[s] = sibling
		}
	}

	idx.logger.Debug("hash bucket split",
		zap.Int("slot", slot), zap.Int("new_local_depth", newDepth))
}

// GlobalDepth returns the current directory depth (directory has
// 2^GlobalDepth() slots).
func (idx *Index[K, V]) GlobalDepth() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.globalDepth
}

// LocalDepth returns the local depth of the bucket occupying directory
// slot. Panics if slot is out of range.
func (idx *Index[K, V]) LocalDepth(slot int) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.directory[slot].localDepth
}

// NumBuckets returns the count of distinct bucket identities reachable
// through the directory (directory slots may alias one bucket).
func (idx *Index[K, V]) NumBuckets() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	seen := mapset.NewSet[*bucket[K, V]]()
	for _, b := range idx.directory {
		seen.Add(b)
	}
	return seen.Cardinality()
}
