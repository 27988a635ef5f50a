package buffer

import (
	"container/list"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"github.com/arjunparekh/pagecache/common"
	"github.com/arjunparekh/pagecache/types"
)

// LRUKReplacer selects an eviction victim among frames marked evictable,
// giving priority to frames with fewer than k recorded accesses (likely
// one-shot/scan pages) over frames with k or more (hot pages), per
// spec.md §4.2.
type LRUKReplacer struct {
	mu       deadlock.Mutex
	k        int
	capacity int
	logger   *zap.Logger

	accessCount  []int
	isEvictable  []bool
	historyElems []*list.Element // nil when frame isn't in historyList
	cacheElems   []*list.Element // nil when frame isn't in cacheList

	historyList    *list.List // most-recently-accessed at front
	cacheList      *list.List // most-recently-accessed at front
	evictableCount int
}

// NewLRUKReplacer returns a replacer over numFrames frames, none evictable
// and none yet accessed.
func NewLRUKReplacer(numFrames int, k int, logger *zap.Logger) *LRUKReplacer {
	if k < 1 {
		panic("buffer.NewLRUKReplacer: k must be >= 1")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LRUKReplacer{
		k:            k,
		capacity:     numFrames,
		logger:       logger,
		accessCount:  make([]int, numFrames),
		isEvictable:  make([]bool, numFrames),
		historyElems: make([]*list.Element, numFrames),
		cacheElems:   make([]*list.Element, numFrames),
		historyList:  list.New(),
		cacheList:    list.New(),
	}
}

func (r *LRUKReplacer) checkBounds(f types.FrameID) {
	if int(f) < 0 || int(f) >= r.capacity {
		common.Fatal(r.logger, "lru-k replacer: frame id out of bounds", zap.Int("frame_id", int(f)), zap.Int("capacity", r.capacity))
	}
}

// RecordAccess bumps f's access count and moves it between the history and
// cache lists as its count crosses k.
func (r *LRUKReplacer) RecordAccess(f types.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkBounds(f)

	r.accessCount[f]++
	switch {
	case r.accessCount[f] < r.k:
		r.detachHistory(f)
		r.historyElems[f] = r.historyList.PushFront(f)
	case r.accessCount[f] == r.k:
		r.detachHistory(f)
		r.cacheElems[f] = r.cacheList.PushFront(f)
	default:
		r.detachCache(f)
		r.cacheElems[f] = r.cacheList.PushFront(f)
	}
}

// SetEvictable adjusts whether f may be chosen as an eviction victim.
// Idempotent for an unchanged flag.
func (r *LRUKReplacer) SetEvictable(f types.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkBounds(f)

	if r.isEvictable[f] == evictable {
		return
	}
	r.isEvictable[f] = evictable
	if evictable {
		r.evictableCount++
	} else {
		r.evictableCount--
	}
}

// Size returns the number of frames currently marked evictable.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictableCount
}

// Evict picks a victim: the least-recently-accessed evictable frame in the
// history list if one exists, else the least-recently-accessed evictable
// frame in the cache list. On success the victim's access count is reset
// to 0 and it is cleared from the evictable set.
func (r *LRUKReplacer) Evict() (types.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.evictableCount == 0 {
		return 0, false
	}

	if f, ok := r.evictFromTail(r.historyList, r.historyElems); ok {
		r.logger.Debug("lru-k evicted from history", zap.Int("frame_id", int(f)))
		return f, true
	}
	if f, ok := r.evictFromTail(r.cacheList, r.cacheElems); ok {
		r.logger.Debug("lru-k evicted from cache", zap.Int("frame_id", int(f)))
		return f, true
	}
	return 0, false
}

func (r *LRUKReplacer) evictFromTail(l *list.List, elems []*list.Element) (types.FrameID, bool) {
	for e := l.Back(); e != nil; e = e.Prev() {
		f := e.Value.(types.FrameID)
		if !r.isEvictable[f] {
			continue
		}
		l.Remove(e)
		elems[f] = nil
		r.accessCount[f] = 0
		r.isEvictable[f] = false
		r.evictableCount--
		return f, true
	}
	return 0, false
}

// Remove drops f's replacer-tracked state entirely. A no-op if f has never
// been accessed. Fatal if f is non-evictable with a nonzero access count:
// that combination only arises from a caller violating the pin protocol
// (spec.md §4.2/§7 explicitly overrides the original's silent no-op here).
func (r *LRUKReplacer) Remove(f types.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkBounds(f)

	if r.accessCount[f] == 0 {
		return
	}
	if !r.isEvictable[f] {
		common.Fatal(r.logger, "lru-k replacer: remove called on non-evictable frame with recorded accesses",
			zap.Int("frame_id", int(f)), zap.Int("access_count", r.accessCount[f]))
		return
	}

	r.detachHistory(f)
	r.detachCache(f)
	r.accessCount[f] = 0
	r.isEvictable[f] = false
	r.evictableCount--
}

func (r *LRUKReplacer) detachHistory(f types.FrameID) {
	if e := r.historyElems[f]; e != nil {
		r.historyList.Remove(e)
		r.historyElems[f] = nil
	}
}

func (r *LRUKReplacer) detachCache(f types.FrameID) {
	if e := r.cacheElems[f]; e != nil {
		r.cacheList.Remove(e)
		r.cacheElems[f] = nil
	}
}
