// Package buffer implements the page-cache core: LRUKReplacer (this file's
// sibling) and BufferPool, which owns the fixed frame array, free list,
// hash index, and replacer, and exposes the client-facing cache API.
package buffer

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"github.com/arjunparekh/pagecache/common"
	"github.com/arjunparekh/pagecache/container/hash"
	"github.com/arjunparekh/pagecache/storage/disk"
	"github.com/arjunparekh/pagecache/storage/page"
	"github.com/arjunparekh/pagecache/types"
)

// ErrPoolExhausted is returned by NewPage/FetchPage when every frame is
// pinned: no free frame and no evictable frame exists.
var ErrPoolExhausted = errors.New("buffer pool: no free or evictable frame available")

// LogManager is the narrow capability BufferPool needs from the
// write-ahead log: Sync makes pending log records durable. BufferPool
// calls it only before writing back a dirty frame during eviction;
// FlushPage and FlushAll write without calling it. WAL internals are out
// of scope for this module (spec.md §1); a BufferPool constructed without
// one simply skips this step.
type LogManager interface {
	Sync() error
}

func hashPageID(id types.PageID) uint32 {
	return hash.DefaultHash(id)
}

// BufferPool is a fixed-capacity cache mediating between a DiskManager and
// in-memory clients, per spec.md §4.3.
type BufferPool struct {
	mu deadlock.Mutex

	frames   []*page.Frame
	freeList []types.FrameID
	index    *hash.Index[types.PageID, types.FrameID]
	replacer *LRUKReplacer

	diskManager disk.DiskManager
	logManager  LogManager
	allocator   *types.PageIDAllocator

	logger             *zap.Logger
	bucketSizeOverride int
}

// Option configures a BufferPool at construction.
type Option func(*BufferPool)

// WithLogManager attaches a write-ahead log collaborator: its Sync is
// called before a dirty frame is written back during eviction.
func WithLogManager(lm LogManager) Option {
	return func(p *BufferPool) { p.logManager = lm }
}

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *BufferPool) { p.logger = logger }
}

// WithBucketSize overrides the hash index's bucket capacity (default
// common.DefaultBucketSize).
func WithBucketSize(n int) Option {
	return func(p *BufferPool) { p.bucketSizeOverride = n }
}

// NewBufferPool constructs a pool of poolSize frames backed by dm, with an
// LRU-K replacer parameterized by replacerK (spec.md §6 configuration:
// pool_size, replacer_k, bucket_size, PAGE_SIZE).
func NewBufferPool(poolSize int, replacerK int, dm disk.DiskManager, opts ...Option) *BufferPool {
	if poolSize < 1 {
		panic("buffer.NewBufferPool: poolSize must be >= 1")
	}
	p := &BufferPool{
		diskManager: dm,
		allocator:   types.NewPageIDAllocator(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	bucketSize := common.DefaultBucketSize
	if p.bucketSizeOverride > 0 {
		bucketSize = p.bucketSizeOverride
	}

	p.frames = make([]*page.Frame, poolSize)
	p.freeList = make([]types.FrameID, poolSize)
	for i := 0; i < poolSize; i++ {
		p.frames[i] = page.NewFrame()
		p.freeList[i] = types.FrameID(i)
	}
	p.index = hash.New[types.PageID, types.FrameID](bucketSize, hashPageID, p.logger)
	p.replacer = NewLRUKReplacer(poolSize, replacerK, p.logger)
	return p
}

// NewPage allocates a fresh page, installs it into an available frame
// (free list first, else an LRU-K victim), pins it once, and returns its
// id and frame handle. Fails with ErrPoolExhausted if no frame is
// available.
func (p *BufferPool) NewPage() (types.PageID, *page.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 && p.replacer.Size() == 0 {
		return types.InvalidPageID, nil, ErrPoolExhausted
	}

	frameID, err := p.acquireFrame()
	if err != nil {
		return types.InvalidPageID, nil, err
	}

	pageID := p.allocator.Next()
	p.index.Insert(pageID, frameID)
	frame := p.frames[frameID]
	frame.Install(pageID)
	p.replacer.SetEvictable(frameID, false)
	p.replacer.RecordAccess(frameID)

	p.logger.Debug("new page", zap.Int32("page_id", int32(pageID)), zap.Int32("frame_id", int32(frameID)))
	return pageID, frame, nil
}

// FetchPage returns a pinned handle to id's frame, reading from disk on a
// miss. A hit never re-reads disk. Fails with ErrPoolExhausted if id is
// not resident and no frame is available.
func (p *BufferPool) FetchPage(id types.PageID) (*page.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frameID, ok := p.index.Find(id); ok {
		frame := p.frames[frameID]
		frame.Pin()
		p.replacer.SetEvictable(frameID, false)
		p.replacer.RecordAccess(frameID)
		p.logger.Debug("fetch page hit", zap.Int32("page_id", int32(id)), zap.Int32("frame_id", int32(frameID)))
		return frame, nil
	}

	if len(p.freeList) == 0 && p.replacer.Size() == 0 {
		return nil, ErrPoolExhausted
	}

	frameID, err := p.acquireFrame()
	if err != nil {
		return nil, err
	}

	p.index.Insert(id, frameID)
	frame := p.frames[frameID]
	frame.Install(id)
	if err := p.diskManager.ReadPage(id, frame.Data()[:]); err != nil {
		// Roll back: the frame never got to a usable state. It must go
		// back onto the free list, or it's lost to every future caller
		// (absent from both the free list and the replacer, since it was
		// never marked evictable).
		p.index.Remove(id)
		frame.Reset()
		p.freeList = append(p.freeList, frameID)
		return nil, fmt.Errorf("buffer pool: fetch page %d: %w", id, err)
	}
	p.replacer.SetEvictable(frameID, false)
	p.replacer.RecordAccess(frameID)

	p.logger.Debug("fetch page miss", zap.Int32("page_id", int32(id)), zap.Int32("frame_id", int32(frameID)))
	return frame, nil
}

// acquireFrame returns a usable frame id: the free list's front if
// non-empty, else an LRU-K eviction victim (writing its data back first
// if dirty, and removing its old index mapping). Caller must hold p.mu.
func (p *BufferPool) acquireFrame() (types.FrameID, error) {
	if len(p.freeList) > 0 {
		frameID := p.freeList[0]
		p.freeList = p.freeList[1:]
		return frameID, nil
	}

	frameID, ok := p.replacer.Evict()
	if !ok {
		return 0, ErrPoolExhausted
	}

	victim := p.frames[frameID]
	oldPageID := victim.PageID()
	if victim.IsDirty() {
		if p.logManager != nil {
			if err := p.logManager.Sync(); err != nil {
				// Undo the eviction: leave the old mapping in place and
				// make the frame evictable again, per spec.md §7's "abort
				// the eviction, restore the old mapping" rule for a failed
				// write-back. Note this only restores evictability, not
				// history/cache class: Evict already zeroed the access
				// count, so RecordAccess below re-admits the frame with a
				// count of 1 (the history list unless k is 1) whatever
				// list it was in before eviction was attempted.
				p.replacer.RecordAccess(frameID)
				p.replacer.SetEvictable(frameID, true)
				return 0, fmt.Errorf("buffer pool: wal sync before evicting page %d: %w", oldPageID, err)
			}
		}
		if err := p.diskManager.WritePage(oldPageID, victim.Data()[:]); err != nil {
			// Same caveat as above: the frame survives as retryable and
			// index-mapped, but loses its pre-eviction history/cache class.
			p.replacer.RecordAccess(frameID)
			p.replacer.SetEvictable(frameID, true)
			return 0, fmt.Errorf("buffer pool: write back page %d during eviction: %w", oldPageID, err)
		}
	}

	p.index.Remove(oldPageID)
	victim.Reset()
	return frameID, nil
}

// UnpinPage releases one pin on id. If is_dirty is true the frame is
// marked dirty permanently (a later clean unpin cannot clear it). Returns
// false if id is not resident or already fully unpinned.
func (p *BufferPool) UnpinPage(id types.PageID, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.index.Find(id)
	if !ok {
		return false
	}
	frame := p.frames[frameID]
	if frame.PinCount() == 0 {
		return false
	}

	frame.Unpin()
	if frame.PinCount() == 0 {
		p.replacer.SetEvictable(frameID, true)
	}
	frame.MarkDirty(isDirty)
	return true
}

// FlushPage writes id's frame back to disk if dirty and clears the dirty
// flag. Returns false if id is not resident. Matches the original BusTub
// source's conditional write (see SPEC_FULL.md's ORIGINAL SOURCE
// CORRESPONDENCE), one of two permissible variants per spec.md §9.
func (p *BufferPool) FlushPage(id types.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.index.Find(id)
	if !ok {
		return false
	}
	frame := p.frames[frameID]
	if frame.IsDirty() {
		if err := p.diskManager.WritePage(id, frame.Data()[:]); err != nil {
			p.logger.Warn("flush page failed", zap.Int32("page_id", int32(id)), zap.Error(err))
			return false
		}
		frame.ClearDirty()
	}
	return true
}

// FlushAll writes every dirty mapped frame back to disk and clears its
// dirty flag.
func (p *BufferPool) FlushAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, frame := range p.frames {
		if frame.PageID() == types.InvalidPageID || !frame.IsDirty() {
			continue
		}
		if err := p.diskManager.WritePage(frame.PageID(), frame.Data()[:]); err != nil {
			p.logger.Warn("flush all: write failed", zap.Int32("page_id", int32(frame.PageID())), zap.Error(err))
			continue
		}
		frame.ClearDirty()
	}
}

// DeletePage removes id from the pool and frees its storage. Refuses and
// returns false if id is currently pinned. Returns true (a no-op) if id
// was never resident, matching the idempotent-deletion choice recorded in
// DESIGN.md.
func (p *BufferPool) DeletePage(id types.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.index.Find(id)
	if !ok {
		return true
	}
	frame := p.frames[frameID]
	if frame.PinCount() > 0 {
		return false
	}

	p.replacer.Remove(frameID)
	p.index.Remove(id)
	frame.Reset()
	p.freeList = append(p.freeList, frameID)

	if err := p.diskManager.DeallocatePage(id); err != nil {
		p.logger.Warn("deallocate page failed", zap.Int32("page_id", int32(id)), zap.Error(err))
	}
	return true
}

// PinCount reports id's current pin count, if resident. Supplemental
// introspection, grounded on the original's directly-inspectable Page
// objects (see SPEC_FULL.md's SUPPLEMENTED FEATURES).
func (p *BufferPool) PinCount(id types.PageID) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.index.Find(id)
	if !ok {
		return 0, false
	}
	return p.frames[frameID].PinCount(), true
}

// IsDirty reports whether id's resident frame is dirty.
func (p *BufferPool) IsDirty(id types.PageID) (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.index.Find(id)
	if !ok {
		return false, false
	}
	return p.frames[frameID].IsDirty(), true
}

// LogOccupancy emits a structured snapshot of every mapped frame's page id,
// pin count, and dirty flag, tagged with caller. A diagnostic for the same
// situations the original's PrintBufferUsageState covers (dumped before a
// getFrameID panic), but through the ambient logger rather than a raw
// fmt.Println.
func (p *BufferPool) LogOccupancy(caller string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mapped := make([]zap.Field, 0, len(p.frames))
	for frameID, frame := range p.frames {
		if frame.PageID() == types.InvalidPageID {
			continue
		}
		mapped = append(mapped, zap.Dict(fmt.Sprintf("frame_%d", frameID),
			zap.Int32("page_id", int32(frame.PageID())),
			zap.Int("pin_count", frame.PinCount()),
			zap.Bool("is_dirty", frame.IsDirty()),
		))
	}

	fields := append([]zap.Field{
		zap.String("caller", caller),
		zap.Int("free_frames", len(p.freeList)),
		zap.Int("evictable_frames", p.replacer.Size()),
		zap.Int("mapped_frames", len(mapped)),
	}, mapped...)
	p.logger.Info("buffer pool occupancy", fields...)
}
