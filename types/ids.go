// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

// PageID identifies a page in the backing store. Page ids are assigned by
// a BufferPool's own allocator; they are never produced by a DiskManager.
type PageID int32

// InvalidPageID is returned in place of a PageID when no page applies.
const InvalidPageID = PageID(-1)

// IsValid reports whether id names an allocated page.
func (id PageID) IsValid() bool {
	return id != InvalidPageID && id >= 0
}

// FrameID identifies a slot in a BufferPool's fixed-size frame array.
type FrameID int32

// InvalidFrameID is returned in place of a FrameID when no frame applies.
const InvalidFrameID = FrameID(-1)

// IsValid reports whether id names a frame slot.
func (id FrameID) IsValid() bool {
	return id != InvalidFrameID && id >= 0
}

// PageIDAllocator hands out monotonically increasing page ids. Each
// BufferPool owns its own allocator; ids are never shared across pools.
type PageIDAllocator struct {
	next PageID
}

// NewPageIDAllocator creates an allocator starting at page id 0.
func NewPageIDAllocator() *PageIDAllocator {
	return &PageIDAllocator{next: 0}
}

// Next returns the next unused page id and advances the allocator.
func (a *PageIDAllocator) Next() PageID {
	id := a.next
	a.next++
	return id
}
