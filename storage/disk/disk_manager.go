// Package disk defines the narrow capability interface the buffer pool
// uses to read, write, and deallocate pages on durable storage, plus two
// implementations: a real file-backed one and an in-memory one for tests
// and ephemeral pools.
package disk

import "github.com/arjunparekh/pagecache/types"

// DiskManager is the external collaborator spec.md names in §6: the buffer
// pool's only window onto durable storage. Implementations must be safe
// for concurrent use; the buffer pool may call them while holding its own
// mutex.
type DiskManager interface {
	// ReadPage overwrites buf with the on-disk contents of id. buf must be
	// exactly common.PageSize bytes.
	ReadPage(id types.PageID, buf []byte) error
	// WritePage persists buf as the contents of id.
	WritePage(id types.PageID, buf []byte) error
	// DeallocatePage is an optional hint that id's storage may be reused.
	// Implementations may treat this as a no-op.
	DeallocatePage(id types.PageID) error
}
