package disk

import (
	"fmt"
	"sync"

	"github.com/dsnet/golib/memfile"

	"github.com/arjunparekh/pagecache/common"
	"github.com/arjunparekh/pagecache/types"
)

// MemoryDiskManager is a DiskManager backed by an in-memory memfile.File
// instead of an *os.File. It exists for tests and for pools that want
// durability within process lifetime only (no real disk I/O), the way the
// teacher's VirtualDiskManagerImpl backs tests and short-lived pools.
type MemoryDiskManager struct {
	mu   sync.Mutex
	file *memfile.File
	size int64
}

// NewMemoryDiskManager returns an empty in-memory disk manager.
func NewMemoryDiskManager() *MemoryDiskManager {
	return &MemoryDiskManager{file: memfile.New(make([]byte, 0))}
}

func (d *MemoryDiskManager) ReadPage(id types.PageID, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(id) * common.PageSize
	if offset+int64(len(buf)) > d.size {
		// A page never written is defined to read as zeros, matching the
		// "disk reads zero buffer for an unknown id" behavior spec.md's
		// scenario 3 relies on.
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	_, err := d.file.ReadAt(buf, offset)
	return err
}

func (d *MemoryDiskManager) WritePage(id types.PageID, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(id) * common.PageSize
	if _, err := d.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("memory disk manager: write page %d: %w", id, err)
	}
	if end := offset + int64(len(buf)); end > d.size {
		d.size = end
	}
	return nil
}

func (d *MemoryDiskManager) DeallocatePage(types.PageID) error {
	// No space-reclamation bitmap backs this stub; safe as a no-op per
	// spec.md §6 ("optional hint; safe to be a no-op").
	return nil
}
