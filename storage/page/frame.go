// Package page defines Frame, the in-memory cache slot a BufferPool hands
// out to clients.
package page

import (
	"github.com/arjunparekh/pagecache/common"
	"github.com/arjunparekh/pagecache/types"
)

// Frame is a fixed-size in-memory slot capable of holding exactly one
// page's bytes plus bookkeeping. A Frame with PageID == types.InvalidPageID
// holds no live page.
type Frame struct {
	pageID   types.PageID
	data     [common.PageSize]byte
	pinCount int
	isDirty  bool
}

// NewFrame returns an unmapped, zeroed frame.
func NewFrame() *Frame {
	return &Frame{pageID: types.InvalidPageID}
}

// PageID returns the id of the page currently mapped into this frame.
func (f *Frame) PageID() types.PageID {
	return f.pageID
}

// Data exposes the frame's fixed-size buffer for direct read/write access.
// The caller must hold a pin on the frame for as long as it keeps using the
// returned slice.
func (f *Frame) Data() *[common.PageSize]byte {
	return &f.data
}

// PinCount returns the current pin count.
func (f *Frame) PinCount() int {
	return f.pinCount
}

// IsDirty reports whether the frame's bytes differ from disk.
func (f *Frame) IsDirty() bool {
	return f.isDirty
}

// Pin increments the pin count.
func (f *Frame) Pin() {
	f.pinCount++
}

// Unpin decrements the pin count. It is a no-op below zero; callers must
// check PinCount() before calling if they need to detect over-unpinning.
func (f *Frame) Unpin() {
	if f.pinCount > 0 {
		f.pinCount--
	}
}

// MarkDirty sets the dirty flag. Once set, a later clean write must not
// clear it (spec: "a subsequent clean unpin must not clear the flag").
func (f *Frame) MarkDirty(dirty bool) {
	f.isDirty = f.isDirty || dirty
}

// ClearDirty resets the dirty flag, used after a successful flush.
func (f *Frame) ClearDirty() {
	f.isDirty = false
}

// Reset zeroes the data buffer and resets metadata to the unmapped state,
// in preparation for mapping a different page into this frame.
func (f *Frame) Reset() {
	f.pageID = types.InvalidPageID
	f.pinCount = 0
	f.isDirty = false
	for i := range f.data {
		f.data[i] = 0
	}
}

// Install maps pageID into this frame, pinned once, clean, with a zeroed
// buffer. Used by BufferPool.NewPage / FetchPage right before the page's
// bytes are written or read.
func (f *Frame) Install(pageID types.PageID) {
	f.pageID = pageID
	f.pinCount = 1
	f.isDirty = false
	for i := range f.data {
		f.data[i] = 0
	}
}
