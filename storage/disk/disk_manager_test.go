package disk

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arjunparekh/pagecache/common"
	"github.com/arjunparekh/pagecache/types"
)

func testDiskManager(t *testing.T, newDM func() DiskManager) {
	dm := newDM()

	data := make([]byte, common.PageSize)
	buf := make([]byte, common.PageSize)
	copy(data, "A test string.")

	require.NoError(t, dm.ReadPage(0, buf)) // tolerate read of an unwritten page
	require.NoError(t, dm.WritePage(0, data))
	require.NoError(t, dm.ReadPage(0, buf))
	require.Equal(t, data, buf)

	for i := range buf {
		buf[i] = 0
	}
	copy(data, "Another test string, written to a page further out.")

	require.NoError(t, dm.WritePage(5, data))
	require.NoError(t, dm.ReadPage(5, buf))
	require.Equal(t, data, buf)

	require.NoError(t, dm.DeallocatePage(5)) // a safe no-op hint
}

func TestMemoryDiskManager(t *testing.T) {
	testDiskManager(t, func() DiskManager { return NewMemoryDiskManager() })
}

func TestFileDiskManager(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "pagecache-*.db")
	require.NoError(t, err)
	tmp.Close()

	testDiskManager(t, func() DiskManager {
		dm, err := NewFileDiskManager(tmp.Name())
		require.NoError(t, err)
		t.Cleanup(func() { dm.Close() })
		return dm
	})
}

func TestFileDiskManagerPersistsAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/reopen.db"

	dm1, err := NewFileDiskManager(path)
	require.NoError(t, err)
	data := make([]byte, common.PageSize)
	copy(data, "persisted")
	require.NoError(t, dm1.WritePage(types.PageID(2), data))
	require.NoError(t, dm1.Close())

	dm2, err := NewFileDiskManager(path)
	require.NoError(t, err)
	defer dm2.Close()

	buf := make([]byte, common.PageSize)
	require.NoError(t, dm2.ReadPage(types.PageID(2), buf))
	require.Equal(t, data, buf)
}
