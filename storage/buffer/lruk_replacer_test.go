package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arjunparekh/pagecache/types"
)

func TestEvictFailsWhenNothingEvictable(t *testing.T) {
	r := NewLRUKReplacer(3, 2, nil)
	_, ok := r.Evict()
	require.False(t, ok)
}

func TestHistoryPreferredOverCache(t *testing.T) {
	// pool_size=3, k=3: frame A accessed 3 times (promoted to cache),
	// frames B and C accessed once each (still in history). All three
	// evictable. Evict must drain history (oldest first) before touching
	// the cache list, per spec.md scenario 4.
	r := NewLRUKReplacer(3, 3, nil)
	a, b, c := types.FrameID(0), types.FrameID(1), types.FrameID(2)

	r.RecordAccess(b)
	r.RecordAccess(c)
	r.RecordAccess(a)
	r.RecordAccess(a)
	r.RecordAccess(a)

	r.SetEvictable(a, true)
	r.SetEvictable(b, true)
	r.SetEvictable(c, true)

	f1, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, b, f1)

	f2, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, c, f2)

	f3, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, a, f3)

	_, ok = r.Evict()
	require.False(t, ok)
}

func TestRecordAccessThenEvictSingleton(t *testing.T) {
	r := NewLRUKReplacer(1, 2, nil)
	f := types.FrameID(0)

	r.RecordAccess(f)
	r.SetEvictable(f, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, f, victim)
	require.Equal(t, 0, r.accessCount[f])
	require.Equal(t, 0, r.Size())
}

func TestSetEvictableIsIdempotent(t *testing.T) {
	r := NewLRUKReplacer(2, 2, nil)
	r.SetEvictable(0, true)
	r.SetEvictable(0, true)
	require.Equal(t, 1, r.Size())

	r.SetEvictable(0, false)
	r.SetEvictable(0, false)
	require.Equal(t, 0, r.Size())
}

func TestLRUWithinSameClass(t *testing.T) {
	r := NewLRUKReplacer(2, 2, nil)
	f1, f2 := types.FrameID(0), types.FrameID(1)

	r.RecordAccess(f1)
	r.RecordAccess(f2)
	r.SetEvictable(f1, true)
	r.SetEvictable(f2, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, f1, victim, "f1 is the least-recently-accessed of the two")
}

func TestRemoveNoOpWhenNeverAccessed(t *testing.T) {
	r := NewLRUKReplacer(2, 2, nil)
	require.NotPanics(t, func() { r.Remove(0) })
}

func TestRemoveOnEvictableFrame(t *testing.T) {
	r := NewLRUKReplacer(2, 2, nil)
	r.RecordAccess(0)
	r.SetEvictable(0, true)

	r.Remove(0)
	require.Equal(t, 0, r.Size())
	require.Equal(t, 0, r.accessCount[0])
}
