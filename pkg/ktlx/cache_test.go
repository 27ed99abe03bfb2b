package ktlx

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentCacheDecodesOnce(t *testing.T) {
	t.Parallel()

	c := newSegmentCache(0)
	want := newMatrix(1, 1)

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := c.get("seg", func() (*Matrix, error) {
				calls.Add(1)
				return want, nil
			})
			assert.NoError(t, err)
			assert.Same(t, want, m)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.len())
}

func TestSegmentCacheDoesNotRetainFailures(t *testing.T) {
	t.Parallel()

	c := newSegmentCache(0)
	boom := errors.New("no such file")

	var calls int
	decode := func() (*Matrix, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return newMatrix(1, 1), nil
	}

	_, err := c.get("seg", decode)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.len())

	// The segment showed up on disk; the next read decodes it fresh.
	m, err := c.get("seg", decode)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, c.len())
}

func TestSegmentCacheEvictsOldest(t *testing.T) {
	t.Parallel()

	c := newSegmentCache(2)
	decode := func() (*Matrix, error) { return newMatrix(1, 1), nil }

	for _, key := range []string{"a", "b", "c"} {
		_, err := c.get(key, decode)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.len())

	// The oldest entry was dropped: reading it again decodes anew.
	var redecoded bool
	_, err := c.get("a", func() (*Matrix, error) {
		redecoded = true
		return newMatrix(1, 1), nil
	})
	require.NoError(t, err)
	assert.True(t, redecoded)

	// The newest retained entry is still shared.
	_, err = c.get("c", func() (*Matrix, error) {
		t.Error("entry c should still be cached")
		return nil, nil
	})
	require.NoError(t, err)
}

func TestSegmentCacheUnboundedKeepsAll(t *testing.T) {
	t.Parallel()

	c := newSegmentCache(0)
	decode := func() (*Matrix, error) { return newMatrix(1, 1), nil }
	for _, key := range []string{"a", "b", "c", "d"} {
		_, err := c.get(key, decode)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, c.len())
}
