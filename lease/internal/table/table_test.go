package table

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/idlease/lease/allocator"
)

func TestNew(t *testing.T) {
	t.Run("single id range", func(t *testing.T) {
		tbl, err := New(1, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, tbl.Size())
		assert.Equal(t, 1, tbl.Min())
		assert.Equal(t, 1, tbl.Max())
	})

	t.Run("every entry starts free", func(t *testing.T) {
		tbl, err := New(10, 19)
		require.NoError(t, err)
		require.Equal(t, 10, tbl.Size())
		for id := 10; id <= 19; id++ {
			l, err := tbl.Get(id)
			require.NoError(t, err)
			assert.Equal(t, id, l.ID)
			assert.Equal(t, Free, l.State)
			assert.True(t, l.ExpiresAt.IsZero())
		}
		assert.Equal(t, 0, tbl.Leased())
	})

	t.Run("min greater than max", func(t *testing.T) {
		_, err := New(5, 4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "min 5 > max 4")
	})

	t.Run("range too large", func(t *testing.T) {
		_, err := New(0, MaxSize)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("span at the limit", func(t *testing.T) {
		span, err := Span(-1, MaxSize-2)
		require.NoError(t, err)
		assert.Equal(t, uint64(MaxSize-1), span)
	})

	t.Run("full width range", func(t *testing.T) {
		cases := map[string][2]int{
			"whole int range":  {math.MinInt64, math.MaxInt64},
			"negative size":    {-5e18, 5e18},
			"one past maxsize": {math.MinInt64, math.MinInt64 + MaxSize},
		}
		for name, r := range cases {
			t.Run(name, func(t *testing.T) {
				tbl, err := New(r[0], r[1])
				require.Error(t, err)
				assert.Nil(t, tbl)
				assert.Contains(t, err.Error(), "too large")
			})
		}
	})

	t.Run("negative bounds", func(t *testing.T) {
		tbl, err := New(-2, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, tbl.Size())
		assert.Equal(t, -2, tbl.IDAt(0))
		assert.Equal(t, 2, tbl.IDAt(4))
	})
}

func TestGetOutOfRange(t *testing.T) {
	tbl, err := New(1, 3)
	require.NoError(t, err)

	for _, id := range []int{0, 4, -1} {
		_, err := tbl.Get(id)
		assert.True(t, errors.Is(err, allocator.ErrOutOfRange), "id %d: %v", id, err)
	}
	assert.ErrorIs(t, tbl.MarkLeased(4, time.Now()), allocator.ErrOutOfRange)
	assert.ErrorIs(t, tbl.MarkFree(0), allocator.ErrOutOfRange)
	assert.False(t, tbl.IsExpired(9, time.Now()))
	assert.False(t, tbl.IsAvailable(9, time.Now()))
}

func TestMarkLeasedAndFree(t *testing.T) {
	tbl, err := New(1, 3)
	require.NoError(t, err)
	now := time.Unix(1000, 0)

	require.NoError(t, tbl.MarkLeased(2, now.Add(time.Second)))
	l, err := tbl.Get(2)
	require.NoError(t, err)
	assert.Equal(t, Leased, l.State)
	assert.Equal(t, now.Add(time.Second), l.ExpiresAt)
	assert.Equal(t, 1, tbl.Leased())

	// overwrite keeps the count stable
	require.NoError(t, tbl.MarkLeased(2, now.Add(2*time.Second)))
	l, _ = tbl.Get(2)
	assert.Equal(t, now.Add(2*time.Second), l.ExpiresAt)
	assert.Equal(t, 1, tbl.Leased())

	require.NoError(t, tbl.MarkFree(2))
	l, _ = tbl.Get(2)
	assert.Equal(t, Free, l.State)
	assert.True(t, l.ExpiresAt.IsZero())
	assert.Equal(t, 0, tbl.Leased())

	// freeing a free entry is a no-op
	require.NoError(t, tbl.MarkFree(2))
	assert.Equal(t, 0, tbl.Leased())
}

func TestIsExpired(t *testing.T) {
	tbl, err := New(1, 2)
	require.NoError(t, err)
	now := time.Unix(1000, 0)
	exp := now.Add(time.Second)

	assert.False(t, tbl.IsExpired(1, now), "free entries never expire")
	assert.True(t, tbl.IsAvailable(1, now))

	require.NoError(t, tbl.MarkLeased(1, exp))
	assert.False(t, tbl.IsExpired(1, now))
	assert.False(t, tbl.IsAvailable(1, now))
	assert.False(t, tbl.IsExpired(1, exp.Add(-time.Nanosecond)))
	assert.True(t, tbl.IsExpired(1, exp), "expiresAt <= now counts as expired")
	assert.True(t, tbl.IsAvailable(1, exp))
	assert.True(t, tbl.IsExpired(1, exp.Add(time.Hour)))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "free", Free.String())
	assert.Equal(t, "leased", Leased.String())
	assert.Equal(t, "unknown", State(9).String())
}
