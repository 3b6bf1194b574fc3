package integration

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, ErrorCategoryNotFound, CategorizeError(ErrSourceItemNotFound))
	assert.Equal(t, ErrorCategoryNotFound, CategorizeError(fmt.Errorf("lookup: %w", shared.ErrNotFound)))
	assert.Equal(t, ErrorCategoryOther, CategorizeError(errors.New("boom")))
	assert.Equal(t, ErrorCategoryOther, CategorizeError(ErrInventoryItemIDInvalid))
	assert.True(t, ErrorCategoryNotFound.IsValid())
	assert.False(t, ErrorCategory("Missing").IsValid())
}

func TestProcessBatch(t *testing.T) {
	double := func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, fmt.Errorf("odd %d", n)
		}
		return n * 2, nil
	}

	t.Run("Every item runs despite failures", func(t *testing.T) {
		outcomes := ProcessBatch(context.Background(), []int{1, 2, 3, 4}, double, BatchOptions{})
		require.Len(t, outcomes, 4)

		assert.True(t, outcomes[0].Failed())
		assert.Equal(t, 4, outcomes[1].Result)
		assert.True(t, outcomes[2].Failed())
		assert.Equal(t, 8, outcomes[3].Result)

		failures := Failures(outcomes)
		require.Len(t, failures, 2)
		assert.Equal(t, 0, failures[0].Index)
		assert.Equal(t, 2, failures[1].Index)
	})

	t.Run("Empty batch", func(t *testing.T) {
		outcomes := ProcessBatch(context.Background(), nil, double, BatchOptions{})
		assert.Empty(t, outcomes)
		assert.Empty(t, Failures(outcomes))
	})

	t.Run("Concurrent run preserves input order", func(t *testing.T) {
		items := make([]int, 50)
		for i := range items {
			items[i] = i
		}
		var inFlight, peak int32
		fn := func(_ context.Context, n int) (int, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return n, nil
		}

		outcomes := ProcessBatch(context.Background(), items, fn, BatchOptions{Concurrency: 4})
		require.Len(t, outcomes, 50)
		for i, o := range outcomes {
			assert.Equal(t, i, o.Index)
			assert.Equal(t, i, o.Result)
		}
		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
	})

	t.Run("Panic becomes item failure", func(t *testing.T) {
		fn := func(_ context.Context, n int) (int, error) {
			if n == 2 {
				panic("bad item")
			}
			return n, nil
		}
		outcomes := ProcessBatch(context.Background(), []int{1, 2, 3}, fn, BatchOptions{})
		assert.False(t, outcomes[0].Failed())
		require.True(t, outcomes[1].Failed())
		assert.Contains(t, outcomes[1].Err.Error(), "bad item")
		assert.False(t, outcomes[2].Failed())
	})

	t.Run("Cancelled context fails remaining items", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		outcomes := ProcessBatch(ctx, []int{2, 4}, double, BatchOptions{})
		for _, o := range outcomes {
			assert.ErrorIs(t, o.Err, context.Canceled)
		}
	})
}
