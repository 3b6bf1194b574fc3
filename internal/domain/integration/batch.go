package integration

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/ordersource/internal/domain/shared"
)

// ErrorCategory classifies a per-item failure for the external caller
type ErrorCategory string

const (
	// ErrorCategoryNotFound means the referenced record does not exist and needs provisioning
	ErrorCategoryNotFound ErrorCategory = "NotFound"
	// ErrorCategoryOther covers every other per-item failure
	ErrorCategoryOther ErrorCategory = "Other"
)

// IsValid returns true if the category is valid
func (c ErrorCategory) IsValid() bool {
	switch c {
	case ErrorCategoryNotFound, ErrorCategoryOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	return string(c)
}

// CategorizeError maps an item error to its category
func CategorizeError(err error) ErrorCategory {
	if shared.IsNotFound(err) {
		return ErrorCategoryNotFound
	}
	return ErrorCategoryOther
}

// ItemFunc processes a single batch item
type ItemFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Outcome is the result of one batch item.
// Index is the item's position in the input.
type Outcome[T, R any] struct {
	Index  int
	Item   T
	Result R
	Err    error
}

// Failed returns true if the item failed
func (o Outcome[T, R]) Failed() bool {
	return o.Err != nil
}

// BatchOptions configures ProcessBatch
type BatchOptions struct {
	// Concurrency is the number of items processed at once; values < 2 mean sequential
	Concurrency int
}

// ProcessBatch runs fn for every item and never stops on a failed item.
// Outcomes are returned in input order regardless of concurrency.
// A panic inside fn is recovered into that item's error.
// Items not yet started when ctx is done fail with ctx.Err(); the caller
// decides whether a cancelled context fails the whole request.
func ProcessBatch[T, R any](ctx context.Context, items []T, fn ItemFunc[T, R], opts BatchOptions) []Outcome[T, R] {
	outcomes := make([]Outcome[T, R], len(items))

	run := func(i int) {
		outcomes[i] = runItem(ctx, i, items[i], fn)
	}

	if opts.Concurrency < 2 || len(items) < 2 {
		for i := range items {
			run(i)
		}
		return outcomes
	}

	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			run(i)
		}(i)
	}
	wg.Wait()

	return outcomes
}

func runItem[T, R any](ctx context.Context, index int, item T, fn ItemFunc[T, R]) (out Outcome[T, R]) {
	out.Index = index
	out.Item = item

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("integration: item %d panicked: %v", index, r)
		}
	}()

	out.Result, out.Err = fn(ctx, item)
	return out
}

// Failures returns the failed outcomes in input order
func Failures[T, R any](outcomes []Outcome[T, R]) []Outcome[T, R] {
	failed := make([]Outcome[T, R], 0)
	for _, o := range outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}
