package integration

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// DefaultPage is the page used when a cursor is absent or carries no page
	DefaultPage = 1
	// DefaultPageSize is the page size used when a cursor is absent or carries no page size
	DefaultPageSize = 100
)

// Cursor is the decoded form of the opaque pagination token.
// Inventory cursors carry TotalProducts, order cursors carry TotalOrders.
type Cursor struct {
	Page          int `json:"page"`
	PageSize      int `json:"page_size"`
	TotalPages    int `json:"total_pages,omitempty"`
	TotalProducts int `json:"total_products,omitempty"`
	TotalOrders   int `json:"total_orders,omitempty"`
}

// DefaultCursor returns the first page window
func DefaultCursor() Cursor {
	return Cursor{Page: DefaultPage, PageSize: DefaultPageSize}
}

// EncodeCursor serializes a cursor into its opaque string form
func EncodeCursor(c Cursor) string {
	data, err := json.Marshal(c)
	if err != nil {
		// Marshalling a struct of ints cannot fail
		panic(fmt.Sprintf("integration: encode cursor: %v", err))
	}
	return string(data)
}

// DecodeCursor parses a cursor string.
// An absent, empty or undecodable cursor yields the default window.
// Missing or zero page fields fall back to the defaults, so page and page
// size survive EncodeCursor/DecodeCursor unchanged for values >= 1 only.
// A decodable cursor with a negative page or page size wraps ErrCursorInvalid.
func DecodeCursor(raw *string) (Cursor, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return DefaultCursor(), nil
	}

	var c Cursor
	if err := json.Unmarshal([]byte(*raw), &c); err != nil {
		return DefaultCursor(), nil
	}
	if c.Page < 0 || c.PageSize < 0 {
		return Cursor{}, fmt.Errorf("%w: page=%d page_size=%d", ErrCursorInvalid, c.Page, c.PageSize)
	}
	if c.Page == 0 {
		c.Page = DefaultPage
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	return c, nil
}

// TotalPages returns ceil(total / pageSize)
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	pages := total / int64(pageSize)
	if total%int64(pageSize) > 0 {
		pages++
	}
	return int(pages)
}

// HasMorePages reports whether another page follows the current one
func (c Cursor) HasMorePages() bool {
	return c.Page < c.TotalPages
}

// ValidateWindow rejects a page past the last page when there are results
// with an error wrapping ErrPageOutOfRange.
// Page 1 of an empty result set is valid.
func (c Cursor) ValidateWindow(total int64) error {
	if total <= 0 {
		return nil
	}
	if c.Page > c.TotalPages {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, c.Page, c.TotalPages)
	}
	return nil
}

// Next returns the encoded cursor of the following page, or nil on the last page.
// A nil result means the cursor field is omitted from the response.
func (c Cursor) Next() *string {
	if !c.HasMorePages() {
		return nil
	}
	next := c
	next.Page++
	encoded := EncodeCursor(next)
	return &encoded
}
