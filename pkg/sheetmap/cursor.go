package sheetmap

import "sync/atomic"

// RowCursor is the 0-based index of the next row to write. One writer owns
// it; the atomic counter only lets observers read Current concurrently.
type RowCursor struct {
	row atomic.Int64
}

// Advance returns the current row and moves the cursor to the next one.
func (c *RowCursor) Advance() int {
	return int(c.row.Add(1) - 1)
}

// Set repositions the cursor.
func (c *RowCursor) Set(row int) {
	if row < 0 {
		row = 0
	}
	c.row.Store(int64(row))
}

// Skip moves the cursor forward by n rows. Non-positive n is ignored.
func (c *RowCursor) Skip(n int) {
	if n > 0 {
		c.row.Add(int64(n))
	}
}

// Reset moves the cursor back to the first row.
func (c *RowCursor) Reset() {
	c.row.Store(0)
}

func (c *RowCursor) Current() int {
	return int(c.row.Load())
}
