package source

import "math"

// Unbounded is the capacity of a History that never evicts
const Unbounded = math.MaxInt

// History is a FIFO of logical lines holding at most Cap entries
type History struct {
	items []*LogicalLine
	limit int
}

// NewHistory creates a history keeping the newest limit entries; limits
// below one are raised to one
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{limit: limit}
}

// NewCollector creates a history without a capacity bound
func NewCollector() *History {
	return &History{limit: Unbounded}
}

// Cap returns the capacity
func (h *History) Cap() int { return h.limit }

// Len returns the number of stored entries
func (h *History) Len() int { return len(h.items) }

// Items returns the entries oldest first
func (h *History) Items() []*LogicalLine { return h.items }

// Enqueue appends ll, evicting the oldest entries while full
func (h *History) Enqueue(ll *LogicalLine) {
	for len(h.items) >= h.limit && len(h.items) > 0 {
		h.items[0] = nil
		h.items = h.items[1:]
	}
	h.items = append(h.items, ll)
}

// EnqueueAll appends every entry of other in order
func (h *History) EnqueueAll(other *History) {
	if other == nil {
		return
	}
	for _, ll := range other.items {
		h.Enqueue(ll)
	}
}

// Dequeue removes and returns the oldest entry
func (h *History) Dequeue() (*LogicalLine, bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	ll := h.items[0]
	h.items[0] = nil
	h.items = h.items[1:]
	return ll, true
}

// ReplaceBy drops the content and copies other's entries, subject to the
// receiver's capacity
func (h *History) ReplaceBy(other *History) {
	h.Clear()
	h.EnqueueAll(other)
}

// Clear removes every entry
func (h *History) Clear() {
	h.items = nil
}

// SetNumbersUnknown marks every stored line number as unknown
func (h *History) SetNumbersUnknown() {
	for _, ll := range h.items {
		ll.SetNumbersUnknown()
	}
}
