package entities

// DefaultHistorySize bounds the number of kept snapshots
const DefaultHistorySize = 50

// History is the undo/redo store: an ordered list of full carousel snapshots
// and a cursor. Pushing after an undo discards the redo branch.
type History struct {
	snapshots []Carousel
	current   int
	capacity  int
}

// NewHistory creates a history seeded with an initial snapshot
func NewHistory(initial Carousel, capacity int) *History {
	if capacity <= 1 {
		capacity = DefaultHistorySize
	}
	return &History{
		snapshots: []Carousel{initial.Clone()},
		current:   0,
		capacity:  capacity,
	}
}

// Push records a new snapshot as the current one
func (h *History) Push(c Carousel) {
	h.snapshots = append(h.snapshots[:h.current+1], c.Clone())
	if len(h.snapshots) > h.capacity {
		drop := len(h.snapshots) - h.capacity
		h.snapshots = append([]Carousel(nil), h.snapshots[drop:]...)
	}
	h.current = len(h.snapshots) - 1
}

// Current returns the snapshot under the cursor
func (h *History) Current() Carousel {
	return h.snapshots[h.current].Clone()
}

// Undo moves the cursor back one snapshot
func (h *History) Undo() (Carousel, error) {
	if !h.CanUndo() {
		return h.Current(), ErrNothingToUndo
	}
	h.current--
	return h.Current(), nil
}

// Redo moves the cursor forward one snapshot
func (h *History) Redo() (Carousel, error) {
	if !h.CanRedo() {
		return h.Current(), ErrNothingToRedo
	}
	h.current++
	return h.Current(), nil
}

// CanUndo reports whether an earlier snapshot exists
func (h *History) CanUndo() bool {
	return h.current > 0
}

// CanRedo reports whether a later snapshot exists
func (h *History) CanRedo() bool {
	return h.current < len(h.snapshots)-1
}

// Len returns the number of stored snapshots
func (h *History) Len() int {
	return len(h.snapshots)
}

// Reset replaces the whole history with a single snapshot
func (h *History) Reset(c Carousel) {
	h.snapshots = []Carousel{c.Clone()}
	h.current = 0
}
