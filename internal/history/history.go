// Package history keeps a bounded undo stack of content snapshots.
package history

// DefaultLimit is the number of snapshots kept when none is configured.
const DefaultLimit = 50

// History is an ordered list of snapshots with a cursor. The cursor is -1
// only while the history is empty; otherwise 0 <= pointer < len(entries).
// History is not safe for concurrent use; the owning session serializes it.
type History struct {
	entries []string
	pointer int
	limit   int
}

// New returns an empty history capped at limit entries.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{pointer: -1, limit: limit}
}

// Record pushes content unless it equals the current entry. Entries after
// the cursor are discarded. Returns true when a snapshot was added.
func (h *History) Record(content string) bool {
	if h.pointer >= 0 && h.entries[h.pointer] == content {
		return false
	}
	h.entries = append(h.entries[:h.pointer+1], content)
	h.pointer++
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
		h.pointer -= over
	}
	return true
}

// Undo moves the cursor back one entry. ok is false at the oldest entry.
func (h *History) Undo() (string, bool) {
	if h.pointer <= 0 {
		return "", false
	}
	h.pointer--
	return h.entries[h.pointer], true
}

// Redo moves the cursor forward over entries not yet truncated by Record.
func (h *History) Redo() (string, bool) {
	if h.pointer < 0 || h.pointer >= len(h.entries)-1 {
		return "", false
	}
	h.pointer++
	return h.entries[h.pointer], true
}

// Reset replaces the whole history with a single entry.
func (h *History) Reset(content string) {
	h.entries = append(h.entries[:0], content)
	h.pointer = 0
}

// Current returns the entry at the cursor.
func (h *History) Current() (string, bool) {
	if h.pointer < 0 {
		return "", false
	}
	return h.entries[h.pointer], true
}

func (h *History) CanUndo() bool { return h.pointer > 0 }

func (h *History) CanRedo() bool { return h.pointer >= 0 && h.pointer < len(h.entries)-1 }

func (h *History) Len() int { return len(h.entries) }

func (h *History) Pointer() int { return h.pointer }

func (h *History) Limit() int { return h.limit }
