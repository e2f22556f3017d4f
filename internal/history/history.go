package history

import (
	"errors"
	"log/slog"
	"sync"

	"deskcalc/internal/calculation"
)

// DefaultMaxSize is used when a History is created with a non-positive
// bound.
const DefaultMaxSize = 1000

var (
	ErrNilCalculation = errors.New("calculation cannot be nil")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
)

// Observer is notified after a calculation has been appended to the
// history. Implementations must contain their own operational failures
// (I/O, database); an error returned from Notify is logged by the
// history and never reaches the caller of Record.
type Observer interface {
	Notify(c *calculation.Calculation) error
}

// History is an ordered, size-bounded, undo/redo-capable log of
// calculations. When the bound is exceeded the oldest entry is evicted
// first. Observers are notified on Record only: undo and redo are pure
// state rollbacks, so logged or persisted history stays append-only
// and may retain entries that were later undone.
type History struct {
	mu        sync.Mutex
	maxSize   int
	entries   []*calculation.Calculation
	undoStack []*calculation.Calculation
	redoStack []*calculation.Calculation
	observers []Observer
	logger    *slog.Logger
}

// New creates an empty history bounded at maxSize entries.
func New(maxSize int, logger *slog.Logger) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &History{maxSize: maxSize, logger: logger}
}

// Register appends an observer to the notification list. Observers are
// notified in registration order; registering the same observer twice
// notifies it once per registration.
func (h *History) Register(obs Observer) {
	if obs == nil {
		return
	}
	h.mu.Lock()
	h.observers = append(h.observers, obs)
	h.mu.Unlock()
}

// Deregister removes the first registration of obs, if any. An
// observer registered twice keeps its remaining registration.
func (h *History) Deregister(obs Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, o := range h.observers {
		if o == obs {
			h.observers = append(h.observers[:i:i], h.observers[i+1:]...)
			return
		}
	}
}

// Record appends c to the history, evicts the oldest entries while the
// bound is exceeded, clears the redo stack and notifies every
// registered observer. Notification happens after the internal state
// is fully updated, outside the lock, so an observer may safely call
// back into the history (the auto-save observer does).
func (h *History) Record(c *calculation.Calculation) error {
	if c == nil {
		return ErrNilCalculation
	}

	h.mu.Lock()
	h.entries = append(h.entries, c)
	h.undoStack = append(h.undoStack, c)
	if n := len(h.entries); n > h.maxSize {
		h.entries = append(h.entries[:0:0], h.entries[n-h.maxSize:]...)
	}
	if n := len(h.undoStack); n > h.maxSize {
		h.undoStack = append(h.undoStack[:0:0], h.undoStack[n-h.maxSize:]...)
	}
	h.redoStack = h.redoStack[:0]
	observers := append([]Observer(nil), h.observers...)
	h.mu.Unlock()

	for _, obs := range observers {
		if err := obs.Notify(c); err != nil {
			h.logger.Error("history observer failed",
				"operation", c.Operation(), "error", err)
		}
	}
	return nil
}

// Undo removes the most recent calculation from the history and makes
// it available for Redo. Observers are not notified.
func (h *History) Undo() (*calculation.Calculation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.undoStack)
	if n == 0 {
		return nil, ErrNothingToUndo
	}

	c := h.undoStack[n-1]
	h.undoStack = h.undoStack[:n-1]
	h.entries = h.entries[:len(h.entries)-1]
	h.redoStack = append(h.redoStack, c)
	return c, nil
}

// Redo re-appends the most recently undone calculation, respecting the
// size bound. Observers are not notified.
func (h *History) Redo() (*calculation.Calculation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.redoStack)
	if n == 0 {
		return nil, ErrNothingToRedo
	}

	c := h.redoStack[n-1]
	h.redoStack = h.redoStack[:n-1]
	h.entries = append(h.entries, c)
	h.undoStack = append(h.undoStack, c)
	if n := len(h.entries); n > h.maxSize {
		h.entries = append(h.entries[:0:0], h.entries[n-h.maxSize:]...)
	}
	if n := len(h.undoStack); n > h.maxSize {
		h.undoStack = append(h.undoStack[:0:0], h.undoStack[n-h.maxSize:]...)
	}
	return c, nil
}

// Clear empties the entries and both stacks. Registered observers are
// kept. Calling Clear on an empty history is a no-op.
func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.undoStack = nil
	h.redoStack = nil
	h.mu.Unlock()
}

// Replace swaps the entries wholesale, keeping only the newest entries
// when the bound is exceeded. Both stacks are reset: a load cannot be
// undone into pre-load state. Used when loading persisted history at
// startup.
func (h *History) Replace(entries []*calculation.Calculation) {
	kept := make([]*calculation.Calculation, 0, len(entries))
	for _, c := range entries {
		if c != nil {
			kept = append(kept, c)
		}
	}
	if len(kept) > h.maxSize {
		kept = kept[len(kept)-h.maxSize:]
	}

	h.mu.Lock()
	h.entries = kept
	h.undoStack = nil
	h.redoStack = nil
	h.mu.Unlock()
}

// Snapshot returns a copy of the entries in chronological order. The
// returned slice does not alias internal state.
func (h *History) Snapshot() []*calculation.Calculation {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*calculation.Calculation, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports the current number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
