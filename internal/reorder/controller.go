// Package reorder is the gesture state machine behind drag-and-drop section
// reordering. It works on section names only; the caller turns a dropped
// order into content through the document package.
//
//	Inactive --double trigger--> Armed --grab--> Dragging
//	   ^                           |  ^            |
//	   +-------interaction---------+  +--drop/cancel+
package reorder

import (
	"errors"
	"fmt"
	"time"
)

// ActivationWindow is the maximum gap between the two triggers that arm
// reordering.
const ActivationWindow = 500 * time.Millisecond

var (
	ErrNotArmed       = errors.New("reorder mode is not armed")
	ErrNoActiveDrag   = errors.New("no active drag")
	ErrUnknownSection = errors.New("section is not part of the current order")
)

// State of the controller.
type State int

const (
	Inactive State = iota
	Armed
	Dragging
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	default:
		return "inactive"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "inactive":
		*s = Inactive
	case "armed":
		*s = Armed
	case "dragging":
		*s = Dragging
	default:
		return fmt.Errorf("unknown reorder state %q", b)
	}
	return nil
}

// Position of the drop placeholder relative to its target.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// Placeholder marks where the dragged block would land.
type Placeholder struct {
	Target   string   `json:"target"`
	Position Position `json:"position"`
}

// Controller is not safe for concurrent use; the owning session serializes
// calls.
type Controller struct {
	state       State
	lastTrigger time.Time
	primed      bool
	order       []string
	dragged     string
	placeholder *Placeholder
}

// New returns an inactive controller.
func New() *Controller {
	return &Controller{}
}

func (c *Controller) State() State { return c.state }

// Dragged returns the name of the block being dragged, if any.
func (c *Controller) Dragged() string { return c.dragged }

// Placeholder returns the current drop marker, or nil.
func (c *Controller) Placeholder() *Placeholder {
	if c.placeholder == nil {
		return nil
	}
	p := *c.placeholder
	return &p
}

// Trigger records one activation gesture at the given time. Two triggers no
// more than ActivationWindow apart arm the controller.
func (c *Controller) Trigger(at time.Time) State {
	if c.state != Inactive {
		return c.state
	}
	if c.primed {
		gap := at.Sub(c.lastTrigger)
		if gap >= 0 && gap <= ActivationWindow {
			c.state = Armed
			c.primed = false
			return c.state
		}
	}
	c.lastTrigger = at
	c.primed = true
	return c.state
}

// Interact handles a primary interaction outside a drag: it disarms.
func (c *Controller) Interact() State {
	if c.state == Armed {
		c.state = Inactive
		c.primed = false
	}
	return c.state
}

// BeginDrag grabs name out of order. Only allowed while armed.
func (c *Controller) BeginDrag(order []string, name string) error {
	if c.state != Armed {
		return ErrNotArmed
	}
	if indexOf(order, name) < 0 {
		return ErrUnknownSection
	}
	c.state = Dragging
	c.order = append([]string(nil), order...)
	c.dragged = name
	c.placeholder = nil
	return nil
}

// Hover updates the placeholder for the block under the pointer. A pointer
// above the target's vertical midpoint inserts before it, otherwise after.
// Hovering the dragged block itself, or an unknown block, clears the
// placeholder.
func (c *Controller) Hover(target string, pointerY, top, height float64) (*Placeholder, error) {
	if c.state != Dragging {
		return nil, ErrNoActiveDrag
	}
	if target == c.dragged || indexOf(c.order, target) < 0 {
		c.placeholder = nil
		return nil, nil
	}
	pos := After
	if pointerY < top+height/2 {
		pos = Before
	}
	c.placeholder = &Placeholder{Target: target, Position: pos}
	return c.Placeholder(), nil
}

// Drop finishes the drag and returns the resulting order. changed is false
// when the block lands where it started or no placeholder was shown.
func (c *Controller) Drop() ([]string, bool, error) {
	if c.state != Dragging {
		return nil, false, ErrNoActiveDrag
	}
	result := append([]string(nil), c.order...)
	changed := false
	if c.placeholder != nil {
		result = Move(c.order, c.dragged, c.placeholder.Target, c.placeholder.Position)
		changed = !equal(result, c.order)
	}
	c.endDrag()
	return result, changed, nil
}

// Cancel abandons the drag and returns to Armed.
func (c *Controller) Cancel() State {
	if c.state == Dragging {
		c.endDrag()
	}
	return c.state
}

// Reset returns to Inactive from any state.
func (c *Controller) Reset() {
	c.state = Inactive
	c.primed = false
	c.order = nil
	c.dragged = ""
	c.placeholder = nil
}

func (c *Controller) endDrag() {
	c.state = Armed
	c.order = nil
	c.dragged = ""
	c.placeholder = nil
}

// Move splices name out of order and reinserts it next to target. The input
// is not modified and the result is always a permutation of it.
func Move(order []string, name, target string, pos Position) []string {
	from := indexOf(order, name)
	if from < 0 || name == target || indexOf(order, target) < 0 {
		return append([]string(nil), order...)
	}
	rest := make([]string, 0, len(order))
	rest = append(rest, order[:from]...)
	rest = append(rest, order[from+1:]...)

	at := indexOf(rest, target)
	if pos == After {
		at++
	}
	out := make([]string, 0, len(order))
	out = append(out, rest[:at]...)
	out = append(out, name)
	out = append(out, rest[at:]...)
	return out
}

func indexOf(items []string, name string) int {
	for i, it := range items {
		if it == name {
			return i
		}
	}
	return -1
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
