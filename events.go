package vview

import "time"

// PointerEvent is a platform pointer event as delivered to listeners.
// Listeners receive a pointer and may mark it handled.
type PointerEvent struct {
	Type        EventType
	PointerID   int
	PointerType PointerType
	// X and Y are screen coordinates.
	X, Y float64
	// MovementX and MovementY are the change since this pointer's previous event.
	MovementX, MovementY float64
	// Button is the button whose state changed (0 primary, 1 middle, 2 secondary,
	// in platform numbering), or -1 when no button changed.
	Button int
	// Buttons is the aggregate bitmask of buttons held after this event.
	Buttons   Buttons
	Time      time.Duration
	Modifiers KeyModifiers

	// MouseButton and Pressed are attached by ButtonTracker while its
	// callback runs and cleared afterwards.
	MouseButton int
	Pressed     bool

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault marks the event as handled, suppressing platform behavior
// such as context menus.
func (e *PointerEvent) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *PointerEvent) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops the event from reaching further targets.
func (e *PointerEvent) StopPropagation() { e.propagationStopped = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *PointerEvent) PropagationStopped() bool { return e.propagationStopped }

// Distance returns the distance of (x, y) from the event position.
func (e *PointerEvent) Distance(x, y float64) float64 {
	return Vec2{e.X - x, e.Y - y}.Len()
}

// --- Listener registry ---

type handler[F any] struct {
	id uint32
	fn F
}

// handlerList is an ordered list of callbacks with stable removal by id.
type handlerList[F any] struct {
	items  []handler[F]
	nextID uint32
}

func (l *handlerList[F]) add(fn F) uint32 {
	l.nextID++
	l.items = append(l.items, handler[F]{id: l.nextID, fn: fn})
	return l.nextID
}

// remove deletes the entry with id. The slice is compacted so removed
// entries are not iterated.
func (l *handlerList[F]) remove(id uint32) {
	s := l.items
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = handler[F]{}
			l.items = s[:len(s)-1]
			return
		}
	}
}

// snapshot returns a copy so callbacks can add or remove listeners while
// the list is being dispatched.
func (l *handlerList[F]) snapshot() []handler[F] {
	if len(l.items) == 0 {
		return nil
	}
	return append([]handler[F](nil), l.items...)
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	remove func()
}

// Remove unregisters this callback so it no longer fires. It is safe to call
// more than once and on the zero value.
func (h *CallbackHandle) Remove() {
	if h == nil || h.remove == nil {
		return
	}
	h.remove()
	h.remove = nil
}

// --- Event targets ---

type eventListener struct {
	typ     EventType
	capture bool
	fn      func(*PointerEvent)
}

// Target is something pointer events are dispatched to: an on-screen element
// or the window. Targets form a tree through their parent; events travel from
// the root down to the target (capture) and back up (bubble).
type Target struct {
	Name   string
	parent *Target
	list   handlerList[eventListener]
	live   map[uint32]bool
}

// NewTarget creates a target. A nil parent makes it a root (a window).
func NewTarget(name string, parent *Target) *Target {
	return &Target{Name: name, parent: parent, live: make(map[uint32]bool)}
}

// Parent returns the enclosing target, or nil for a root.
func (t *Target) Parent() *Target { return t.parent }

// Root returns the outermost ancestor.
func (t *Target) Root() *Target {
	r := t
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// On registers a bubble-phase listener.
func (t *Target) On(typ EventType, fn func(*PointerEvent)) CallbackHandle {
	return t.listen(typ, false, fn)
}

// OnCapture registers a capture-phase listener, which runs before any
// listener on targets below this one.
func (t *Target) OnCapture(typ EventType, fn func(*PointerEvent)) CallbackHandle {
	return t.listen(typ, true, fn)
}

func (t *Target) listen(typ EventType, capture bool, fn func(*PointerEvent)) CallbackHandle {
	id := t.list.add(eventListener{typ: typ, capture: capture, fn: fn})
	t.live[id] = true
	return CallbackHandle{remove: func() {
		delete(t.live, id)
		t.list.remove(id)
	}}
}

// ListenerCount returns the number of registered listeners for typ.
func (t *Target) ListenerCount(typ EventType) int {
	n := 0
	for _, h := range t.list.items {
		if h.fn.typ == typ {
			n++
		}
	}
	return n
}

// Dispatch delivers ev to this target's ancestors' capture listeners, then
// to its own listeners, then to the ancestors' bubble listeners. A listener
// removed during dispatch is not called afterwards.
func (t *Target) Dispatch(ev *PointerEvent) {
	var path []*Target
	for n := t; n != nil; n = n.parent {
		path = append(path, n)
	}
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].fire(ev, true, i == 0) {
			return
		}
	}
	for i := 0; i < len(path); i++ {
		if path[i].fire(ev, false, i == 0) {
			return
		}
	}
}

// fire runs matching listeners and reports whether propagation stopped.
// At the target itself both phases match, in registration order, during the
// capture pass.
func (t *Target) fire(ev *PointerEvent, capture, atTarget bool) bool {
	for _, h := range t.list.snapshot() {
		l := h.fn
		if l.typ != ev.Type || !t.live[h.id] {
			continue
		}
		if atTarget {
			if !capture {
				continue
			}
		} else if l.capture != capture {
			continue
		}
		l.fn(ev)
	}
	return ev.propagationStopped
}
