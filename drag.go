package vview

import (
	"context"
	"fmt"
	"math"
	"time"
)

// --- Arbitration ---

type runningDrag struct {
	handler *DragHandler
	cancel  func()
}

// DragArbiter makes sure at most one DragHandler drives a gesture. Every
// handler holding a pointer is registered; the first to commit becomes the
// active drag and every other registered handler is cancelled.
type DragArbiter struct {
	drags  []runningDrag
	active *DragHandler
}

// Active returns the committed handler, or nil.
func (a *DragArbiter) Active() *DragHandler { return a.active }

// Len returns the number of registered handlers.
func (a *DragArbiter) Len() int { return len(a.drags) }

func (a *DragArbiter) index(h *DragHandler) int {
	for i := range a.drags {
		if a.drags[i].handler == h {
			return i
		}
	}
	return -1
}

func (a *DragArbiter) add(h *DragHandler, cancel func()) {
	if a.index(h) >= 0 {
		panic(fmt.Sprintf("vview: drag %q registered twice", h.opts.Name))
	}
	a.drags = append(a.drags, runningDrag{handler: h, cancel: cancel})
}

func (a *DragArbiter) remove(h *DragHandler) {
	i := a.index(h)
	if i < 0 {
		panic(fmt.Sprintf("vview: drag %q removed but not registered", h.opts.Name))
	}
	a.drags = append(a.drags[:i], a.drags[i+1:]...)
	if a.active == h {
		a.active = nil
	}
}

func (a *DragArbiter) setActive(h *DragHandler) {
	if a.active != nil && a.active != h {
		panic(fmt.Sprintf("vview: drag %q committed while %q is active", h.opts.Name, a.active.opts.Name))
	}
	a.active = h
}

// cancelOthers cancels every registered handler except winner. Each
// cancellation removes its handler, so a snapshot is iterated. The winner
// is already active while the others are cancelled, so their end callbacks
// see who took the gesture.
func (a *DragArbiter) cancelOthers(winner *DragHandler) {
	a.active = winner
	others := append([]runningDrag(nil), a.drags...)
	for _, d := range others {
		if d.handler == winner {
			continue
		}
		if a.index(d.handler) < 0 {
			continue
		}
		d.cancel()
	}
}

// --- Drag handler ---

// DragInfo describes one drag step.
type DragInfo struct {
	Event *PointerEvent
	// First is set on the first step after the drag starts.
	First bool
	// MovementX and MovementY are the change in position since the last step.
	// In pinch mode this is the movement of the centroid of all pointers.
	MovementX, MovementY float64
	// X and Y are the current position (the centroid in pinch mode).
	X, Y float64
	// Radius is the mean distance of the pointers from their centroid, and
	// PreviousRadius its value at the last step. Both are 0 outside pinch mode.
	Radius, PreviousRadius float64
}

// DragEndInfo describes how a drag ended.
type DragEndInfo struct {
	// Event is the release event, or nil when the drag was cancelled.
	Event *PointerEvent
	// Interactive is false when the drag was cancelled rather than released.
	Interactive bool
}

// DragOptions configures a DragHandler.
type DragOptions struct {
	Name string
	// Pinch tracks every pointer and reports centroid movement and radius.
	Pinch bool
	// DeferDelay, when non-zero, commits a deferred drag automatically after
	// the pointer has been held still this long. Moving before then cancels.
	DeferDelay time.Duration
	// ConfirmDrag is asked on the first press. Returning false ignores the press.
	ConfirmDrag func(ev *PointerEvent) bool
	// DeferredStart is asked on each press. Returning false commits the drag
	// immediately; true waits for movement or DeferDelay. Nil means true.
	DeferredStart func() bool
	// OnDragStart is called when the drag commits. Returning false rejects it.
	OnDragStart func(info DragInfo) bool
	OnDrag      func(info DragInfo)
	// OnDragEnd is called only for drags that started.
	OnDragEnd func(info DragEndInfo)
	// Context shuts the handler down when cancelled.
	Context context.Context
}

type dragPointer struct {
	x, y               float64
	ignoreNextMovement bool
}

// DragHandler turns pointer presses on a target into a drag lifecycle with
// deferred start and cross-handler arbitration.
type DragHandler struct {
	in     *Input
	target *Target
	opts   DragOptions

	pointers   map[int]*dragPointer
	order      []int
	started    bool
	first      bool
	registered bool
	deferTimer *Timer

	lastCentroid Vec2
	lastRadius   float64

	handles       []CallbackHandle
	windowHandles []CallbackHandle
	shutdown      bool
}

// NewDragHandler starts listening for presses on target.
func NewDragHandler(in *Input, target *Target, opts DragOptions) *DragHandler {
	if opts.Name == "" {
		opts.Name = "drag"
	}
	h := &DragHandler{
		in:       in,
		target:   target,
		opts:     opts,
		pointers: make(map[int]*dragPointer),
	}
	h.handles = append(h.handles, target.On(EventPointerDown, h.onPointerDown))
	if opts.Context != nil {
		context.AfterFunc(opts.Context, func() { in.Loop.Post(h.Shutdown) })
	}
	return h
}

// Started reports whether a drag is committed.
func (h *DragHandler) Started() bool { return h.started }

// Pointers returns the number of pointers currently tracked.
func (h *DragHandler) Pointers() int { return len(h.pointers) }

func (h *DragHandler) onPointerDown(ev *PointerEvent) {
	if h.shutdown {
		return
	}
	if ev.PointerType == PointerMouse && ev.Button != 0 {
		return
	}
	if _, ok := h.pointers[ev.PointerID]; ok {
		return
	}
	if len(h.pointers) == 0 {
		if h.opts.ConfirmDrag != nil && !h.opts.ConfirmDrag(ev) {
			return
		}
	} else if !h.opts.Pinch {
		return
	}

	h.pointers[ev.PointerID] = &dragPointer{x: ev.X, y: ev.Y}
	h.order = append(h.order, ev.PointerID)

	if len(h.pointers) == 1 {
		h.registered = true
		h.in.Drags.add(h, h.Cancel)
		window := h.target.Root()
		h.windowHandles = []CallbackHandle{
			window.On(EventPointerMove, h.onPointerMove),
			window.On(EventPointerUp, h.onPointerUp),
			window.On(EventPointerCancel, h.onPointerUp),
		}
	}

	switch {
	case h.started:
		// A pointer joined a running drag: rebase so the centroid doesn't jump.
		h.resetBaseline()
		h.pointers[ev.PointerID].ignoreNextMovement = true
	case !h.deferred():
		h.start(ev)
	case h.opts.DeferDelay > 0:
		if h.opts.Pinch && len(h.pointers) > 1 {
			// A second touch means a pinch; don't make it wait out the delay.
			h.start(ev)
		} else if h.deferTimer == nil {
			h.deferTimer = h.in.Loop.AfterFunc(h.opts.DeferDelay, func() {
				h.deferTimer = nil
				h.start(ev)
			})
		}
	}
}

func (h *DragHandler) deferred() bool {
	if h.opts.DeferredStart == nil {
		return true
	}
	return h.opts.DeferredStart()
}

// start commits the drag: it becomes the active drag and every competing
// handler is cancelled before any drag step is delivered.
func (h *DragHandler) start(ev *PointerEvent) bool {
	if h.started || len(h.pointers) == 0 {
		return h.started
	}
	h.deferTimer.Stop()
	h.deferTimer = nil

	centroid, radius := h.centroid()
	info := DragInfo{Event: ev, First: true, X: centroid.X, Y: centroid.Y, Radius: radius, PreviousRadius: radius}
	if h.opts.OnDragStart != nil && !h.opts.OnDragStart(info) {
		h.release()
		return false
	}

	h.in.Drags.cancelOthers(h)
	if h.shutdown || !h.registered {
		return false
	}
	h.in.Drags.setActive(h)
	h.started = true
	h.first = true
	h.lastCentroid, h.lastRadius = centroid, radius
	debugf("drag %q started with %d pointer(s)", h.opts.Name, len(h.pointers))
	return true
}

func (h *DragHandler) onPointerMove(ev *PointerEvent) {
	p, ok := h.pointers[ev.PointerID]
	if !ok {
		return
	}
	prevX, prevY := p.x, p.y
	p.x, p.y = ev.X, ev.Y

	if !h.started {
		if h.deferTimer != nil {
			// Movement before the hold delay elapsed: this isn't our gesture.
			h.Cancel()
			return
		}
		if !h.start(ev) {
			return
		}
	}

	info := DragInfo{Event: ev, First: h.first}
	h.first = false
	if h.opts.Pinch {
		centroid, radius := h.centroid()
		info.X, info.Y = centroid.X, centroid.Y
		info.MovementX = centroid.X - h.lastCentroid.X
		info.MovementY = centroid.Y - h.lastCentroid.Y
		info.Radius, info.PreviousRadius = radius, h.lastRadius
		if p.ignoreNextMovement {
			p.ignoreNextMovement = false
			info.MovementX, info.MovementY = 0, 0
			info.PreviousRadius = radius
		}
		h.lastCentroid, h.lastRadius = centroid, radius
	} else {
		if ev.PointerID != h.order[0] {
			return
		}
		info.X, info.Y = ev.X, ev.Y
		info.MovementX, info.MovementY = ev.X-prevX, ev.Y-prevY
		if p.ignoreNextMovement {
			p.ignoreNextMovement = false
			info.MovementX, info.MovementY = 0, 0
		}
	}
	if h.opts.OnDrag != nil {
		h.opts.OnDrag(info)
	}
}

func (h *DragHandler) onPointerUp(ev *PointerEvent) {
	if _, ok := h.pointers[ev.PointerID]; !ok {
		return
	}
	h.removePointer(ev.PointerID)
	if len(h.pointers) > 0 {
		if h.started {
			h.resetBaseline()
		}
		return
	}
	h.stop(ev.Type == EventPointerUp, ev)
}

func (h *DragHandler) removePointer(id int) {
	delete(h.pointers, id)
	for i, other := range h.order {
		if other == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// resetBaseline is called when the set of pointers changes mid-drag. The
// centroid and radius jump when a finger is added or lifted, so the next
// step measures from the new values.
func (h *DragHandler) resetBaseline() {
	h.lastCentroid, h.lastRadius = h.centroid()
}

// centroid returns the mean position of the tracked pointers and their mean
// distance from it.
func (h *DragHandler) centroid() (Vec2, float64) {
	if len(h.pointers) == 0 {
		return Vec2{}, 0
	}
	if !h.opts.Pinch {
		p := h.pointers[h.order[0]]
		return Vec2{p.x, p.y}, 0
	}
	var c Vec2
	for _, p := range h.pointers {
		c.X += p.x
		c.Y += p.y
	}
	n := float64(len(h.pointers))
	c.X /= n
	c.Y /= n
	var r float64
	for _, p := range h.pointers {
		r += math.Hypot(p.x-c.X, p.y-c.Y)
	}
	return c, r / n
}

// Cancel stops the current drag without a release. OnDragEnd is called with
// Interactive false if the drag had started.
func (h *DragHandler) Cancel() {
	h.stop(false, nil)
}

// release forgets every pointer without calling OnDragEnd.
func (h *DragHandler) release() {
	h.deferTimer.Stop()
	h.deferTimer = nil
	for i := range h.windowHandles {
		h.windowHandles[i].Remove()
	}
	h.windowHandles = nil
	clear(h.pointers)
	h.order = h.order[:0]
	if h.registered {
		h.registered = false
		h.in.Drags.remove(h)
	}
	h.started = false
}

func (h *DragHandler) stop(interactive bool, ev *PointerEvent) {
	wasStarted := h.started
	h.release()
	if wasStarted {
		debugf("drag %q ended (interactive=%v)", h.opts.Name, interactive)
		if h.opts.OnDragEnd != nil {
			h.opts.OnDragEnd(DragEndInfo{Event: ev, Interactive: interactive})
		}
	}
}

// Shutdown cancels any drag in progress and removes every listener.
func (h *DragHandler) Shutdown() {
	if h.shutdown {
		return
	}
	h.shutdown = true
	h.Cancel()
	for i := range h.handles {
		h.handles[i].Remove()
	}
	h.handles = nil
}
