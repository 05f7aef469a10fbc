package vview

import (
	"context"
	"time"
)

// contextMenuGrace is how long after a handled right-button release the
// context menu stays blocked.
const contextMenuGrace = 50 * time.Millisecond

// PointerState is the window-wide view of pointer input: where the pointer
// last was and which buttons are held, across every element. Trackers use it
// to catch up on presses that happened before they were attached.
type PointerState struct {
	position       Vec2
	pointerButtons map[int]Buttons
	buttonPointer  [maxButtons]int
	handles        []CallbackHandle
}

// NewPointerState creates an empty state. Call Attach to start tracking.
func NewPointerState() *PointerState {
	return &PointerState{pointerButtons: make(map[int]Buttons)}
}

// Attach listens to pointer events on window in the capture phase, so the
// state is updated before any element handler can stop the event.
func (s *PointerState) Attach(window *Target) {
	for _, typ := range []EventType{EventPointerDown, EventPointerMove, EventPointerUp, EventPointerCancel} {
		s.handles = append(s.handles, window.OnCapture(typ, s.observe))
	}
}

// Detach stops tracking.
func (s *PointerState) Detach() {
	for i := range s.handles {
		s.handles[i].Remove()
	}
	s.handles = nil
}

func (s *PointerState) observe(ev *PointerEvent) {
	s.position = Vec2{ev.X, ev.Y}

	buttons := ev.Buttons
	if ev.Type == EventPointerCancel {
		buttons = 0
	}
	prev := s.pointerButtons[ev.PointerID]
	pressed := buttons &^ prev
	for i := 0; i < maxButtons; i++ {
		if pressed.Has(i) {
			s.buttonPointer[i] = ev.PointerID
		}
	}
	if buttons == 0 {
		delete(s.pointerButtons, ev.PointerID)
	} else {
		s.pointerButtons[ev.PointerID] = buttons
	}
}

// Position returns the latest pointer position seen anywhere in the window.
func (s *PointerState) Position() Vec2 { return s.position }

// Buttons returns the union of buttons held by all pointers.
func (s *PointerState) Buttons() Buttons {
	var b Buttons
	for _, pb := range s.pointerButtons {
		b |= pb
	}
	return b
}

// PointerIDForButton returns the pointer that most recently pressed button i.
func (s *PointerState) PointerIDForButton(i int) int {
	if i < 0 || i >= maxButtons {
		return 0
	}
	return s.buttonPointer[i]
}

// ButtonTrackerOptions configures a ButtonTracker.
type ButtonTrackerOptions struct {
	// ButtonMask selects the buttons to report. Zero means ButtonPrimary.
	ButtonMask Buttons
	// Callback receives the original event with MouseButton and Pressed set,
	// once per button transition.
	Callback func(ev *PointerEvent)
	// Context shuts the tracker down when cancelled.
	Context context.Context
}

// ButtonTracker turns the aggregate Buttons bitmask of pointer events into
// one press or release callback per logical button. Platforms report a second
// button pressed while another is held as a move, not a press; the tracker
// re-derives transitions from each event's bitmask so that, and missing or
// duplicated events, never confuse it.
type ButtonTracker struct {
	in       *Input
	target   *Target
	mask     Buttons
	down     Buttons
	held     bool
	callback func(*PointerEvent)

	handles     []CallbackHandle
	moveHandles []CallbackHandle

	blockUntilRelease bool
	blockTimer        *Timer
	shutdown          bool
}

// NewButtonTracker starts tracking presses on target.
func NewButtonTracker(in *Input, target *Target, opts ButtonTrackerOptions) *ButtonTracker {
	if opts.ButtonMask == 0 {
		opts.ButtonMask = ButtonPrimary
	}
	t := &ButtonTracker{
		in:       in,
		target:   target,
		mask:     opts.ButtonMask & ButtonsAll,
		callback: opts.Callback,
	}
	t.handles = append(t.handles,
		target.On(EventPointerDown, t.handle),
		target.On(EventSimulatedPointerDown, t.handle),
		target.On(EventContextMenu, t.onContextMenu),
	)
	if opts.Context != nil {
		context.AfterFunc(opts.Context, func() { in.Loop.Post(t.Shutdown) })
	}
	return t
}

// ButtonsDown returns the watched buttons currently held.
func (t *ButtonTracker) ButtonsDown() Buttons { return t.down }

func (t *ButtonTracker) handle(ev *PointerEvent) {
	if t.shutdown {
		return
	}
	buttons := ev.Buttons & t.mask
	t.held = ev.Buttons != 0
	if ev.Type == EventPointerCancel {
		buttons = 0
		t.held = false
	}
	changed := buttons ^ t.down
	for i := 0; i < maxButtons; i++ {
		if !changed.Has(i) {
			continue
		}
		pressed := buttons.Has(i)
		bit := Buttons(1) << uint(i)
		if pressed {
			t.down |= bit
		} else {
			t.down &^= bit
		}
		t.emit(ev, i, pressed)
		if t.shutdown {
			return
		}
		if i == 1 {
			t.trackContextMenu(ev, pressed)
		}
	}
	t.updateMoveListeners()
}

// emit calls the callback with the synthetic fields attached, then restores
// them so later listeners see the event unchanged.
func (t *ButtonTracker) emit(ev *PointerEvent, button int, pressed bool) {
	if t.callback == nil {
		return
	}
	prevButton, prevPressed := ev.MouseButton, ev.Pressed
	ev.MouseButton, ev.Pressed = button, pressed
	defer func() { ev.MouseButton, ev.Pressed = prevButton, prevPressed }()
	t.callback(ev)
}

// updateMoveListeners listens for moves and releases on the window only while
// a button is down, so an idle tracker costs nothing on mouse motion. Any
// held button counts, since a watched button pressed during a chord arrives
// as a move.
func (t *ButtonTracker) updateMoveListeners() {
	wantListeners := t.down != 0 || t.held
	if wantListeners == (t.moveHandles != nil) {
		return
	}
	if !wantListeners {
		t.removeMoveListeners()
		return
	}
	window := t.target.Root()
	t.moveHandles = []CallbackHandle{
		window.On(EventPointerMove, t.handle),
		window.On(EventPointerUp, t.handle),
		window.On(EventPointerCancel, t.handle),
	}
}

func (t *ButtonTracker) removeMoveListeners() {
	for i := range t.moveHandles {
		t.moveHandles[i].Remove()
	}
	t.moveHandles = nil
}

// trackContextMenu decides whether the context menu following a right-button
// release should be blocked. Nothing reliably says whether a menu is about to
// open, so a handled release blocks it for a short grace period.
func (t *ButtonTracker) trackContextMenu(ev *PointerEvent, pressed bool) {
	if pressed {
		t.blockTimer.Stop()
		t.blockTimer = nil
		t.blockUntilRelease = ev.DefaultPrevented()
		return
	}
	if ev.DefaultPrevented() || t.blockUntilRelease {
		t.blockUntilRelease = false
		t.blockTimer.Stop()
		t.blockTimer = t.in.Loop.AfterFunc(contextMenuGrace, func() { t.blockTimer = nil })
	}
}

func (t *ButtonTracker) onContextMenu(ev *PointerEvent) {
	if t.shutdown {
		return
	}
	if t.blockUntilRelease || t.blockTimer.Pending() {
		ev.PreventDefault()
		ev.StopPropagation()
	}
}

// CheckMissedPresses catches up on buttons that were already held when the
// tracker was attached, for example when an element appears under a pressed
// mouse. One simulated press is dispatched per missed button, carrying the
// pointer id that originally pressed it.
func (t *ButtonTracker) CheckMissedPresses() {
	if t.shutdown {
		return
	}
	state := t.in.Pointers
	missed := state.Buttons() & t.mask &^ t.down
	pos := state.Position()
	for i := 0; i < maxButtons; i++ {
		if !missed.Has(i) {
			continue
		}
		bit := Buttons(1) << uint(i)
		t.target.Dispatch(&PointerEvent{
			Type:      EventSimulatedPointerDown,
			PointerID: state.PointerIDForButton(i),
			X:         pos.X,
			Y:         pos.Y,
			Button:    platformButton(i),
			Buttons:   t.down | bit,
			Time:      t.in.Loop.Now(),
		})
		if t.shutdown {
			return
		}
	}
}

// Shutdown removes every listener. It is idempotent.
func (t *ButtonTracker) Shutdown() {
	if t.shutdown {
		return
	}
	t.shutdown = true
	for i := range t.handles {
		t.handles[i].Remove()
	}
	t.handles = nil
	t.removeMoveListeners()
	t.blockTimer.Stop()
	t.blockTimer = nil
}

// platformButton converts a logical button index (bit position in Buttons)
// to the platform's changed-button number, which swaps middle and right.
func platformButton(i int) int {
	switch i {
	case 1:
		return 2
	case 2:
		return 1
	}
	return i
}
