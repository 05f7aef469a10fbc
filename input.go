package vview

import "time"

const (
	dblClickInterval = 500 * time.Millisecond
	dblClickDistance = 5.0
)

// pointerTrack is the per-pointer state used to turn sampled positions and
// button masks into events.
type pointerTrack struct {
	typ     PointerType
	x, y    float64
	buttons Buttons
	// target receives every event of a press sequence, so an element keeps
	// getting moves after the pointer leaves it.
	target *Target
}

// Input is the set of services shared by every gesture component attached
// to one window: the loop they run on, the window target, window-wide
// pointer state, drag arbitration and the tap registry. Nothing here is a
// package-level singleton; tests build one Input per case.
//
// Input also converts sampled pointer state into pointer events. Feed it
// from EbitenInput, an Injector or any other source.
type Input struct {
	Loop     *Loop
	Window   *Target
	Pointers *PointerState
	Drags    *DragArbiter
	Taps     *TapRegistry

	// HitTest returns the target under a screen point. Nil, or a nil
	// result, means the window.
	HitTest func(x, y float64) *Target
	// OnContextMenu runs for a context menu request nothing prevented.
	OnContextMenu func(ev *PointerEvent)

	pointers map[int]*pointerTrack

	lastClickAt  time.Duration
	lastClickPos Vec2
	clickCount   int
}

// NewInput creates the shared services for a window driven by loop.
func NewInput(loop *Loop) *Input {
	in := &Input{
		Loop:     loop,
		Window:   NewTarget("window", nil),
		Pointers: NewPointerState(),
		Drags:    &DragArbiter{},
		Taps:     &TapRegistry{},
		pointers: make(map[int]*pointerTrack),
	}
	in.Pointers.Attach(in.Window)
	return in
}

// Close detaches the window-wide state.
func (in *Input) Close() {
	in.Pointers.Detach()
}

func (in *Input) hit(x, y float64) *Target {
	if in.HitTest != nil {
		if t := in.HitTest(x, y); t != nil {
			return t
		}
	}
	return in.Window
}

func (in *Input) newEvent(typ EventType, id int, p *pointerTrack, x, y float64, mods KeyModifiers) *PointerEvent {
	return &PointerEvent{
		Type:        typ,
		PointerID:   id,
		PointerType: p.typ,
		X:           x,
		Y:           y,
		MovementX:   x - p.x,
		MovementY:   y - p.y,
		Button:      -1,
		Time:        in.Loop.Now(),
		Modifiers:   mods,
	}
}

// Update reports the current state of a pointer. Events are dispatched for
// whatever changed since the last report, the way a browser does it: the
// first button pressed is a pointerdown, the last released a pointerup, and
// any other button change is a pointermove carrying the changed button.
func (in *Input) Update(id int, typ PointerType, x, y float64, buttons Buttons, mods KeyModifiers) {
	buttons &= ButtonsAll
	p, ok := in.pointers[id]
	if !ok {
		p = &pointerTrack{typ: typ, x: x, y: y}
		in.pointers[id] = p
	}
	moved := x != p.x || y != p.y
	changed := buttons ^ p.buttons

	switch {
	case p.buttons == 0 && buttons != 0:
		p.target = in.hit(x, y)
		ev := in.newEvent(EventPointerDown, id, p, x, y, mods)
		ev.Button = platformButton(lowestButton(changed))
		ev.Buttons = buttons
		in.commit(p, x, y, buttons)
		p.target.Dispatch(ev)
		if typ == PointerMouse && ev.Button == 0 {
			in.trackClick(x, y)
		}

	case p.buttons != 0 && buttons == 0:
		target := p.target
		ev := in.newEvent(EventPointerUp, id, p, x, y, mods)
		ev.Button = platformButton(lowestButton(changed))
		in.commit(p, x, y, 0)
		p.target = nil
		target.Dispatch(ev)
		in.afterRelease(target, changed, id, p, x, y, mods)

	case changed != 0:
		ev := in.newEvent(EventPointerMove, id, p, x, y, mods)
		ev.Button = platformButton(lowestButton(changed))
		ev.Buttons = buttons
		in.commit(p, x, y, buttons)
		p.target.Dispatch(ev)
		if changed.Has(1) && !buttons.Has(1) && typ == PointerMouse {
			in.contextMenu(p.target, id, p, x, y, mods)
		}

	case moved:
		target := p.target
		if target == nil {
			target = in.hit(x, y)
		}
		ev := in.newEvent(EventPointerMove, id, p, x, y, mods)
		ev.Buttons = buttons
		in.commit(p, x, y, buttons)
		target.Dispatch(ev)
	}
}

func (in *Input) commit(p *pointerTrack, x, y float64, buttons Buttons) {
	p.x, p.y = x, y
	p.buttons = buttons
}

func (in *Input) afterRelease(target *Target, changed Buttons, id int, p *pointerTrack, x, y float64, mods KeyModifiers) {
	if p.typ != PointerMouse {
		return
	}
	if changed.Has(1) {
		in.contextMenu(target, id, p, x, y, mods)
	}
	if changed.Has(0) && in.clickCount >= 2 {
		in.clickCount = 0
		ev := in.newEvent(EventDblClick, id, p, x, y, mods)
		ev.MovementX, ev.MovementY = 0, 0
		target.Dispatch(ev)
	}
}

// trackClick counts primary presses close together in time and space.
func (in *Input) trackClick(x, y float64) {
	now := in.Loop.Now()
	if in.clickCount > 0 && now-in.lastClickAt <= dblClickInterval &&
		(Vec2{x - in.lastClickPos.X, y - in.lastClickPos.Y}).Len() <= dblClickDistance {
		in.clickCount++
	} else {
		in.clickCount = 1
	}
	in.lastClickAt = now
	in.lastClickPos = Vec2{x, y}
}

// contextMenu dispatches a context menu request after a secondary button
// release and shows the menu if nothing prevented it.
func (in *Input) contextMenu(target *Target, id int, p *pointerTrack, x, y float64, mods KeyModifiers) {
	if target == nil {
		target = in.hit(x, y)
	}
	ev := in.newEvent(EventContextMenu, id, p, x, y, mods)
	ev.MovementX, ev.MovementY = 0, 0
	ev.Button = 2
	target.Dispatch(ev)
	if !ev.DefaultPrevented() && in.OnContextMenu != nil {
		in.OnContextMenu(ev)
	}
}

// Release reports that a pointer went away, such as a finger lifting. Any
// held buttons are released first.
func (in *Input) Release(id int, x, y float64, mods KeyModifiers) {
	p, ok := in.pointers[id]
	if !ok {
		return
	}
	if p.buttons != 0 {
		in.Update(id, p.typ, x, y, 0, mods)
	}
	delete(in.pointers, id)
}

// CancelPointer reports that the platform took a pointer away mid-gesture.
func (in *Input) CancelPointer(id int) {
	p, ok := in.pointers[id]
	if !ok {
		return
	}
	delete(in.pointers, id)
	if p.buttons == 0 {
		return
	}
	target := p.target
	if target == nil {
		target = in.Window
	}
	ev := in.newEvent(EventPointerCancel, id, p, p.x, p.y, 0)
	target.Dispatch(ev)
}

// Blur reports that the window lost focus.
func (in *Input) Blur() {
	in.Window.Dispatch(&PointerEvent{Type: EventBlur, Button: -1, Time: in.Loop.Now()})
}

// Held returns the buttons a pointer is holding.
func (in *Input) Held(id int) Buttons {
	if p, ok := in.pointers[id]; ok {
		return p.buttons
	}
	return 0
}

// lowestButton returns the index of the lowest set bit, or -1.
func lowestButton(b Buttons) int {
	for i := 0; i < maxButtons; i++ {
		if b.Has(i) {
			return i
		}
	}
	return -1
}
