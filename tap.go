package vview

import (
	"context"
	"time"
)

const (
	defaultTapDelay         = 350 * time.Millisecond
	defaultTapMoveThreshold = 10.0 // pixels
)

// TapOptions configures a TapDetector.
type TapOptions struct {
	// Delay is both the commit delay after a press and the minimum gap between
	// presses. Zero means 350ms.
	Delay time.Duration
	// MoveThreshold is how far the pointer may travel before the press counts
	// as a drag. Zero means 10 pixels.
	MoveThreshold float64
	// Callback receives the original press event.
	Callback func(press *PointerEvent)
	// Context shuts the detector down when cancelled.
	Context context.Context
}

// TapDetector reports isolated taps: a press and release that didn't move,
// wasn't followed by a second press, and wasn't handled by anything else.
//
// A press opens a candidate. The candidate commits when the delay expires if
// the pointer was released by then and no recorded event was claimed by
// another handler. Anything else cancels it.
type TapDetector struct {
	in     *Input
	target *Target
	opts   TapOptions

	allPresses  map[int]bool
	lastDown    time.Duration
	hasLastDown bool

	press     *PointerEvent
	released  bool
	movement  Vec2
	recorded  []*PointerEvent
	timer     *Timer
	candidate []CallbackHandle

	handles  []CallbackHandle
	shutdown bool
}

// NewTapDetector starts watching target for isolated taps.
func NewTapDetector(in *Input, target *Target, opts TapOptions) *TapDetector {
	if opts.Delay <= 0 {
		opts.Delay = defaultTapDelay
	}
	if opts.MoveThreshold <= 0 {
		opts.MoveThreshold = defaultTapMoveThreshold
	}
	d := &TapDetector{
		in:         in,
		target:     target,
		opts:       opts,
		allPresses: make(map[int]bool),
	}
	window := target.Root()
	d.handles = append(d.handles,
		target.On(EventPointerDown, d.onPointerDown),
		window.OnCapture(EventPointerUp, d.onPointerRelease),
		window.OnCapture(EventPointerCancel, d.onPointerRelease),
	)
	in.Taps.add(d)
	if opts.Context != nil {
		context.AfterFunc(opts.Context, func() { in.Loop.Post(d.Shutdown) })
	}
	return d
}

// Pending reports whether a tap candidate is open.
func (d *TapDetector) Pending() bool { return d.press != nil }

func (d *TapDetector) onPointerDown(ev *PointerEvent) {
	if d.shutdown {
		return
	}
	now := d.in.Loop.Now()
	recent := d.hasLastDown && now-d.lastDown < d.opts.Delay
	d.lastDown, d.hasLastDown = now, true
	d.allPresses[ev.PointerID] = true

	// A quick second press is a double tap, and a second finger is a
	// multitouch gesture. Neither is an isolated tap.
	if recent || len(d.allPresses) > 1 {
		d.cancel()
		return
	}
	if ev.PointerType == PointerMouse && ev.Button != 0 {
		d.cancel()
		return
	}

	d.cancel()
	d.press = ev
	d.released = false
	d.movement = Vec2{}
	d.recorded = []*PointerEvent{ev}

	window := d.target.Root()
	for _, typ := range []EventType{EventPointerUp, EventPointerCancel, EventPointerMove, EventBlur, EventDblClick} {
		d.candidate = append(d.candidate, window.On(typ, d.record))
	}
	d.timer = d.in.Loop.AfterFunc(d.opts.Delay, d.commit)
}

func (d *TapDetector) onPointerRelease(ev *PointerEvent) {
	delete(d.allPresses, ev.PointerID)
}

func (d *TapDetector) record(ev *PointerEvent) {
	if d.press == nil {
		return
	}
	d.recorded = append(d.recorded, ev)
	switch ev.Type {
	case EventPointerMove:
		if ev.PointerID != d.press.PointerID {
			return
		}
		d.movement.X += ev.MovementX
		d.movement.Y += ev.MovementY
		if d.movement.Len() > d.opts.MoveThreshold {
			d.cancel()
		}
	case EventPointerUp:
		if ev.PointerID == d.press.PointerID {
			d.released = true
		}
	case EventPointerCancel, EventBlur, EventDblClick:
		d.cancel()
	}
}

func (d *TapDetector) commit() {
	d.timer = nil
	if d.press == nil {
		return
	}
	// Still held past the delay: a long press, not a tap.
	if !d.released {
		d.cancel()
		return
	}
	for _, ev := range d.recorded {
		if ev.DefaultPrevented() || ev.PropagationStopped() {
			d.cancel()
			return
		}
	}
	press := d.press
	d.cancel()

	// Deliver on the next pass instead of from inside the timer, and check
	// for shutdown again once there.
	d.in.Loop.Defer(func() {
		if d.shutdown || d.opts.Callback == nil {
			return
		}
		d.opts.Callback(press)
	})
}

// cancel discards the open candidate, if any.
func (d *TapDetector) cancel() {
	d.timer.Stop()
	d.timer = nil
	for i := range d.candidate {
		d.candidate[i].Remove()
	}
	d.candidate = nil
	d.press = nil
	d.recorded = nil
}

// Shutdown removes every listener and drops any pending candidate.
func (d *TapDetector) Shutdown() {
	if d.shutdown {
		return
	}
	d.shutdown = true
	d.cancel()
	for i := range d.handles {
		d.handles[i].Remove()
	}
	d.handles = nil
	d.in.Taps.remove(d)
}

// TapRegistry tracks live detectors so that any input handler can guarantee
// no isolated tap fires for the current interaction.
type TapRegistry struct {
	detectors []*TapDetector
}

func (r *TapRegistry) add(d *TapDetector) {
	r.detectors = append(r.detectors, d)
}

func (r *TapRegistry) remove(d *TapDetector) {
	for i, other := range r.detectors {
		if other == d {
			r.detectors = append(r.detectors[:i], r.detectors[i+1:]...)
			return
		}
	}
}

// PreventTaps cancels every detector's pending candidate.
func (r *TapRegistry) PreventTaps() {
	for _, d := range r.detectors {
		d.cancel()
	}
}

// Len returns the number of live detectors.
func (r *TapRegistry) Len() int { return len(r.detectors) }
