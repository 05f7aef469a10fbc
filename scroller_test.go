package vview

import (
	"math"
	"testing"
	"time"
)

const frame = 16 * time.Millisecond

// fakeGeometry is a translation with fixed bounds and a zoom with a
// minimum.
type fakeGeometry struct {
	pos     Vec2
	bounds  Rect
	zoom    float64
	minZoom float64
}

func (g *fakeGeometry) Position() Vec2     { return g.pos }
func (g *fakeGeometry) SetPosition(p Vec2) { g.pos = p }
func (g *fakeGeometry) Bounds() Rect       { return g.bounds }

func (g *fakeGeometry) WantedZoom() ZoomTarget {
	if g.zoom == 0 || g.zoom >= g.minZoom {
		return ZoomTarget{Ratio: 1}
	}
	return ZoomTarget{Ratio: g.minZoom / g.zoom}
}

func (g *fakeGeometry) AdjustZoom(ratio, cx, cy float64) { g.zoom *= ratio }

func newScrollerTest(g *fakeGeometry) (*Input, *Target, *TouchScroller) {
	in, el := newTestInput()
	s := NewTouchScroller(in, el, ScrollerOptions{Geometry: g})
	return in, el, s
}

// runUntilIdle advances frames until the scroller rests, returning how many
// frames it took or -1.
func runUntilIdle(in *Input, s *TouchScroller, maxFrames int) int {
	for i := 1; i <= maxFrames; i++ {
		in.Loop.Advance(frame)
		if s.State() == ScrollerIdle {
			return i
		}
	}
	return -1
}

func TestScrollerBounceConverges(t *testing.T) {
	g := &fakeGeometry{pos: Vec2{-50, 0}, bounds: Rect{X: 0, Width: 100}}
	in, _, s := newScrollerTest(g)
	inactive := 0
	s.opts.OnInactive = func() { inactive++ }

	s.StartFling(FlingOptions{})
	if s.State() != ScrollerAnimating {
		t.Fatalf("State = %v, want animating", s.State())
	}
	frames := runUntilIdle(in, s, 300)
	if frames < 0 {
		t.Fatalf("bounce did not settle; x = %v", g.pos.X)
	}
	if g.pos.X != 0 {
		t.Errorf("x = %v, want exactly 0", g.pos.X)
	}
	if inactive != 1 {
		t.Errorf("OnInactive called %d times, want 1", inactive)
	}
}

func TestScrollerBounceNeverOvershoots(t *testing.T) {
	g := &fakeGeometry{pos: Vec2{180, 0}, bounds: Rect{X: 0, Width: 100}}
	in, _, s := newScrollerTest(g)
	s.StartFling(FlingOptions{})
	for i := 0; i < 300 && s.State() != ScrollerIdle; i++ {
		in.Loop.Advance(frame)
		if g.pos.X < 100 {
			t.Fatalf("frame %d: x = %v, overshot the bound", i, g.pos.X)
		}
	}
	if g.pos.X != 100 {
		t.Errorf("x = %v, want 100", g.pos.X)
	}
}

func TestScrollerZoomBounce(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{Width: 100, Height: 100}, zoom: 0.5, minZoom: 1}
	in, _, s := newScrollerTest(g)
	s.StartFling(FlingOptions{})
	if runUntilIdle(in, s, 300) < 0 {
		t.Fatalf("zoom bounce did not settle; zoom = %v", g.zoom)
	}
	if !approxEqual(g.zoom, 1, 1e-9) {
		t.Errorf("zoom = %v, want 1", g.zoom)
	}
}

func TestScrollerFlingDecays(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{X: -1e6, Width: 2e6}}
	in, _, s := newScrollerTest(g)
	s.SetVelocity(Vec2{-1000, 0})
	finished := 0
	s.StartFling(FlingOptions{OnFinished: func() { finished++ }})

	in.Loop.Advance(frame)
	v1 := math.Abs(s.Velocity().X)
	in.Loop.Advance(frame)
	v2 := math.Abs(s.Velocity().X)
	if !(v2 < v1 && v1 < 1000) {
		t.Errorf("velocity did not decay: %v then %v", v1, v2)
	}
	want := v1 * math.Exp(-DefaultScrollerConfig().Friction*frame.Seconds())
	if !approxEqual(v2, want, 1e-6) {
		t.Errorf("velocity = %v, want %v", v2, want)
	}

	if runUntilIdle(in, s, 1000) < 0 {
		t.Fatal("fling did not stop")
	}
	if g.pos.X >= -100 {
		t.Errorf("x = %v, want the fling to have travelled", g.pos.X)
	}
	if finished != 1 {
		t.Errorf("OnFinished called %d times, want 1", finished)
	}
}

func TestScrollerDragThenFling(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{X: -1e6, Width: 2e6, Y: -1e6, Height: 2e6}}
	in, _, s := newScrollerTest(g)

	press(in, MousePointerID, PointerMouse, 100, 100)
	if s.State() != ScrollerIdle {
		t.Fatalf("State = %v after press, want idle until movement", s.State())
	}
	for x := 110.0; x <= 160; x += 10 {
		in.Loop.Advance(frame)
		press(in, MousePointerID, PointerMouse, x, 100)
	}
	if s.State() != ScrollerDragging {
		t.Fatalf("State = %v, want dragging", s.State())
	}
	// The first step is dropped.
	if g.pos.X != 50 {
		t.Errorf("x = %v after dragging, want 50", g.pos.X)
	}

	release(in, MousePointerID, PointerMouse, 160, 100)
	if s.State() != ScrollerAnimating {
		t.Fatalf("State = %v after release, want animating", s.State())
	}
	if s.Velocity().X <= 0 {
		t.Errorf("fling velocity = %v, want positive x", s.Velocity())
	}
	before := g.pos.X
	in.Loop.Advance(frame)
	if g.pos.X <= before {
		t.Error("fling did not move the position")
	}
	if runUntilIdle(in, s, 1000) < 0 {
		t.Fatal("fling did not stop")
	}
}

func TestScrollerLosingArbitrationGoesIdle(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{X: -1e6, Width: 2e6, Y: -1e6, Height: 2e6}}
	in, el, s := newScrollerTest(g)
	menu := NewTarget("menu", in.Window)
	in.HitTest = func(x, y float64) *Target {
		if x >= 500 {
			return menu
		}
		return el
	}
	menuDrag := NewDragHandler(in, menu, DragOptions{
		Name:          "menu",
		DeferredStart: func() bool { return false },
	})

	press(in, 1, PointerTouch, 100, 100)
	for x := 110.0; x <= 160; x += 10 {
		in.Loop.Advance(frame)
		press(in, 1, PointerTouch, x, 100)
	}
	if s.State() != ScrollerDragging {
		t.Fatalf("State = %v, want dragging", s.State())
	}

	press(in, 2, PointerTouch, 600, 100)
	if in.Drags.Active() != menuDrag || !menuDrag.Started() {
		t.Fatal("menu drag did not take the gesture")
	}
	if s.State() != ScrollerIdle {
		t.Errorf("State = %v after losing the gesture, want idle", s.State())
	}
	x := g.pos.X
	in.Loop.Advance(frame)
	if g.pos.X != x {
		t.Error("scroller kept moving after losing the gesture")
	}
}

func TestScrollerOverscrollDamping(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{X: -1000, Width: 1000}}
	in, _, _ := newScrollerTest(g)
	press(in, MousePointerID, PointerMouse, 0, 0)
	press(in, MousePointerID, PointerMouse, 1, 0) // commits; dropped
	press(in, MousePointerID, PointerMouse, 11, 0)
	if g.pos.X != 10 {
		t.Fatalf("x = %v, want 10", g.pos.X)
	}
	press(in, MousePointerID, PointerMouse, 21, 0)
	want := 10 + 10*math.Pow(0.994, 10)
	if !approxEqual(g.pos.X, want, 1e-9) {
		t.Errorf("x = %v, want %v", g.pos.X, want)
	}
}

func TestScrollerAxisLock(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{X: -1000, Width: 1000}}
	in, _, _ := newScrollerTest(g)
	press(in, MousePointerID, PointerMouse, 50, 50)
	press(in, MousePointerID, PointerMouse, 49, 51)
	press(in, MousePointerID, PointerMouse, 40, 80)
	if g.pos.Y != 0 {
		t.Errorf("y = %v, want 0 on a locked axis", g.pos.Y)
	}
	if g.pos.X != -9 {
		t.Errorf("x = %v, want -9", g.pos.X)
	}

	// Room appears mid-drag: the axis unlocks.
	g.bounds.Y, g.bounds.Height = -1000, 1000
	press(in, MousePointerID, PointerMouse, 40, 70)
	if g.pos.Y != -10 {
		t.Errorf("y = %v after unlocking, want -10", g.pos.Y)
	}
}

func TestScrollerTouchInterruptsFling(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{X: -1e6, Width: 2e6}}
	in, _, s := newScrollerTest(g)
	s.SetVelocity(Vec2{2000, 0})
	finished := 0
	s.StartFling(FlingOptions{OnFinished: func() { finished++ }})
	in.Loop.Advance(frame)

	press(in, 2, PointerTouch, 10, 10)
	if s.State() != ScrollerDragging {
		t.Fatalf("State = %v, want dragging after a touch during a fling", s.State())
	}
	x := g.pos.X
	in.Loop.Advance(frame)
	if g.pos.X != x {
		t.Error("interrupted fling kept moving")
	}
	if finished != 0 {
		t.Error("OnFinished called for an interrupted fling")
	}
}

func TestScrollerPinchZooms(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{X: -1000, Width: 2000, Y: -1000, Height: 2000}, zoom: 1}
	in, _, _ := newScrollerTest(g)
	press(in, 2, PointerTouch, 100, 100)
	press(in, 3, PointerTouch, 200, 100)
	press(in, 3, PointerTouch, 201, 100) // commits; dropped
	press(in, 3, PointerTouch, 220, 100)
	// Radius went from 50.5 to 60.
	if !approxEqual(g.zoom, 60/50.5, 1e-9) {
		t.Errorf("zoom = %v, want %v", g.zoom, 60/50.5)
	}
}

func TestScrollerCancelFling(t *testing.T) {
	g := &fakeGeometry{pos: Vec2{-50, 0}, bounds: Rect{Width: 100}}
	in, _, s := newScrollerTest(g)
	s.StartFling(FlingOptions{})
	in.Loop.Advance(frame)
	s.CancelFling()
	x := g.pos.X
	in.Loop.Advance(frame)
	if s.State() != ScrollerIdle || g.pos.X != x {
		t.Errorf("State = %v x = %v after cancel", s.State(), g.pos.X)
	}
}

func TestScrollerShutdown(t *testing.T) {
	g := &fakeGeometry{bounds: Rect{Width: 100}}
	in, _, s := newScrollerTest(g)
	s.Shutdown()
	press(in, MousePointerID, PointerMouse, 0, 0)
	press(in, MousePointerID, PointerMouse, 50, 0)
	if s.State() != ScrollerIdle || g.pos.X != 0 {
		t.Error("shut down scroller reacted to a drag")
	}
	s.StartFling(FlingOptions{})
	if s.State() != ScrollerIdle {
		t.Error("shut down scroller started a fling")
	}
}

func TestFlingVelocity(t *testing.T) {
	var now time.Duration
	f := NewFlingVelocity(func() time.Duration { return now }, 100*time.Millisecond)
	f.AddSample(Vec2{100, 0})
	now += 50 * time.Millisecond
	f.AddSample(Vec2{20, 10})
	if v := f.Velocity(); !approxEqual(v.X, 1200, 1e-9) || !approxEqual(v.Y, 100, 1e-9) {
		t.Errorf("Velocity = %v, want (1200, 100)", v)
	}

	now += 80 * time.Millisecond
	if d := f.Distance(); d.X != 20 || d.Y != 10 {
		t.Errorf("Distance = %v, want only the recent sample", d)
	}
	f.Reset()
	if d := f.Distance(); d != (Vec2{}) {
		t.Errorf("Distance after Reset = %v", d)
	}
}

func TestScrollerStateString(t *testing.T) {
	tests := map[ScrollerState]string{
		ScrollerIdle: "idle", ScrollerDragging: "dragging", ScrollerAnimating: "animating",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
