package vview

import (
	"testing"
	"time"
)

func newTapTest() (*Input, *Target, *TapDetector, *int) {
	in, el := newTestInput()
	taps := 0
	d := NewTapDetector(in, el, TapOptions{Callback: func(*PointerEvent) { taps++ }})
	return in, el, d, &taps
}

func press(in *Input, id int, typ PointerType, x, y float64) {
	in.Update(id, typ, x, y, ButtonPrimary, 0)
}

func release(in *Input, id int, typ PointerType, x, y float64) {
	if typ == PointerTouch {
		in.Release(id, x, y, 0)
		return
	}
	in.Update(id, typ, x, y, 0, 0)
}

func TestTapFiresOnce(t *testing.T) {
	in, _, d, taps := newTapTest()
	press(in, MousePointerID, PointerMouse, 10, 10)
	if !d.Pending() {
		t.Fatal("no candidate after press")
	}
	in.Loop.Advance(50 * time.Millisecond)
	release(in, MousePointerID, PointerMouse, 12, 11)
	in.Loop.Advance(time.Second)
	if *taps != 1 {
		t.Errorf("taps = %d, want 1", *taps)
	}
	if d.Pending() {
		t.Error("candidate still open after commit")
	}
}

func TestTapCallbackGetsPress(t *testing.T) {
	in, el := newTestInput()
	var got *PointerEvent
	NewTapDetector(in, el, TapOptions{Callback: func(ev *PointerEvent) { got = ev }})
	press(in, 3, PointerTouch, 40, 60)
	release(in, 3, PointerTouch, 40, 60)
	in.Loop.Advance(time.Second)
	if got == nil || got.Type != EventPointerDown || got.X != 40 || got.Y != 60 {
		t.Errorf("callback event = %+v, want the press at (40, 60)", got)
	}
}

func TestTapWaitsForDelay(t *testing.T) {
	in, _, _, taps := newTapTest()
	press(in, MousePointerID, PointerMouse, 0, 0)
	release(in, MousePointerID, PointerMouse, 0, 0)
	in.Loop.Advance(defaultTapDelay - time.Millisecond)
	if *taps != 0 {
		t.Fatalf("tap fired before the delay")
	}
	in.Loop.Advance(time.Millisecond)
	if *taps != 1 {
		t.Errorf("taps = %d, want 1", *taps)
	}
}

func TestTapCancelled(t *testing.T) {
	tests := []struct {
		name string
		run  func(in *Input, el *Target)
	}{
		{"second press within delay", func(in *Input, el *Target) {
			press(in, MousePointerID, PointerMouse, 10, 10)
			in.Loop.Advance(50 * time.Millisecond)
			release(in, MousePointerID, PointerMouse, 10, 10)
			in.Loop.Advance(150 * time.Millisecond)
			press(in, MousePointerID, PointerMouse, 10, 10)
			in.Loop.Advance(50 * time.Millisecond)
			release(in, MousePointerID, PointerMouse, 10, 10)
		}},
		{"moved past threshold", func(in *Input, el *Target) {
			press(in, MousePointerID, PointerMouse, 10, 10)
			press(in, MousePointerID, PointerMouse, 25, 10)
			release(in, MousePointerID, PointerMouse, 25, 10)
		}},
		{"held past delay", func(in *Input, el *Target) {
			press(in, MousePointerID, PointerMouse, 10, 10)
			in.Loop.Advance(defaultTapDelay + time.Millisecond)
			release(in, MousePointerID, PointerMouse, 10, 10)
		}},
		{"second finger", func(in *Input, el *Target) {
			press(in, 2, PointerTouch, 10, 10)
			press(in, 3, PointerTouch, 50, 10)
			release(in, 2, PointerTouch, 10, 10)
			release(in, 3, PointerTouch, 50, 10)
		}},
		{"pointer cancel", func(in *Input, el *Target) {
			press(in, 2, PointerTouch, 10, 10)
			in.CancelPointer(2)
		}},
		{"blur", func(in *Input, el *Target) {
			press(in, MousePointerID, PointerMouse, 10, 10)
			release(in, MousePointerID, PointerMouse, 10, 10)
			in.Blur()
		}},
		{"release handled elsewhere", func(in *Input, el *Target) {
			el.On(EventPointerUp, func(ev *PointerEvent) { ev.PreventDefault() })
			press(in, MousePointerID, PointerMouse, 10, 10)
			release(in, MousePointerID, PointerMouse, 10, 10)
		}},
		{"prevent taps", func(in *Input, el *Target) {
			press(in, MousePointerID, PointerMouse, 10, 10)
			release(in, MousePointerID, PointerMouse, 10, 10)
			in.Taps.PreventTaps()
		}},
		{"right button", func(in *Input, el *Target) {
			in.Update(MousePointerID, PointerMouse, 10, 10, ButtonSecondary, 0)
			in.Update(MousePointerID, PointerMouse, 10, 10, 0, 0)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, el, _, taps := newTapTest()
			tt.run(in, el)
			in.Loop.Advance(2 * time.Second)
			if *taps != 0 {
				t.Errorf("taps = %d, want 0", *taps)
			}
		})
	}
}

func TestTapAfterDelayIsNewTap(t *testing.T) {
	in, _, _, taps := newTapTest()
	for i := 0; i < 2; i++ {
		press(in, MousePointerID, PointerMouse, 10, 10)
		release(in, MousePointerID, PointerMouse, 10, 10)
		in.Loop.Advance(time.Second)
	}
	if *taps != 2 {
		t.Errorf("taps = %d, want 2", *taps)
	}
}

func TestTapShutdown(t *testing.T) {
	in, _, d, taps := newTapTest()
	press(in, MousePointerID, PointerMouse, 10, 10)
	release(in, MousePointerID, PointerMouse, 10, 10)
	d.Shutdown()
	in.Loop.Advance(time.Second)
	if *taps != 0 {
		t.Errorf("taps = %d after shutdown", *taps)
	}
	if in.Taps.Len() != 0 {
		t.Errorf("registry still holds %d detectors", in.Taps.Len())
	}
}
