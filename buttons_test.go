package vview

import (
	"math/rand"
	"testing"
	"time"
)

// newTestInput returns an Input on a manual loop whose hit test always finds
// a single element under the window.
func newTestInput() (*Input, *Target) {
	in := NewInput(NewManualLoop())
	el := NewTarget("element", in.Window)
	in.HitTest = func(x, y float64) *Target { return el }
	return in, el
}

type buttonChange struct {
	button  int
	pressed bool
}

func recordButtons(in *Input, el *Target, mask Buttons) (*ButtonTracker, *[]buttonChange) {
	var got []buttonChange
	tr := NewButtonTracker(in, el, ButtonTrackerOptions{
		ButtonMask: mask,
		Callback: func(ev *PointerEvent) {
			got = append(got, buttonChange{ev.MouseButton, ev.Pressed})
		},
	})
	return tr, &got
}

func expectedChanges(masks []Buttons, watch Buttons) []buttonChange {
	var want []buttonChange
	var prev Buttons
	for _, m := range masks {
		changed := (m ^ prev) & watch
		for i := 0; i < maxButtons; i++ {
			if changed.Has(i) {
				want = append(want, buttonChange{i, m.Has(i)})
			}
		}
		prev = m
	}
	return want
}

func TestButtonTrackerMatchesBitTransitions(t *testing.T) {
	tests := []struct {
		name  string
		watch Buttons
		masks []Buttons
	}{
		{"single click", ButtonPrimary, []Buttons{ButtonPrimary, 0}},
		{"chord", ButtonPrimary | ButtonSecondary, []Buttons{
			ButtonPrimary, ButtonPrimary | ButtonSecondary, ButtonSecondary, 0,
		}},
		{"watched pressed during unwatched", ButtonPrimary, []Buttons{
			ButtonSecondary, ButtonSecondary | ButtonPrimary, ButtonSecondary, 0,
		}},
		{"two at once", ButtonsAll, []Buttons{
			ButtonPrimary | ButtonAuxiliary, ButtonBack, 0,
		}},
		{"duplicate masks", ButtonsAll, []Buttons{
			ButtonPrimary, ButtonPrimary, ButtonPrimary | ButtonForward, ButtonPrimary | ButtonForward, 0, 0,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, el := newTestInput()
			_, got := recordButtons(in, el, tt.watch)
			for i, m := range tt.masks {
				in.Update(MousePointerID, PointerMouse, float64(i), 0, m, 0)
			}
			assertChanges(t, *got, expectedChanges(tt.masks, tt.watch))
		})
	}
}

func TestButtonTrackerRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 50; round++ {
		in, el := newTestInput()
		watch := Buttons(rng.Intn(int(ButtonsAll))) + 1
		_, got := recordButtons(in, el, watch)

		masks := make([]Buttons, 20)
		for i := range masks {
			masks[i] = Buttons(rng.Intn(int(ButtonsAll) + 1))
		}
		masks = append(masks, 0)
		for i, m := range masks {
			in.Update(MousePointerID, PointerMouse, float64(i%3), 0, m, 0)
		}
		want := expectedChanges(masks, watch)
		if !sameChanges(*got, want) {
			t.Fatalf("round %d watch %05b masks %v:\ngot  %v\nwant %v", round, watch, masks, *got, want)
		}
	}
}

func assertChanges(t *testing.T, got, want []buttonChange) {
	t.Helper()
	if !sameChanges(got, want) {
		t.Errorf("changes = %v, want %v", got, want)
	}
}

func sameChanges(got, want []buttonChange) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestButtonTrackerRestoresEventFields(t *testing.T) {
	in, el := newTestInput()
	NewButtonTracker(in, el, ButtonTrackerOptions{Callback: func(*PointerEvent) {}})
	var seen *PointerEvent
	el.On(EventPointerDown, func(ev *PointerEvent) { seen = ev })

	in.Update(MousePointerID, PointerMouse, 0, 0, ButtonPrimary, 0)
	if seen == nil {
		t.Fatal("pointerdown not delivered")
	}
	if seen.Pressed || seen.MouseButton != 0 {
		t.Errorf("later listener saw Pressed=%v MouseButton=%d", seen.Pressed, seen.MouseButton)
	}
}

func TestButtonTrackerIdleHasNoMoveListeners(t *testing.T) {
	in, el := newTestInput()
	NewButtonTracker(in, el, ButtonTrackerOptions{})
	base := in.Window.ListenerCount(EventPointerMove)

	in.Update(MousePointerID, PointerMouse, 0, 0, ButtonPrimary, 0)
	if n := in.Window.ListenerCount(EventPointerMove); n != base+1 {
		t.Errorf("move listeners while held = %d, want %d", n, base+1)
	}
	in.Update(MousePointerID, PointerMouse, 0, 0, 0, 0)
	if n := in.Window.ListenerCount(EventPointerMove); n != base {
		t.Errorf("move listeners after release = %d, want %d", n, base)
	}
}

func TestButtonTrackerBlocksContextMenu(t *testing.T) {
	in, el := newTestInput()
	NewButtonTracker(in, el, ButtonTrackerOptions{
		ButtonMask: ButtonSecondary,
		Callback:   func(ev *PointerEvent) { ev.PreventDefault() },
	})
	menus := 0
	in.OnContextMenu = func(*PointerEvent) { menus++ }

	in.Update(MousePointerID, PointerMouse, 0, 0, ButtonSecondary, 0)
	in.Update(MousePointerID, PointerMouse, 0, 0, 0, 0)
	if menus != 0 {
		t.Errorf("context menu shown %d times after a handled right click", menus)
	}

	// After the grace period an unrelated context menu goes through.
	in.Loop.Advance(contextMenuGrace + time.Millisecond)
	in.contextMenu(el, MousePointerID, in.pointers[MousePointerID], 0, 0, 0)
	if menus != 1 {
		t.Errorf("context menu shown %d times after the grace period, want 1", menus)
	}
}

func TestButtonTrackerUnhandledRightClickShowsMenu(t *testing.T) {
	in, el := newTestInput()
	NewButtonTracker(in, el, ButtonTrackerOptions{ButtonMask: ButtonSecondary, Callback: func(*PointerEvent) {}})
	menus := 0
	in.OnContextMenu = func(*PointerEvent) { menus++ }

	in.Update(MousePointerID, PointerMouse, 0, 0, ButtonSecondary, 0)
	in.Update(MousePointerID, PointerMouse, 0, 0, 0, 0)
	if menus != 1 {
		t.Errorf("context menu shown %d times, want 1", menus)
	}
}

func TestButtonTrackerCheckMissedPresses(t *testing.T) {
	in, el := newTestInput()
	// Buttons pressed before the tracker exists.
	in.Update(7, PointerMouse, 5, 5, ButtonPrimary|ButtonAuxiliary, 0)

	var ids []int
	var got []buttonChange
	tr := NewButtonTracker(in, el, ButtonTrackerOptions{
		ButtonMask: ButtonsAll,
		Callback: func(ev *PointerEvent) {
			ids = append(ids, ev.PointerID)
			got = append(got, buttonChange{ev.MouseButton, ev.Pressed})
		},
	})
	tr.CheckMissedPresses()

	assertChanges(t, got, []buttonChange{{0, true}, {2, true}})
	for _, id := range ids {
		if id != 7 {
			t.Errorf("simulated press pointer id = %d, want 7", id)
		}
	}
	if tr.ButtonsDown() != ButtonPrimary|ButtonAuxiliary {
		t.Errorf("ButtonsDown = %05b", tr.ButtonsDown())
	}

	// Caught up: nothing more to replay.
	tr.CheckMissedPresses()
	if len(got) != 2 {
		t.Errorf("second CheckMissedPresses emitted %d more", len(got)-2)
	}
}

func TestButtonTrackerShutdown(t *testing.T) {
	in, el := newTestInput()
	tr, got := recordButtons(in, el, ButtonPrimary)
	in.Update(MousePointerID, PointerMouse, 0, 0, ButtonPrimary, 0)
	tr.Shutdown()
	tr.Shutdown()
	in.Update(MousePointerID, PointerMouse, 0, 0, 0, 0)
	if len(*got) != 1 {
		t.Errorf("callbacks = %d, want 1 (release after shutdown is dropped)", len(*got))
	}
}

func TestPlatformButton(t *testing.T) {
	tests := []struct{ index, want int }{{0, 0}, {1, 2}, {2, 1}, {3, 3}, {4, 4}}
	for _, tt := range tests {
		if got := platformButton(tt.index); got != tt.want {
			t.Errorf("platformButton(%d) = %d, want %d", tt.index, got, tt.want)
		}
	}
}
