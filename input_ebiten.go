package vview

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	// MousePointerID is the pointer id of the mouse.
	MousePointerID = 1
	// maxTouches is the number of simultaneous touches tracked.
	maxTouches = 10
)

var mouseButtons = [maxButtons]ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
	ebiten.MouseButton3,
	ebiten.MouseButton4,
}

// EbitenInput samples ebiten's mouse, touch and focus state and feeds it to
// an Input. Call Update once per ebiten Update, before Loop.Tick.
type EbitenInput struct {
	in *Input

	touchIDs  []ebiten.TouchID
	released  []ebiten.TouchID
	touchMap  [maxTouches]ebiten.TouchID
	touchUsed [maxTouches]bool

	focused bool
}

// NewEbitenInput creates an adapter feeding in.
func NewEbitenInput(in *Input) *EbitenInput {
	return &EbitenInput{in: in, focused: true}
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}

// Update reads the current input state and dispatches events for changes.
func (e *EbitenInput) Update() {
	focused := ebiten.IsFocused()
	if e.focused && !focused {
		e.in.Blur()
	}
	e.focused = focused

	mods := readModifiers()
	touching := e.processTouches(mods)
	if !touching {
		e.processMouse(mods)
	}
}

// processMouse reports the mouse as pointer MousePointerID.
func (e *EbitenInput) processMouse(mods KeyModifiers) {
	mx, my := ebiten.CursorPosition()
	var buttons Buttons
	for i, b := range mouseButtons {
		if ebiten.IsMouseButtonPressed(b) {
			buttons |= Buttons(1) << uint(i)
		}
	}
	e.in.Update(MousePointerID, PointerMouse, float64(mx), float64(my), buttons, mods)
}

// processTouches reports each touch as its own pointer and returns whether
// any touch is active.
func (e *EbitenInput) processTouches(mods KeyModifiers) bool {
	e.released = inpututil.AppendJustReleasedTouchIDs(e.released[:0])
	for _, tid := range e.released {
		slot := e.findSlot(tid)
		if slot < 0 {
			continue
		}
		x, y := inpututil.TouchPositionInPreviousTick(tid)
		e.in.Release(touchPointerID(slot), float64(x), float64(y), mods)
		e.touchUsed[slot] = false
	}

	e.touchIDs = ebiten.AppendTouchIDs(e.touchIDs[:0])
	for _, tid := range e.touchIDs {
		slot := e.touchSlot(tid)
		if slot < 0 {
			continue
		}
		x, y := ebiten.TouchPosition(tid)
		e.in.Update(touchPointerID(slot), PointerTouch, float64(x), float64(y), ButtonPrimary, mods)
	}

	// A touch that vanished without a release was taken away.
	for slot := range e.touchUsed {
		if !e.touchUsed[slot] || e.stillTouching(e.touchMap[slot]) {
			continue
		}
		e.in.CancelPointer(touchPointerID(slot))
		e.touchUsed[slot] = false
	}
	return len(e.touchIDs) > 0
}

func (e *EbitenInput) stillTouching(tid ebiten.TouchID) bool {
	for _, t := range e.touchIDs {
		if t == tid {
			return true
		}
	}
	return false
}

func touchPointerID(slot int) int { return MousePointerID + 1 + slot }

func (e *EbitenInput) findSlot(tid ebiten.TouchID) int {
	for i := range e.touchMap {
		if e.touchUsed[i] && e.touchMap[i] == tid {
			return i
		}
	}
	return -1
}

// touchSlot maps a touch to a pointer slot, allocating one for a new touch.
// It returns -1 when every slot is taken.
func (e *EbitenInput) touchSlot(tid ebiten.TouchID) int {
	if i := e.findSlot(tid); i >= 0 {
		return i
	}
	for i := range e.touchUsed {
		if !e.touchUsed[i] {
			e.touchUsed[i] = true
			e.touchMap[i] = tid
			return i
		}
	}
	return -1
}
