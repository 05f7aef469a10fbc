package vview

import (
	"errors"
	"math"
)

// Vec2 is a 2D vector used for positions, offsets, sizes, and velocities
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Len returns the length of the vector.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Range is a general-purpose min/max range.
type Range struct {
	Min, Max float64
}

// Clamp restricts v to [Min, Max].
func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(v, r.Max))
}

// PointerType identifies the device that produced a pointer event.
type PointerType uint8

const (
	PointerMouse PointerType = iota // mouse or trackpad
	PointerTouch                    // finger on a touch screen
	PointerPen                      // stylus
)

// Buttons is the aggregate pressed-button bitmask carried by every pointer
// event. Bit i corresponds to logical mouse button i.
type Buttons uint8

const (
	ButtonPrimary   Buttons = 1 << iota // left button, or any touch contact
	ButtonSecondary                     // right button
	ButtonAuxiliary                     // middle button (scroll wheel click)
	ButtonBack                          // side button (back)
	ButtonForward                       // side button (forward)
)

// ButtonsAll masks the five logical buttons.
const ButtonsAll = ButtonPrimary | ButtonSecondary | ButtonAuxiliary | ButtonBack | ButtonForward

// maxButtons is the number of logical mouse buttons tracked.
const maxButtons = 5

// Has reports whether button index i is set.
func (b Buttons) Has(i int) bool {
	return b&(1<<uint(i)) != 0
}

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// EventType identifies a kind of input event.
type EventType uint8

const (
	EventPointerDown          EventType = iota // a pointer became active
	EventSimulatedPointerDown                  // replay of a press that happened before a listener attached
	EventPointerMove                           // position or button state changed
	EventPointerUp                             // a pointer became inactive
	EventPointerCancel                         // the platform took the pointer away
	EventBlur                                  // the window lost focus
	EventDblClick                              // second click of a double click
	EventContextMenu                           // the platform is about to show a context menu
	eventTypeCount
)

var eventTypeNames = [...]string{
	"pointerdown", "simulatedpointerdown", "pointermove", "pointerup",
	"pointercancel", "blur", "dblclick", "contextmenu",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// Sentinel errors.
var (
	// ErrAborted is returned by operations that stopped because their
	// context was cancelled. Callers treat it as a normal outcome.
	ErrAborted = errors.New("vview: aborted")
	// ErrNoManifest means a remote animation was loaded without frame metadata.
	ErrNoManifest = errors.New("vview: no frame manifest")
	// ErrBadManifest means the frame manifest could not be parsed.
	ErrBadManifest = errors.New("vview: invalid frame manifest")
)
