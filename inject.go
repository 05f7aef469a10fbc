package vview

type injectKind uint8

const (
	injectUpdate injectKind = iota
	injectRelease
	injectCancel
	injectBlur
)

// injectedPointer is one queued synthetic pointer report.
type injectedPointer struct {
	kind    injectKind
	id      int
	typ     PointerType
	x, y    float64
	buttons Buttons
}

// Injector queues synthetic pointer input and feeds it to an Input one
// report per Step. Each step is one frame, the way real input arrives.
type Injector struct {
	in    *Input
	queue []injectedPointer
	// PointerType is used for Press, Move and Release. Defaults to mouse.
	PointerType PointerType
	// PointerID is used for Press, Move and Release. Zero means MousePointerID.
	PointerID int
}

// NewInjector creates an injector feeding in.
func NewInjector(in *Input) *Injector {
	return &Injector{in: in}
}

func (j *Injector) pointerID() int {
	if j.PointerID == 0 {
		return MousePointerID
	}
	return j.PointerID
}

func (j *Injector) push(ev injectedPointer) {
	j.queue = append(j.queue, ev)
}

// PressButtons queues a report of the given buttons held at (x, y).
func (j *Injector) PressButtons(x, y float64, buttons Buttons) {
	j.push(injectedPointer{kind: injectUpdate, id: j.pointerID(), typ: j.PointerType, x: x, y: y, buttons: buttons})
}

// Press queues a primary press at (x, y).
func (j *Injector) Press(x, y float64) { j.PressButtons(x, y, ButtonPrimary) }

// Move queues a move to (x, y) with the primary button held.
func (j *Injector) Move(x, y float64) { j.PressButtons(x, y, ButtonPrimary) }

// Hover queues a move to (x, y) with no button held.
func (j *Injector) Hover(x, y float64) { j.PressButtons(x, y, 0) }

// Release queues a release at (x, y). Touch pointers are removed.
func (j *Injector) Release(x, y float64) {
	kind := injectUpdate
	if j.PointerType == PointerTouch {
		kind = injectRelease
	}
	j.push(injectedPointer{kind: kind, id: j.pointerID(), typ: j.PointerType, x: x, y: y})
}

// Cancel queues a pointer cancel.
func (j *Injector) Cancel() {
	j.push(injectedPointer{kind: injectCancel, id: j.pointerID()})
}

// Blur queues a focus loss.
func (j *Injector) Blur() {
	j.push(injectedPointer{kind: injectBlur})
}

// Click queues a press followed by a release at the same point. It takes
// two steps.
func (j *Injector) Click(x, y float64) {
	j.Press(x, y)
	j.Release(x, y)
}

// Drag queues a press at (fromX, fromY), evenly spaced moves, and a release
// at (toX, toY). The sequence takes steps steps, at least 2.
func (j *Injector) Drag(fromX, fromY, toX, toY float64, steps int) {
	if steps < 2 {
		steps = 2
	}
	j.Press(fromX, fromY)
	moves := steps - 2
	for i := 1; i <= moves; i++ {
		t := float64(i) / float64(moves+1)
		j.Move(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	j.Release(toX, toY)
}

// Pinch queues a two-finger gesture around (cx, cy), spreading the fingers
// horizontally from fromRadius to toRadius over steps steps. Both fingers
// move in each step, so a step is two reports.
func (j *Injector) Pinch(cx, cy, fromRadius, toRadius float64, steps int) {
	if steps < 2 {
		steps = 2
	}
	a, b := MousePointerID+1, MousePointerID+2
	finger := func(kind injectKind, id int, x float64) {
		buttons := ButtonPrimary
		if kind != injectUpdate {
			buttons = 0
		}
		j.push(injectedPointer{kind: kind, id: id, typ: PointerTouch, x: x, y: cy, buttons: buttons})
	}
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		r := fromRadius + (toRadius-fromRadius)*t
		finger(injectUpdate, a, cx-r)
		finger(injectUpdate, b, cx+r)
	}
	finger(injectRelease, a, cx-toRadius)
	finger(injectRelease, b, cx+toRadius)
}

// Pending returns the number of queued reports.
func (j *Injector) Pending() int { return len(j.queue) }

// Step applies the next queued report. It returns false if the queue was
// empty.
func (j *Injector) Step() bool {
	if len(j.queue) == 0 {
		return false
	}
	ev := j.queue[0]
	copy(j.queue, j.queue[1:])
	j.queue = j.queue[:len(j.queue)-1]

	switch ev.kind {
	case injectUpdate:
		j.in.Update(ev.id, ev.typ, ev.x, ev.y, ev.buttons, 0)
	case injectRelease:
		j.in.Release(ev.id, ev.x, ev.y, 0)
	case injectCancel:
		j.in.CancelPointer(ev.id)
	case injectBlur:
		j.in.Blur()
	}
	return true
}

// Flush applies every queued report immediately.
func (j *Injector) Flush() {
	for j.Step() {
	}
}
