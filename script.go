package vview

import (
	"encoding/json"
	"fmt"
	"time"
)

// scriptStep is a single action in a gesture script.
type scriptStep struct {
	Action  string  `json:"action"`
	Pointer string  `json:"pointer,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	FromY   float64 `json:"fromY,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	ToY     float64 `json:"toY,omitempty"`
	Radius  float64 `json:"radius,omitempty"`
	ToR     float64 `json:"toRadius,omitempty"`
	Frames  int     `json:"frames,omitempty"`
	MS      int     `json:"ms,omitempty"`
}

// gestureScript is the top-level JSON structure of a script.
type gestureScript struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"press": true, "move": true, "release": true, "cancel": true, "blur": true,
	"tap": true, "click": true, "drag": true, "pinch": true, "wait": true,
}

// ScriptRunner replays a JSON gesture script through an Injector, one
// pointer report per frame.
//
// A script looks like:
//
//	{"steps": [
//	  {"action": "drag", "fromX": 10, "fromY": 10, "toX": 200, "toY": 10, "frames": 8},
//	  {"action": "wait", "ms": 400},
//	  {"action": "tap", "x": 50, "y": 50, "pointer": "touch"}
//	]}
type ScriptRunner struct {
	in        *Input
	inject    *Injector
	steps     []scriptStep
	cursor    int
	waitCount int
	waitUntil time.Duration
	done      bool
}

// LoadScript parses a JSON gesture script.
func LoadScript(in *Input, jsonData []byte) (*ScriptRunner, error) {
	var script gestureScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse gesture script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse gesture script: no steps")
	}
	for i, st := range script.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse gesture script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{in: in, inject: NewInjector(in), steps: script.Steps}, nil
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool { return r.done }

// Step advances the script by one frame. Call it once per frame before
// ticking the loop.
func (r *ScriptRunner) Step() {
	if r.done {
		return
	}
	// Drain queued reports before the next step.
	if r.inject.Step() {
		r.checkDone()
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.in.Loop.Now() < r.waitUntil {
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	r.run(st)
	r.inject.Step()
	r.checkDone()
}

func (r *ScriptRunner) run(st scriptStep) {
	j := r.inject
	j.PointerType, j.PointerID = PointerMouse, MousePointerID
	if st.Pointer == "touch" {
		j.PointerType, j.PointerID = PointerTouch, MousePointerID+1
	}

	switch st.Action {
	case "press":
		j.Press(st.X, st.Y)
	case "move":
		j.Move(st.X, st.Y)
	case "release":
		j.Release(st.X, st.Y)
	case "cancel":
		j.Cancel()
	case "blur":
		j.Blur()
	case "tap", "click":
		j.Click(st.X, st.Y)
	case "drag":
		j.Drag(st.FromX, st.FromY, st.ToX, st.ToY, max(st.Frames, 2))
	case "pinch":
		j.Pinch(st.X, st.Y, st.Radius, st.ToR, max(st.Frames, 2))
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
		if st.MS > 0 {
			r.waitUntil = r.in.Loop.Now() + time.Duration(st.MS)*time.Millisecond
		}
	}
}

func (r *ScriptRunner) checkDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 && r.inject.Pending() == 0 &&
		r.in.Loop.Now() >= r.waitUntil {
		r.done = true
	}
}

// RunManual plays the whole script on a manual loop, advancing the clock by
// frame after each step. It gives up after maxFrames and reports whether
// the script finished.
func (r *ScriptRunner) RunManual(frame time.Duration, maxFrames int) bool {
	for i := 0; i < maxFrames && !r.done; i++ {
		r.Step()
		r.in.Loop.Advance(frame)
	}
	return r.done
}
