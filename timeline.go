package vview

import (
	"math"

	"github.com/tanema/gween"
)

// Frame is the transform of a slideshow animation at one instant, in the
// units of the Planner that produced it.
type Frame struct {
	Zoom    float64
	X, Y    float64
	Opacity float64
}

type timelineSegment struct {
	start, duration float64
	zoom, tx, ty    *gween.Tween
}

// Timeline plays a prepared Animation. Each segment between keyframes is a
// group of tweens eased with the segment's curve; fades are applied on top.
//
// There is no global animation manager. Call Update each frame.
type Timeline struct {
	anim     Animation
	segments []timelineSegment
	elapsed  float64
	frame    Frame
	Done     bool
}

// NewTimeline creates a timeline positioned at the start of anim.
func NewTimeline(anim Animation) *Timeline {
	t := &Timeline{anim: anim.Clone()}
	start := 0.0
	for i := 0; i+1 < len(t.anim.Pan); i++ {
		k, next := t.anim.Pan[i], t.anim.Pan[i+1]
		if k.Duration <= 0 {
			continue
		}
		fn := k.Ease.TweenFunc()
		d := float32(k.Duration)
		t.segments = append(t.segments, timelineSegment{
			start:    start,
			duration: k.Duration,
			zoom:     gween.New(float32(k.ComputedZoom), float32(next.ComputedZoom), d, fn),
			tx:       gween.New(float32(k.ComputedTx), float32(next.ComputedTx), d, fn),
			ty:       gween.New(float32(k.ComputedTy), float32(next.ComputedTy), d, fn),
		})
		start += k.Duration
	}
	t.Seek(0)
	return t
}

// Duration returns the animation's total time in seconds.
func (t *Timeline) Duration() float64 { return t.anim.TotalTime }

// Elapsed returns the playback position in seconds.
func (t *Timeline) Elapsed() float64 { return t.elapsed }

// Frame returns the transform at the current position.
func (t *Timeline) Frame() Frame { return t.frame }

// Update advances playback by dt seconds and returns the new frame. Done is
// set once the end is reached.
func (t *Timeline) Update(dt float32) Frame {
	if t.Done {
		return t.frame
	}
	return t.Seek(t.elapsed + float64(dt))
}

// Seek moves playback to an absolute position in seconds.
func (t *Timeline) Seek(seconds float64) Frame {
	total := t.anim.TotalTime
	t.elapsed = math.Max(0, math.Min(seconds, total))
	t.Done = t.elapsed >= total
	t.frame = t.transformAt(t.elapsed)
	t.frame.Opacity = t.opacityAt(t.elapsed)
	return t.frame
}

func (t *Timeline) transformAt(at float64) Frame {
	pan := t.anim.Pan
	if len(pan) == 0 {
		return Frame{Zoom: 1}
	}
	for _, s := range t.segments {
		if at > s.start+s.duration {
			continue
		}
		local := float32(at - s.start)
		z, _ := s.zoom.Set(local)
		x, _ := s.tx.Set(local)
		y, _ := s.ty.Set(local)
		return Frame{Zoom: float64(z), X: float64(x), Y: float64(y)}
	}
	last := pan[len(pan)-1]
	return Frame{Zoom: last.ComputedZoom, X: last.ComputedTx, Y: last.ComputedTy}
}

func (t *Timeline) opacityAt(at float64) float64 {
	op := 1.0
	if in := t.anim.FadeIn; in > 0 && at < in {
		op = at / in
	}
	if out := t.anim.FadeOut; out > 0 {
		if remaining := t.anim.TotalTime - at; remaining < out {
			op = math.Min(op, remaining/out)
		}
	}
	return math.Max(0, math.Min(op, 1))
}
