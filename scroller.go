package vview

import (
	"context"
	"math"
	"time"
)

// ScrollerState is the phase of a TouchScroller.
type ScrollerState uint8

const (
	ScrollerIdle      ScrollerState = iota // nothing is moving
	ScrollerDragging                       // a drag or pinch is driving the position
	ScrollerAnimating                      // flinging or bouncing back into bounds
)

func (s ScrollerState) String() string {
	switch s {
	case ScrollerDragging:
		return "dragging"
	case ScrollerAnimating:
		return "animating"
	default:
		return "idle"
	}
}

// ZoomTarget describes where the zoom wants to be.
type ZoomTarget struct {
	// Ratio is the wanted zoom divided by the current zoom. 1 means the zoom
	// is already in range.
	Ratio float64
	// CenterX and CenterY are the screen point to zoom around.
	CenterX, CenterY float64
}

// ScrollerGeometry is the transform a TouchScroller controls. The scroller
// never owns position or zoom; it reads and writes them through this.
type ScrollerGeometry interface {
	// Position returns the current translation in screen pixels.
	Position() Vec2
	SetPosition(p Vec2)
	// Bounds returns the range Position may rest in. A zero width or height
	// means that axis can't scroll.
	Bounds() Rect
	// WantedZoom reports how far the zoom is from its allowed range.
	WantedZoom() ZoomTarget
	// AdjustZoom multiplies the zoom by ratio around a screen point.
	AdjustZoom(ratio, centerX, centerY float64)
}

// ScrollerConfig holds the physics constants.
type ScrollerConfig struct {
	// Friction is the exponential velocity decay rate per second.
	Friction float64 `json:"friction"`
	// MinimumVelocity in pixels per second below which a fling stops.
	MinimumVelocity float64 `json:"minimum_velocity"`
	// OverscrollStrength is raised to the overscroll distance in pixels to
	// damp drags past the bounds.
	OverscrollStrength float64 `json:"overscroll_strength"`
	// BounceFactor scales the pull back into bounds.
	BounceFactor float64 `json:"bounce_factor"`
	// SamplePeriod is the window for fling velocity estimation.
	SamplePeriod time.Duration `json:"-"`
}

// DefaultScrollerConfig returns the standard physics constants.
func DefaultScrollerConfig() ScrollerConfig {
	return ScrollerConfig{
		Friction:           7,
		MinimumVelocity:    20,
		OverscrollStrength: 0.994,
		BounceFactor:       0.025,
		SamplePeriod:       defaultFlingSamplePeriod,
	}
}

func (c *ScrollerConfig) applyDefaults() {
	d := DefaultScrollerConfig()
	if c.Friction <= 0 {
		c.Friction = d.Friction
	}
	if c.MinimumVelocity <= 0 {
		c.MinimumVelocity = d.MinimumVelocity
	}
	if c.OverscrollStrength <= 0 || c.OverscrollStrength > 1 {
		c.OverscrollStrength = d.OverscrollStrength
	}
	if c.BounceFactor <= 0 {
		c.BounceFactor = d.BounceFactor
	}
	if c.SamplePeriod <= 0 {
		c.SamplePeriod = d.SamplePeriod
	}
}

// ScrollerOptions configures a TouchScroller.
type ScrollerOptions struct {
	Geometry ScrollerGeometry
	Config   ScrollerConfig
	// OnActive is called when the scroller leaves idle, OnInactive when it
	// returns to it.
	OnActive   func()
	OnInactive func()
	// Context shuts the scroller down when cancelled.
	Context context.Context
}

// FlingOptions configures an animation started with StartFling.
type FlingOptions struct {
	// WantedZoom overrides the geometry's zoom target for this animation,
	// for example to animate a double-tap zoom.
	WantedZoom func() ZoomTarget
	// OnFinished runs when the animation comes to rest. It is not called if
	// the animation is interrupted.
	OnFinished func()
}

const axisLockEpsilon = 0.001

// TouchScroller implements drag, pinch zoom, fling and bounce for a viewer
// whose transform lives elsewhere.
//
// It moves idle → dragging on a committed drag, dragging → animating on
// release, and animating → idle once the velocity has decayed and nothing
// is out of bounds. A new touch while animating interrupts the animation and
// starts a new drag.
type TouchScroller struct {
	in   *Input
	opts ScrollerOptions
	cfg  ScrollerConfig

	state      ScrollerState
	velocity   Vec2
	fling      *FlingVelocity
	dragger    *DragHandler
	axesLocked [2]bool

	anim      int
	lastFrame time.Duration
	flingOpts FlingOptions
	shutdown  bool
}

// NewTouchScroller attaches a scroller to target.
func NewTouchScroller(in *Input, target *Target, opts ScrollerOptions) *TouchScroller {
	cfg := opts.Config
	cfg.applyDefaults()
	s := &TouchScroller{
		in:    in,
		opts:  opts,
		cfg:   cfg,
		fling: NewFlingVelocity(in.Loop.Now, cfg.SamplePeriod),
	}
	s.dragger = NewDragHandler(in, target, DragOptions{
		Name:  "TouchScroller",
		Pinch: true,
		// While animating, a touch stops the fling immediately. From idle,
		// wait for movement so taps stay taps.
		DeferredStart: func() bool { return s.state == ScrollerIdle },
		OnDragStart:   s.onDragStart,
		OnDrag:        s.onDrag,
		OnDragEnd:     s.onDragEnd,
	})
	if opts.Context != nil {
		context.AfterFunc(opts.Context, func() { in.Loop.Post(s.Shutdown) })
	}
	return s
}

// State returns the current phase.
func (s *TouchScroller) State() ScrollerState { return s.state }

// Velocity returns the current fling velocity in pixels per second.
func (s *TouchScroller) Velocity() Vec2 { return s.velocity }

func (s *TouchScroller) setState(next ScrollerState) {
	prev := s.state
	s.state = next
	if prev == ScrollerIdle && next != ScrollerIdle && s.opts.OnActive != nil {
		s.opts.OnActive()
	}
	if prev != ScrollerIdle && next == ScrollerIdle && s.opts.OnInactive != nil {
		s.opts.OnInactive()
	}
}

func (s *TouchScroller) onDragStart(DragInfo) bool {
	if s.shutdown {
		return false
	}
	s.anim++
	s.flingOpts = FlingOptions{}

	// Lock axes that have no room at the start of the drag. They unlock as
	// soon as there is room, so zooming in mid-drag allows panning.
	b := s.opts.Geometry.Bounds()
	s.axesLocked = [2]bool{b.Width < axisLockEpsilon, b.Height < axisLockEpsilon}
	s.velocity = Vec2{}
	s.fling.Reset()
	s.setState(ScrollerDragging)
	return true
}

func (s *TouchScroller) onDrag(info DragInfo) {
	if s.state != ScrollerDragging {
		return
	}
	// The first step carries whatever the platform coalesced before the
	// drag started.
	if info.First {
		return
	}
	g := s.opts.Geometry
	b := g.Bounds()
	if b.Width >= axisLockEpsilon {
		s.axesLocked[0] = false
	}
	if b.Height >= axisLockEpsilon {
		s.axesLocked[1] = false
	}

	pos := g.Position()
	move := Vec2{info.MovementX, info.MovementY}
	if s.axesLocked[0] {
		move.X = 0
	}
	if s.axesLocked[1] {
		move.Y = 0
	}
	move.X *= math.Pow(s.cfg.OverscrollStrength, overscroll(pos.X, b.X, b.Right()))
	move.Y *= math.Pow(s.cfg.OverscrollStrength, overscroll(pos.Y, b.Y, b.Bottom()))

	g.SetPosition(Vec2{pos.X + move.X, pos.Y + move.Y})
	s.fling.AddSample(move)

	if info.PreviousRadius > 0 && info.Radius > 0 && info.Radius != info.PreviousRadius {
		g.AdjustZoom(info.Radius/info.PreviousRadius, info.X, info.Y)
	}
}

// overscroll returns how far p lies outside [lo, hi].
func overscroll(p, lo, hi float64) float64 {
	if p < lo {
		return lo - p
	}
	if p > hi {
		return p - hi
	}
	return 0
}

func (s *TouchScroller) onDragEnd(DragEndInfo) {
	if s.state != ScrollerDragging {
		return
	}
	// Another drag won arbitration and owns the gesture now.
	if active := s.in.Drags.Active(); active != nil && active != s.dragger {
		s.setState(ScrollerIdle)
		return
	}
	v := s.fling.Velocity()
	if s.axesLocked[0] {
		v.X = 0
	}
	if s.axesLocked[1] {
		v.Y = 0
	}
	s.velocity = v
	s.StartFling(FlingOptions{})
}

// StartFling animates from the current velocity, bouncing position and zoom
// back into range. With no velocity this snaps to the wanted zoom and bounds,
// which is how double-tap zoom is animated.
func (s *TouchScroller) StartFling(opts FlingOptions) {
	if s.shutdown {
		return
	}
	s.anim++
	s.flingOpts = opts
	s.lastFrame = s.in.Loop.Now()
	s.setState(ScrollerAnimating)
	s.requestFrame()
}

// SetVelocity sets the fling velocity in pixels per second.
func (s *TouchScroller) SetVelocity(v Vec2) { s.velocity = v }

func (s *TouchScroller) requestFrame() {
	token := s.anim
	s.in.Loop.RequestFrame(func(now time.Duration) { s.frame(token, now) })
}

func (s *TouchScroller) frame(token int, now time.Duration) {
	if token != s.anim || s.state != ScrollerAnimating || s.shutdown {
		return
	}
	dt := (now - s.lastFrame).Seconds()
	s.lastFrame = now

	move := Vec2{s.velocity.X * dt, s.velocity.Y * dt}
	decay := math.Exp(-s.cfg.Friction * dt)
	s.velocity.X *= decay
	s.velocity.Y *= decay

	bounced := s.applyPositionBounce(dt, move)
	if s.applyZoomBounce(dt) {
		bounced = true
	}
	if !bounced && s.velocity.Len() < s.cfg.MinimumVelocity {
		s.finishFling()
		return
	}
	s.requestFrame()
}

func (s *TouchScroller) applyPositionBounce(dt float64, move Vec2) bool {
	g := s.opts.Geometry
	b := g.Bounds()
	pos := g.Position()
	pos.X += move.X
	pos.Y += move.Y

	var bx, by bool
	pos.X, s.velocity.X, bx = s.bounceAxis(pos.X, b.X, b.Right(), s.velocity.X, dt)
	pos.Y, s.velocity.Y, by = s.bounceAxis(pos.Y, b.Y, b.Bottom(), s.velocity.Y, dt)
	g.SetPosition(pos)
	return bx || by
}

// bounceAxis pulls p back towards [lo, hi] in proportion to how far out it
// is, never overshooting the bound. Velocity on an axis that is out of bounds
// is dropped; the bounce takes over.
func (s *TouchScroller) bounceAxis(p, lo, hi, v, dt float64) (float64, float64, bool) {
	switch {
	case p < lo:
		p += s.cfg.BounceFactor * (lo - p) * dt * 300
		if p > lo || lo-p < 0.5 {
			p = lo
		}
		return p, 0, true
	case p > hi:
		p -= s.cfg.BounceFactor * (p - hi) * dt * 300
		if p < hi || p-hi < 0.5 {
			p = hi
		}
		return p, 0, true
	}
	return p, v, false
}

// applyZoomBounce moves the zoom towards its wanted value. The zoom error is
// a ratio, so it is reduced in log space; the tenth-power curve makes it
// settle in about the time a position bounce takes to look settled.
func (s *TouchScroller) applyZoomBounce(dt float64) bool {
	wanted := s.opts.Geometry.WantedZoom
	if s.flingOpts.WantedZoom != nil {
		wanted = s.flingOpts.WantedZoom
	}
	t := wanted()
	if t.Ratio <= 0 || math.Abs(t.Ratio-1) < 1e-4 {
		return false
	}
	f := math.Min(1, s.cfg.BounceFactor*dt*300)
	speed := 1 - math.Pow(1-f, 10)
	step := math.Pow(t.Ratio, speed)
	if math.Abs(t.Ratio-1) < 0.005 {
		step = t.Ratio
	}
	s.opts.Geometry.AdjustZoom(step, t.CenterX, t.CenterY)
	return true
}

func (s *TouchScroller) finishFling() {
	s.anim++
	s.velocity = Vec2{}
	opts := s.flingOpts
	s.flingOpts = FlingOptions{}
	s.setState(ScrollerIdle)
	if opts.OnFinished != nil {
		opts.OnFinished()
	}
}

// CancelFling stops a running animation where it is.
func (s *TouchScroller) CancelFling() {
	if s.state != ScrollerAnimating {
		return
	}
	s.anim++
	s.velocity = Vec2{}
	s.flingOpts = FlingOptions{}
	s.setState(ScrollerIdle)
}

// Shutdown stops any drag or animation and removes every listener.
func (s *TouchScroller) Shutdown() {
	if s.shutdown {
		return
	}
	s.dragger.Shutdown()
	s.CancelFling()
	s.shutdown = true
	if s.state != ScrollerIdle {
		s.setState(ScrollerIdle)
	}
}
