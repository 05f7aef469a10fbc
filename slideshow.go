package vview

import (
	"math"
	"slices"
)

const (
	maximumZoom           = 999
	zeroDistanceDuration  = 0.1  // seconds for a segment that doesn't move
	minimumTotalTime      = 0.01 // seconds
	defaultPullInOvershot = 1.2
)

// Keyframe is one point of a slideshow pan. X and Y are the image point to
// show, from 0 to 1 across the image. AnchorX and AnchorY are where on
// screen that point goes, from 0 to 1 across the view. The Computed fields
// are filled in by Planner.PrepareAnimation.
type Keyframe struct {
	X, Y float64
	// Zoom multiplies the planner's image size. Values below the planner's
	// minimum, including 0, resolve to the minimum.
	Zoom             float64
	AnchorX, AnchorY float64

	// Duration of the segment from this keyframe to the next, in seconds.
	Duration float64
	// Speed, when set, derives the duration from the distance travelled, in
	// view sizes per second.
	Speed float64
	// MaxSpeed makes Speed a cap: the longer of Duration and the speed-derived
	// duration wins. Otherwise Speed replaces Duration.
	MaxSpeed bool
	Ease     CubicBezier

	ComputedZoom float64
	ComputedTx   float64
	ComputedTy   float64
	// ActualSpeed is the resolved speed of the segment in view sizes per second.
	ActualSpeed float64
}

// Animation is a planned slideshow presentation of one image.
type Animation struct {
	// FadeIn and FadeOut are fade durations in seconds.
	FadeIn, FadeOut float64
	Pan             []Keyframe
	// TotalTime is the sum of segment durations, never less than 0.01.
	TotalTime float64
	// TotalTravel is how far the pan moves, in view sizes.
	TotalTravel float64
}

// Clone returns a deep copy.
func (a Animation) Clone() Animation {
	a.Pan = slices.Clone(a.Pan)
	return a
}

// Pan is a user-authored two-point pan.
type Pan struct {
	StartX, StartY, StartZoom float64
	EndX, EndY, EndZoom       float64
	AnchorX, AnchorY          float64
	// Duration in seconds. Zero uses the configured default for the mode.
	Duration float64
}

// SlideshowConfig holds the slideshow and auto-pan tunables.
type SlideshowConfig struct {
	// SlideshowDuration is the length of a slideshow pan in seconds.
	SlideshowDuration float64 `json:"slideshow_duration"`
	// AutoPanDuration is the minimum length of an auto-pan in seconds.
	AutoPanDuration float64 `json:"auto_pan_duration"`
	// AutoPanSpeed caps auto-pan speed in view sizes per second.
	AutoPanSpeed float64 `json:"auto_pan_speed"`
	// FadeDuration is the slideshow fade in and out, in seconds.
	FadeDuration float64 `json:"fade_duration"`
	// MinimumTravel is the pan distance, in view sizes, below which the
	// default pan is replaced by a pull-in.
	MinimumTravel float64 `json:"minimum_travel"`
}

// DefaultSlideshowConfig returns the standard slideshow tunables.
func DefaultSlideshowConfig() SlideshowConfig {
	return SlideshowConfig{
		SlideshowDuration: 15,
		AutoPanDuration:   15,
		AutoPanSpeed:      0.1,
		FadeDuration:      1,
		MinimumTravel:     0.05,
	}
}

func (c *SlideshowConfig) applyDefaults() {
	d := DefaultSlideshowConfig()
	if c.SlideshowDuration <= 0 {
		c.SlideshowDuration = d.SlideshowDuration
	}
	if c.AutoPanDuration <= 0 {
		c.AutoPanDuration = d.AutoPanDuration
	}
	if c.AutoPanSpeed <= 0 {
		c.AutoPanSpeed = d.AutoPanSpeed
	}
	if c.FadeDuration <= 0 {
		c.FadeDuration = d.FadeDuration
	}
	if c.MinimumTravel <= 0 {
		c.MinimumTravel = d.MinimumTravel
	}
}

// Planner computes slideshow and auto-pan animations for one image in one
// view. Every method is a pure function of the planner's fields.
type Planner struct {
	// ImageWidth and ImageHeight are the image size in screen pixels at zoom 1.
	ImageWidth, ImageHeight float64
	// ViewportWidth and ViewportHeight are the view size in screen pixels.
	ViewportWidth, ViewportHeight float64
	// MinimumZoom is the smallest zoom any keyframe resolves to.
	MinimumZoom float64
	// Slideshow selects slideshow mode (fades, fixed duration, linear easing)
	// rather than auto-pan mode (no fades, speed-capped, eased).
	Slideshow bool
	Config    SlideshowConfig
}

func (p Planner) config() SlideshowConfig {
	c := p.Config
	c.applyDefaults()
	return c
}

func (p Planner) valid() bool {
	return p.ImageWidth > 0 && p.ImageHeight > 0 && p.ViewportWidth > 0 && p.ViewportHeight > 0
}

// containZoom is the zoom at which the image fits inside the view.
func (p Planner) containZoom() float64 {
	if !p.valid() {
		return 1
	}
	return math.Min(p.ViewportWidth/p.ImageWidth, p.ViewportHeight/p.ImageHeight)
}

// coverZoom is the zoom at which the image fills the view.
func (p Planner) coverZoom() float64 {
	if !p.valid() {
		return 1
	}
	return math.Max(p.ViewportWidth/p.ImageWidth, p.ViewportHeight/p.ImageHeight)
}

// fades returns the fade durations for the current mode.
func (p Planner) fades() (in, out float64) {
	if !p.Slideshow {
		return 0, 0
	}
	f := p.config().FadeDuration
	return f, f
}

// autoPanEase eases out less the longer the pan, so long pans look like a
// constant drift.
func autoPanEase(duration float64) CubicBezier {
	return CubicBezier{0, 0, scaleClamp(duration, 5, 15, 0.58, 1), 1}
}

// firstSegment fills the timing of the first keyframe for the mode.
func (p Planner) firstSegment(k *Keyframe, duration float64) {
	c := p.config()
	if p.Slideshow {
		if duration <= 0 {
			duration = c.SlideshowDuration
		}
		k.Duration = duration
		return
	}
	if duration <= 0 {
		duration = c.AutoPanDuration
	}
	k.Duration = duration
	k.Speed = c.AutoPanSpeed
	k.MaxSpeed = true
	k.Ease = autoPanEase(duration)
}

// GetDefaultPan pans once across the image at cover zoom, from the top-left
// to the bottom-right.
func (p Planner) GetDefaultPan() Animation {
	zoom := p.coverZoom()
	start := Keyframe{X: 0, Y: 0, Zoom: zoom, AnchorX: 0, AnchorY: 0}
	end := Keyframe{X: 1, Y: 1, Zoom: zoom, AnchorX: 1, AnchorY: 1}
	p.firstSegment(&start, 0)

	in, out := p.fades()
	return p.PrepareAnimation(Animation{FadeIn: in, FadeOut: out, Pan: []Keyframe{start, end}})
}

// GetPullIn zooms from fitting the image to slightly past covering the view,
// centered. It stands in for the default pan when the image and the view
// have nearly the same shape and a pan would barely move.
func (p Planner) GetPullIn() Animation {
	start := Keyframe{X: 0.5, Y: 0.5, Zoom: p.containZoom(), AnchorX: 0.5, AnchorY: 0.5}
	end := Keyframe{X: 0.5, Y: 0.5, Zoom: p.coverZoom() * defaultPullInOvershot, AnchorX: 0.5, AnchorY: 0.5}
	c := p.config()
	if p.Slideshow {
		start.Duration = c.SlideshowDuration
	} else {
		start.Duration = c.AutoPanDuration
		start.Ease = autoPanEase(start.Duration)
	}

	in, out := p.fades()
	return p.PrepareAnimation(Animation{FadeIn: in, FadeOut: out, Pan: []Keyframe{start, end}})
}

// GetAnimationFromPan builds the animation for a user-authored pan. Slideshow
// mode eases linearly since the fade hides the endpoints; auto-pan eases out.
func (p Planner) GetAnimationFromPan(pan Pan) Animation {
	start := Keyframe{X: pan.StartX, Y: pan.StartY, Zoom: pan.StartZoom, AnchorX: pan.AnchorX, AnchorY: pan.AnchorY}
	end := Keyframe{X: pan.EndX, Y: pan.EndY, Zoom: pan.EndZoom, AnchorX: pan.AnchorX, AnchorY: pan.AnchorY}
	c := p.config()
	if p.Slideshow {
		start.Duration = pan.Duration
		if start.Duration <= 0 {
			start.Duration = c.SlideshowDuration
		}
	} else {
		start.Duration = pan.Duration
		if start.Duration <= 0 {
			start.Duration = c.AutoPanDuration
		}
		start.Ease = autoPanEase(start.Duration)
	}

	in, out := p.fades()
	return p.PrepareAnimation(Animation{FadeIn: in, FadeOut: out, Pan: []Keyframe{start, end}})
}

// GetAnimation returns the animation for pan if one is given, otherwise the
// default pan, or the pull-in if the default pan would barely move.
func (p Planner) GetAnimation(pan *Pan) Animation {
	if pan != nil {
		return p.GetAnimationFromPan(*pan)
	}
	anim := p.GetDefaultPan()
	if anim.TotalTravel < p.config().MinimumTravel {
		debugf("default pan travels %.3f view sizes, using pull-in", anim.TotalTravel)
		return p.GetPullIn()
	}
	return anim
}

// PrepareAnimation resolves every keyframe to a screen transform and every
// segment to a duration. The input is not modified.
func (p Planner) PrepareAnimation(anim Animation) Animation {
	anim = anim.Clone()
	if !p.valid() {
		logf("slideshow: no image or view size (%gx%g in %gx%g)",
			p.ImageWidth, p.ImageHeight, p.ViewportWidth, p.ViewportHeight)
	}

	for i := range anim.Pan {
		k := &anim.Pan[i]
		k.ComputedZoom = math.Max(p.MinimumZoom, math.Min(k.Zoom, maximumZoom))
		zw := p.ImageWidth * k.ComputedZoom
		zh := p.ImageHeight * k.ComputedZoom
		k.ComputedTx = alignAxis(k.AnchorX, k.X, p.ViewportWidth, zw)
		k.ComputedTy = alignAxis(k.AnchorY, k.Y, p.ViewportHeight, zh)
	}

	anim.TotalTime = 0
	anim.TotalTravel = 0
	for i := range anim.Pan {
		k := &anim.Pan[i]
		if i == len(anim.Pan)-1 {
			k.Duration = 0
			k.ActualSpeed = 0
			break
		}
		next := anim.Pan[i+1]
		dx := next.ComputedTx - k.ComputedTx
		dy := next.ComputedTy - k.ComputedTy
		dist := math.Hypot(dx, dy)
		screen := p.effectiveScreenSize(dx, dy)

		if k.Speed > 0 {
			speedDuration := zeroDistanceDuration
			if dist > 0 && screen > 0 {
				speedDuration = dist / (k.Speed * screen)
			}
			if k.MaxSpeed {
				k.Duration = math.Max(k.Duration, speedDuration)
			} else {
				k.Duration = speedDuration
			}
		}
		k.Duration = math.Max(0, k.Duration)

		k.ActualSpeed = 0
		if k.Duration > 0 && screen > 0 {
			k.ActualSpeed = dist / screen / k.Duration
		}
		anim.TotalTime += k.Duration
		anim.TotalTravel += k.ActualSpeed * k.Duration
	}
	anim.TotalTime = math.Max(anim.TotalTime, minimumTotalTime)
	return anim
}

// effectiveScreenSize blends the view's width and height by how much of a
// segment's travel is horizontal, so speeds are relative to the dimension
// being crossed.
func (p Planner) effectiveScreenSize(dx, dy float64) float64 {
	ax, ay := math.Abs(dx), math.Abs(dy)
	r := 0.5
	if ax+ay > 0 {
		r = ax / (ax + ay)
	}
	return p.ViewportWidth*r + p.ViewportHeight*(1-r)
}

// alignAxis returns the translation that puts image fraction pos at view
// fraction anchor, clamped so the image edge never enters the view. An image
// smaller than the view on this axis is centered.
func alignAxis(anchor, pos, view, zoomed float64) float64 {
	if zoomed < view {
		return (view - zoomed) / 2
	}
	t := anchor*view - pos*zoomed
	return math.Max(view-zoomed, math.Min(t, 0))
}
