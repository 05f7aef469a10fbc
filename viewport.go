package vview

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active tweens for an animated viewport move.
type scrollAnim struct {
	tweenScale *gween.Tween
	tweenX     *gween.Tween
	tweenY     *gween.Tween
	done       [3]bool
}

// Viewport is the transform of one image inside a view: where the image's
// top-left corner sits on screen and how many screen pixels one image pixel
// covers. It implements ScrollerGeometry so a TouchScroller can drive it.
type Viewport struct {
	// ImageWidth and ImageHeight are the image's natural size in pixels.
	ImageWidth, ImageHeight float64
	// Width and Height are the on-screen size of the view.
	Width, Height float64

	// Scale is screen pixels per image pixel.
	Scale float64
	// X and Y are the screen position of the image's top-left corner.
	X, Y float64
	// Opacity is set by ApplyFrame during slideshow fades.
	Opacity float64

	// MaxZoom caps Scale as a multiple of the image's natural size.
	MaxZoom float64

	zoomCenter Vec2
	scrollAnim *scrollAnim
}

// NewViewport creates a viewport showing the whole image centered.
func NewViewport(imageW, imageH, viewW, viewH float64) *Viewport {
	v := &Viewport{
		ImageWidth:  imageW,
		ImageHeight: imageH,
		Width:       viewW,
		Height:      viewH,
		Opacity:     1,
		MaxZoom:     8,
	}
	v.Reset()
	return v
}

// Reset fits the image to the view and centers it.
func (v *Viewport) Reset() {
	v.scrollAnim = nil
	v.Scale = v.ContainScale()
	v.X, v.Y = v.centered()
}

// Resize changes the view size, keeping the screen center on the same image
// point.
func (v *Viewport) Resize(viewW, viewH float64) {
	cx, cy := v.ScreenToImage(v.Width/2, v.Height/2)
	v.Width, v.Height = viewW, viewH
	if v.Scale < v.ContainScale() {
		v.Scale = v.ContainScale()
	}
	v.X = viewW/2 - cx*v.Scale
	v.Y = viewH/2 - cy*v.Scale
	v.ClampToBounds()
}

// ContainScale is the scale at which the whole image fits the view.
func (v *Viewport) ContainScale() float64 {
	if v.ImageWidth <= 0 || v.ImageHeight <= 0 {
		return 1
	}
	return math.Min(v.Width/v.ImageWidth, v.Height/v.ImageHeight)
}

// CoverScale is the scale at which the image fills the view.
func (v *Viewport) CoverScale() float64 {
	if v.ImageWidth <= 0 || v.ImageHeight <= 0 {
		return 1
	}
	return math.Max(v.Width/v.ImageWidth, v.Height/v.ImageHeight)
}

// ScaleRange returns the allowed range for Scale.
func (v *Viewport) ScaleRange() Range {
	lo := v.ContainScale()
	hi := math.Max(lo, v.MaxZoom)
	return Range{Min: lo, Max: hi}
}

func (v *Viewport) centered() (float64, float64) {
	return (v.Width - v.ImageWidth*v.Scale) / 2, (v.Height - v.ImageHeight*v.Scale) / 2
}

// Position returns the image's screen offset.
func (v *Viewport) Position() Vec2 { return Vec2{v.X, v.Y} }

// SetPosition moves the image.
func (v *Viewport) SetPosition(p Vec2) { v.X, v.Y = p.X, p.Y }

// Bounds returns the range of positions that keep the view covered. An axis
// on which the zoomed image is smaller than the view collapses to the single
// centered position.
func (v *Viewport) Bounds() Rect {
	zw := v.ImageWidth * v.Scale
	zh := v.ImageHeight * v.Scale
	var r Rect
	if zw <= v.Width {
		r.X = (v.Width - zw) / 2
	} else {
		r.X, r.Width = v.Width-zw, zw-v.Width
	}
	if zh <= v.Height {
		r.Y = (v.Height - zh) / 2
	} else {
		r.Y, r.Height = v.Height-zh, zh-v.Height
	}
	return r
}

// ClampToBounds immediately moves the image back inside Bounds.
func (v *Viewport) ClampToBounds() {
	b := v.Bounds()
	v.X = math.Max(b.X, math.Min(v.X, b.Right()))
	v.Y = math.Max(b.Y, math.Min(v.Y, b.Bottom()))
}

// WantedZoom reports the correction needed to bring Scale back into
// ScaleRange, zoomed around the point of the last zoom.
func (v *Viewport) WantedZoom() ZoomTarget {
	r := v.ScaleRange()
	want := r.Clamp(v.Scale)
	if v.Scale <= 0 || want == v.Scale {
		return ZoomTarget{Ratio: 1}
	}
	c := v.zoomCenter
	if want == r.Min {
		// Zooming out to fit always ends centered.
		c = Vec2{v.Width / 2, v.Height / 2}
	}
	return ZoomTarget{Ratio: want / v.Scale, CenterX: c.X, CenterY: c.Y}
}

// AdjustZoom multiplies Scale by ratio, keeping the image point under
// (centerX, centerY) fixed on screen.
func (v *Viewport) AdjustZoom(ratio, centerX, centerY float64) {
	if ratio <= 0 {
		return
	}
	v.X = centerX - (centerX-v.X)*ratio
	v.Y = centerY - (centerY-v.Y)*ratio
	v.Scale *= ratio
	v.zoomCenter = Vec2{centerX, centerY}
}

// ZoomAt sets Scale to an absolute value around a screen point.
func (v *Viewport) ZoomAt(scale, centerX, centerY float64) {
	if v.Scale <= 0 {
		v.Scale = scale
		return
	}
	v.AdjustZoom(scale/v.Scale, centerX, centerY)
}

// ZoomToward returns a zoom target function for TouchScroller.StartFling
// that animates Scale to scale around a screen point. Double-tap zoom uses
// it to toggle between fit and a closer zoom.
func (v *Viewport) ZoomToward(scale, centerX, centerY float64) func() ZoomTarget {
	return func() ZoomTarget {
		if v.Scale <= 0 {
			return ZoomTarget{Ratio: 1}
		}
		return ZoomTarget{Ratio: scale / v.Scale, CenterX: centerX, CenterY: centerY}
	}
}

// ToggleZoomScale returns the scale a double tap should go to: back to fit
// if zoomed in, otherwise the cover scale, or twice the fit if the image
// already covers the view.
func (v *Viewport) ToggleZoomScale() float64 {
	contain := v.ContainScale()
	if v.Scale > contain*1.01 {
		return contain
	}
	cover := v.CoverScale()
	if cover <= contain*1.01 {
		return math.Min(contain*2, v.ScaleRange().Max)
	}
	return cover
}

// ScreenToImage converts a screen point to image pixel coordinates.
func (v *Viewport) ScreenToImage(sx, sy float64) (ix, iy float64) {
	if v.Scale == 0 {
		return 0, 0
	}
	return (sx - v.X) / v.Scale, (sy - v.Y) / v.Scale
}

// ImageToScreen converts image pixel coordinates to a screen point.
func (v *Viewport) ImageToScreen(ix, iy float64) (sx, sy float64) {
	return v.X + ix*v.Scale, v.Y + iy*v.Scale
}

// VisibleBounds returns the part of the image currently on screen, in image
// coordinates.
func (v *Viewport) VisibleBounds() Rect {
	x0, y0 := v.ScreenToImage(0, 0)
	x1, y1 := v.ScreenToImage(v.Width, v.Height)
	x0, y0 = math.Max(0, x0), math.Max(0, y0)
	x1, y1 = math.Min(v.ImageWidth, x1), math.Min(v.ImageHeight, y1)
	return Rect{X: x0, Y: y0, Width: math.Max(0, x1-x0), Height: math.Max(0, y1-y0)}
}

// GeoM returns the image-to-screen matrix as an affine [a b c d tx ty].
func (v *Viewport) GeoM() [6]float64 {
	return [6]float64{v.Scale, 0, 0, v.Scale, v.X, v.Y}
}

// Planner returns a slideshow planner for this image and view. Zoom 1 in the
// planner is the fit scale.
func (v *Viewport) Planner(slideshow bool, cfg SlideshowConfig) Planner {
	contain := v.ContainScale()
	return Planner{
		ImageWidth:     v.ImageWidth * contain,
		ImageHeight:    v.ImageHeight * contain,
		ViewportWidth:  v.Width,
		ViewportHeight: v.Height,
		MinimumZoom:    1,
		Slideshow:      slideshow,
		Config:         cfg,
	}
}

// ApplyFrame sets the transform from a slideshow timeline frame produced by
// a Planner from this viewport.
func (v *Viewport) ApplyFrame(f Frame) {
	v.Scale = f.Zoom * v.ContainScale()
	v.X, v.Y = f.X, f.Y
	v.Opacity = f.Opacity
}

// ScrollTo animates the transform to the given scale and position over
// duration seconds. Call Update each frame to advance it.
func (v *Viewport) ScrollTo(scale, x, y float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	v.scrollAnim = &scrollAnim{
		tweenScale: gween.New(float32(v.Scale), float32(scale), duration, easeFn),
		tweenX:     gween.New(float32(v.X), float32(x), duration, easeFn),
		tweenY:     gween.New(float32(v.Y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is running.
func (v *Viewport) Scrolling() bool { return v.scrollAnim != nil }

// Update advances a ScrollTo animation by dt seconds.
func (v *Viewport) Update(dt float32) {
	a := v.scrollAnim
	if a == nil {
		return
	}
	step := func(i int, tw *gween.Tween, field *float64) {
		if a.done[i] {
			return
		}
		val, finished := tw.Update(dt)
		*field = float64(val)
		a.done[i] = finished
	}
	step(0, a.tweenScale, &v.Scale)
	step(1, a.tweenX, &v.X)
	step(2, a.tweenY, &v.Y)
	if a.done[0] && a.done[1] && a.done[2] {
		v.scrollAnim = nil
	}
}
