// Package vview is the gesture, animation and playback core of an image
// viewer, built for [Ebitengine].
//
// It covers the parts of a viewer with real logic in them: turning raw
// pointer input into taps, drags and pinches that don't fight each other,
// fling and rubber-band physics for panning and zooming, slideshow pan
// planning, and streaming playback of animations stored as a zip of frames.
//
// # Event loop
//
// Every component runs on a single [Loop]. Timers, frame callbacks and
// results from background goroutines all execute on the goroutine that
// ticks it, so no component needs locks:
//
//	loop := vview.NewLoop()
//	in := vview.NewInput(loop)
//	src := vview.NewEbitenInput(in)
//
//	func (g *Game) Update() error {
//		g.src.Update()
//		g.loop.Tick()
//		return nil
//	}
//
// Tests use [NewManualLoop] and move time with [Loop.Advance], waiting for
// background work with [Loop.Settle].
//
// # Pointer input
//
// [Input] turns sampled pointer state into browser-style pointer events on
// [Target]s: press, move, release, cancel, blur, double click and context
// menu, with capture and bubble phases. Gesture components listen on a
// target:
//
//   - [ButtonTracker] reports one press or release per mouse button.
//   - [TapDetector] reports isolated taps.
//   - [DragHandler] reports drags and pinches; a [DragArbiter] shared through
//     [Input] makes sure only one handler drives a gesture.
//   - [TouchScroller] pans, zooms, flings and bounces a [ScrollerGeometry]
//     such as [Viewport].
//
// # Slideshow
//
// A [Planner] computes an [Animation] of keyframes for one image in one
// view, and a [Timeline] plays it with [gween] tweens:
//
//	anim := viewport.Planner(true, cfg.Slideshow).GetAnimation(nil)
//	tl := vview.NewTimeline(anim)
//	viewport.ApplyFrame(tl.Update(dt))
//
// # Zip animations
//
// [ZipPlayer] downloads a zip of frames from a [Source], decodes at most the
// current and next frame, and plays them onto a [Canvas] with per-frame
// delays. [ZipVideo] presents it as a [MediaElement] for video controls.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package vview
