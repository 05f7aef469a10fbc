package vview

// MediaEvent is an event fired by a MediaElement.
type MediaEvent uint8

const (
	MediaPlay       MediaEvent = iota // playback started or resumed
	MediaPause                        // playback paused, or stopped at the end
	MediaTimeUpdate                   // the current time changed
	mediaEventCount
)

func (e MediaEvent) String() string {
	switch e {
	case MediaPlay:
		return "play"
	case MediaPause:
		return "pause"
	case MediaTimeUpdate:
		return "timeupdate"
	}
	return "unknown"
}

// MediaElement is the surface video controls drive. It follows the
// conventions of a video element, so Duration is NaN while unknown.
type MediaElement interface {
	Paused() bool
	Duration() float64
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	Play()
	Pause()
	On(ev MediaEvent, fn func()) CallbackHandle
}

// ZipVideo presents a ZipPlayer as a MediaElement.
type ZipVideo struct {
	player    *ZipPlayer
	listeners [mediaEventCount]handlerList[func()]
}

var _ MediaElement = (*ZipVideo)(nil)

// Paused reports whether the player is paused.
func (v *ZipVideo) Paused() bool { return v.player.Paused() }

// Duration returns the seekable length in seconds, or NaN.
func (v *ZipVideo) Duration() float64 { return v.player.Duration() }

// CurrentTime returns the current frame's start time in seconds.
func (v *ZipVideo) CurrentTime() float64 { return v.player.CurrentFrameTime() }

// SetCurrentTime seeks to the closest downloaded frame.
func (v *ZipVideo) SetCurrentTime(seconds float64) { v.player.SetCurrentFrameTime(seconds) }

// Play resumes playback.
func (v *ZipVideo) Play() { v.player.Play() }

// Pause pauses playback.
func (v *ZipVideo) Pause() { v.player.Pause() }

// On registers a listener for ev.
func (v *ZipVideo) On(ev MediaEvent, fn func()) CallbackHandle {
	if ev >= mediaEventCount {
		return CallbackHandle{}
	}
	l := &v.listeners[ev]
	id := l.add(fn)
	return CallbackHandle{remove: func() { l.remove(id) }}
}

func (v *ZipVideo) dispatch(ev MediaEvent) {
	for _, h := range v.listeners[ev].snapshot() {
		h.fn()
	}
}

func (v *ZipVideo) clear() {
	for i := range v.listeners {
		v.listeners[i] = handlerList[func()]{}
	}
}
