package vview

import (
	"context"
	"errors"
	"image"
	"io"
	"math"
	"slices"
	"time"

	"github.com/disintegration/imaging"
	"github.com/phanxgames/vview/zipstream"
)

// PlayerOptions configures a ZipPlayer.
type PlayerOptions struct {
	Source Source
	// Manifest gives the frame delays for sources that aren't self-describing.
	// Self-describing sources read it from the archive and ignore this.
	Manifest *Manifest
	Canvas   Canvas
	// Loop restarts from the first frame after the last instead of stopping.
	Loop bool
	// Autoplay starts playing as soon as the first frame is available.
	Autoplay bool
	// Speed is the playback rate. Zero means 1.
	Speed float64

	// OnProgress reports download progress from 0 to 1, weighted by frame
	// time rather than bytes.
	OnProgress func(progress float64)
	// OnLoaded runs once every frame has downloaded.
	OnLoaded func()
	// OnFinished runs when playback reaches the end without looping.
	OnFinished func()
	// OnError runs when downloading or decoding fails. Cancellation is not
	// an error and is never reported.
	OnError func(err error)

	// Context stops the player when cancelled.
	Context context.Context
}

// ZipPlayer plays an animation delivered as a zip of frame images.
//
// Download, decode and display progress independently. Downloaded bytes are
// kept for every frame; decoded images only for the frame on screen and the
// one after it. Display is a timer that reschedules itself after each frame
// and stalls, without a timer, while the frame it wants isn't decoded yet;
// the decoder resumes it.
type ZipPlayer struct {
	loop  *Loop
	opts  PlayerOptions
	ctx   context.Context
	stop  context.CancelFunc
	video *ZipVideo

	manifest   *Manifest
	timestamps []int
	total      int

	frameData   [][]byte
	frameImages []image.Image
	loaded      bool

	frame    int
	shown    bool
	paused   bool
	speed    float64
	timer    *Timer
	finished bool

	waitingForFrame bool
	pendingFrame    int
	decoding        int

	stopped bool
	failed  error
}

// NewZipPlayer starts downloading the animation. It fails only when a
// source that isn't self-describing comes without a manifest.
func NewZipPlayer(loop *Loop, opts PlayerOptions) (*ZipPlayer, error) {
	if opts.Source == nil {
		return nil, errors.New("vview: zip player needs a source")
	}
	if !opts.Source.SelfDescribing() {
		if opts.Manifest == nil {
			return nil, ErrNoManifest
		}
		if err := opts.Manifest.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	p := &ZipPlayer{
		loop:     loop,
		opts:     opts,
		ctx:      ctx,
		stop:     cancel,
		paused:   !opts.Autoplay,
		speed:    opts.Speed,
		decoding: -1,
	}
	p.video = &ZipVideo{player: p}
	if !opts.Source.SelfDescribing() {
		p.setManifest(opts.Manifest)
	}
	// Show the first frame as soon as it decodes, playing or not.
	p.waitingForFrame = true

	context.AfterFunc(ctx, func() { loop.Post(p.Stop) })
	loop.Go(ctx, p.download)
	return p, nil
}

// Video returns the player's video-element surface.
func (p *ZipPlayer) Video() *ZipVideo { return p.video }

// setManifest keeps a private copy; a short archive trims the frame list.
func (p *ZipPlayer) setManifest(m *Manifest) {
	own := *m
	own.Frames = slices.Clone(m.Frames)
	p.manifest = &own
	m = &own
	p.timestamps, p.total = m.Timestamps()
	p.frameImages = make([]image.Image, len(m.Frames))
}

// --- Download ---

// download runs on its own goroutine. Every step that touches player state
// is emitted to the loop, and emit blocks until it has run, so a fully
// cached archive still yields to the loop between frames.
func (p *ZipPlayer) download(emit func(func()) bool) {
	rc, err := p.opts.Source.Open(p.ctx)
	if err != nil {
		emit(func() { p.fail(err) })
		return
	}
	defer rc.Close()

	zr := zipstream.NewReader(rc)
	if p.opts.Source.SelfDescribing() {
		_, data, err := zr.NextFile()
		if err != nil {
			if err == io.EOF {
				err = ErrNoManifest
			}
			emit(func() { p.fail(err) })
			return
		}
		m, err := ParseManifest(data)
		if !emit(func() {
			if err != nil {
				p.fail(err)
				return
			}
			p.setManifest(m)
		}) || err != nil {
			return
		}
	}

	for {
		_, data, err := zr.NextFile()
		if err == io.EOF {
			break
		}
		if err != nil {
			emit(func() { p.fail(err) })
			return
		}
		more := true
		if !emit(func() { more = p.addFrame(data) }) || !more {
			break
		}
	}
	emit(p.downloadFinished)
}

// addFrame stores one downloaded frame. It returns false once every frame
// in the manifest has arrived.
func (p *ZipPlayer) addFrame(data []byte) bool {
	if p.stopped || p.failed != nil {
		return false
	}
	n := len(p.frameData)
	if n >= len(p.manifest.Frames) {
		return false
	}
	p.frameData = append(p.frameData, data)
	if p.opts.OnProgress != nil && n+1 < len(p.manifest.Frames) && p.total > 0 {
		p.opts.OnProgress(float64(p.timestamps[n]) / float64(p.total))
	}
	p.decode()
	return n+1 < len(p.manifest.Frames)
}

func (p *ZipPlayer) downloadFinished() {
	if p.stopped || p.failed != nil || p.manifest == nil {
		return
	}
	if got := len(p.frameData); got < len(p.manifest.Frames) {
		logf("zip player: archive has %d frames, manifest lists %d", got, len(p.manifest.Frames))
		if got == 0 {
			p.fail(errors.New("vview: archive has no frames"))
			return
		}
		p.manifest.Frames = p.manifest.Frames[:got]
		p.timestamps, p.total = p.manifest.Timestamps()
		p.frameImages = p.frameImages[:got]
	}
	p.loaded = true
	p.debugLog("loaded")
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(1)
	}
	if p.opts.OnLoaded != nil {
		p.opts.OnLoaded()
	}
}

// fail stops the pipeline. Frames already decoded stay playable.
func (p *ZipPlayer) fail(err error) {
	if p.stopped || p.failed != nil {
		return
	}
	if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) || p.ctx.Err() != nil {
		return
	}
	p.failed = err
	logf("zip player: %v", err)
	if p.opts.OnError != nil {
		p.opts.OnError(err)
	}
}

// --- Decode ---

// nextFrame returns the frame after i, wrapping when looping, or -1.
func (p *ZipPlayer) nextFrame(i int) int {
	n := p.FrameCount()
	if i+1 < n {
		return i + 1
	}
	if p.opts.Loop && n > 0 {
		return 0
	}
	return -1
}

func (p *ZipPlayer) inWindow(i int) bool {
	return i == p.frame || i == p.nextFrame(p.frame)
}

// decode starts decoding the first frame of the window that has data but no
// image. Only one decode runs at a time.
func (p *ZipPlayer) decode() {
	if p.stopped || p.failed != nil || p.decoding >= 0 || p.manifest == nil {
		return
	}
	for _, i := range []int{p.frame, p.nextFrame(p.frame)} {
		if i < 0 || i >= len(p.frameData) || p.frameImages[i] != nil {
			continue
		}
		p.startDecode(i)
		return
	}
}

func (p *ZipPlayer) startDecode(i int) {
	p.decoding = i
	data := p.frameData[i]
	p.loop.Go(p.ctx, func(emit func(func()) bool) {
		img, err := decodeFrame(data)
		emit(func() { p.decoded(i, img, err) })
	})
}

func (p *ZipPlayer) decoded(i int, img image.Image, err error) {
	p.decoding = -1
	if p.stopped {
		return
	}
	if err != nil {
		p.fail(err)
		return
	}
	// Playback moved on while this frame was decoding.
	if !p.inWindow(i) {
		p.decode()
		return
	}
	p.frameImages[i] = img
	p.evict()

	if p.waitingForFrame && i == p.pendingFrame {
		p.showFrame(i)
		return
	}
	p.decode()
}

// evict drops decoded images outside the window.
func (p *ZipPlayer) evict() {
	for i := range p.frameImages {
		if p.frameImages[i] != nil && !p.inWindow(i) {
			p.frameImages[i] = nil
		}
	}
}

// --- Display ---

func (p *ZipPlayer) showFrame(i int) {
	p.timer.Stop()
	p.timer = nil
	p.frame = i
	p.shown = true
	p.waitingForFrame = false

	img := p.frameImages[i]
	if c := p.opts.Canvas; c != nil && img != nil {
		b := img.Bounds()
		if w, h := c.Size(); w != b.Dx() || h != b.Dy() {
			c.Resize(b.Dx(), b.Dy())
		}
		c.DrawFrame(img)
	}
	p.evict()
	p.debugLog("show")
	p.video.dispatch(MediaTimeUpdate)
	p.decode()
	p.schedule()
}

// schedule sets the timer for the frame after the one on screen. Any timer
// already set is replaced, so a decode resuming display can't race a stale
// timer into drawing twice.
func (p *ZipPlayer) schedule() {
	p.timer.Stop()
	p.timer = nil
	if p.paused || p.stopped || !p.shown || p.waitingForFrame {
		return
	}
	delay := float64(p.manifest.Frames[p.frame].Delay) / p.speed
	p.timer = p.loop.AfterFunc(time.Duration(delay*float64(time.Millisecond)), p.advance)
}

func (p *ZipPlayer) advance() {
	p.timer = nil
	if p.paused || p.stopped {
		return
	}
	next := p.nextFrame(p.frame)
	if next < 0 {
		p.finish()
		return
	}
	if p.frameImages[next] == nil {
		p.waitingForFrame = true
		p.pendingFrame = next
		p.decode()
		return
	}
	p.showFrame(next)
}

// finish pauses on the last frame and reports it once.
func (p *ZipPlayer) finish() {
	if p.finished {
		return
	}
	p.finished = true
	p.paused = true
	p.video.dispatch(MediaPause)
	if p.opts.OnFinished != nil {
		p.opts.OnFinished()
	}
}

// --- Controls ---

// Play starts or resumes playback. Playing after the end restarts.
func (p *ZipPlayer) Play() {
	if p.stopped || !p.paused {
		return
	}
	p.paused = false
	if p.finished {
		p.finished = false
		p.SetCurrentFrame(0)
	}
	p.video.dispatch(MediaPlay)
	p.schedule()
}

// Pause stops playback on the current frame.
func (p *ZipPlayer) Pause() {
	if p.stopped || p.paused {
		return
	}
	p.paused = true
	p.timer.Stop()
	p.timer = nil
	// Drop an advance stalled on a decode; Play schedules it again. A first
	// frame or a seek still shows when it decodes.
	if p.waitingForFrame && p.shown {
		p.waitingForFrame = false
	}
	p.video.dispatch(MediaPause)
}

// Paused reports whether playback is paused.
func (p *ZipPlayer) Paused() bool { return p.paused }

// Finished reports whether playback stopped at the end.
func (p *ZipPlayer) Finished() bool { return p.finished }

// Speed returns the playback rate.
func (p *ZipPlayer) Speed() float64 { return p.speed }

// SetSpeed changes the playback rate. The current frame's remaining time is
// restarted at the new rate.
func (p *ZipPlayer) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	p.speed = speed
	if p.timer.Pending() {
		p.schedule()
	}
}

// Frame returns the index of the frame on screen.
func (p *ZipPlayer) Frame() int { return p.frame }

// FrameCount returns the number of frames, or 0 before the manifest is known.
func (p *ZipPlayer) FrameCount() int {
	if p.manifest == nil {
		return 0
	}
	return len(p.manifest.Frames)
}

// DownloadedFrames returns how many frames have arrived.
func (p *ZipPlayer) DownloadedFrames() int { return len(p.frameData) }

// Loaded reports whether every frame has arrived.
func (p *ZipPlayer) Loaded() bool { return p.loaded }

// Err returns the error that stopped the pipeline, if any.
func (p *ZipPlayer) Err() error { return p.failed }

// TotalLength returns the sum of all frame delays in milliseconds.
func (p *ZipPlayer) TotalLength() int { return p.total }

// SeekableLength returns the time of the last frame boundary in milliseconds.
// The last frame's own delay is excluded: there is nothing after it to seek to.
func (p *ZipPlayer) SeekableLength() int {
	if p.manifest == nil {
		return 0
	}
	return p.total - p.manifest.Frames[len(p.manifest.Frames)-1].Delay
}

// Duration returns the seekable length in seconds, or NaN while unknown.
func (p *ZipPlayer) Duration() float64 {
	if p.manifest == nil {
		return math.NaN()
	}
	return float64(p.SeekableLength()) / 1000
}

// CurrentFrameTime returns the start of the current frame in seconds.
func (p *ZipPlayer) CurrentFrameTime() float64 {
	if p.manifest == nil {
		return 0
	}
	return float64(p.timestamps[p.frame]) / 1000
}

// SetCurrentFrameTime seeks to the downloaded frame whose start is closest
// to seconds. It never seeks past the downloaded frames.
func (p *ZipPlayer) SetCurrentFrameTime(seconds float64) {
	if p.manifest == nil || len(p.frameData) == 0 {
		return
	}
	ms := seconds * 1000
	best, bestDist := 0, math.Inf(1)
	for i := 0; i < len(p.frameData); i++ {
		d := math.Abs(float64(p.timestamps[i]) - ms)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	p.SetCurrentFrame(best)
}

// SetCurrentFrame seeks to frame i, clamped to the downloaded frames.
func (p *ZipPlayer) SetCurrentFrame(i int) {
	if p.stopped || len(p.frameData) == 0 {
		return
	}
	i = max(0, min(i, len(p.frameData)-1))
	p.finished = false
	if p.frameImages[i] != nil {
		p.showFrame(i)
		return
	}
	p.timer.Stop()
	p.timer = nil
	p.frame = i
	p.shown = false
	p.waitingForFrame = true
	p.pendingFrame = i
	p.evict()
	p.decode()
}

// Rewind seeks to the first frame.
func (p *ZipPlayer) Rewind() { p.SetCurrentFrame(0) }

// Poster returns the current frame scaled to fit maxW by maxH, or nil if it
// isn't decoded.
func (p *ZipPlayer) Poster(maxW, maxH int) image.Image {
	if p.manifest == nil || !p.shown {
		return nil
	}
	img := p.frameImages[p.frame]
	if img == nil {
		return nil
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}

// Stop cancels the download and any decode, and drops every timer and
// decoded frame. It is idempotent.
func (p *ZipPlayer) Stop() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.stop()
	p.timer.Stop()
	p.timer = nil
	clear(p.frameImages)
	p.video.clear()
}
