package vview

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Loop is the single-threaded scheduler every component runs on. Timers,
// frame callbacks and posted functions all execute on the goroutine that
// calls Tick (or Advance in tests), so component state never needs locks.
//
// Background work (network reads, image decoding) runs on its own goroutine
// via Go and hands results back through Post.
//
// There is no global loop. Hosts call Tick once per frame, typically from
// ebiten.Game.Update.
type Loop struct {
	start  time.Time
	manual bool
	now    time.Duration

	timers timerHeap
	seq    uint64
	frames []func(now time.Duration)

	mu     sync.Mutex
	posted []func()
	jobs   int
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewLoop creates a loop driven by the wall clock.
func NewLoop() *Loop {
	return &Loop{
		start: time.Now(),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// NewManualLoop creates a loop whose clock only moves when Advance is called.
func NewManualLoop() *Loop {
	l := NewLoop()
	l.manual = true
	return l
}

// Now returns the loop's current time, measured from its creation.
func (l *Loop) Now() time.Duration {
	return l.now
}

// Timer is a pending AfterFunc callback.
type Timer struct {
	due   time.Duration
	seq   uint64
	fn    func()
	index int
	loop  *Loop
}

// Stop cancels the timer. It reports whether the timer was still pending.
// Stop on a nil Timer is a no-op.
func (t *Timer) Stop() bool {
	if t == nil || t.index < 0 {
		return false
	}
	heap.Remove(&t.loop.timers, t.index)
	return true
}

// Pending reports whether the timer has neither fired nor been stopped.
func (t *Timer) Pending() bool {
	return t != nil && t.index >= 0
}

// AfterFunc schedules fn to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.seq++
	t := &Timer{due: l.now + d, seq: l.seq, fn: fn, loop: l}
	heap.Push(&l.timers, t)
	return t
}

// Defer runs fn after the current callback returns, once the loop regains
// control. It is the equivalent of a zero-length timeout.
func (l *Loop) Defer(fn func()) *Timer {
	return l.AfterFunc(0, fn)
}

// RequestFrame runs fn once on the next frame pass.
func (l *Loop) RequestFrame(fn func(now time.Duration)) {
	l.frames = append(l.frames, fn)
}

// Post queues fn to run on the loop. It is safe to call from any goroutine.
// Functions posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs work on a new goroutine. Each function passed to emit runs on the
// loop, and emit blocks until it has, so a producer is never more than one
// step ahead of the loop. emit returns false without running fn once ctx is
// done or the loop is closed.
func (l *Loop) Go(ctx context.Context, work func(emit func(fn func()) bool)) {
	l.mu.Lock()
	l.jobs++
	l.mu.Unlock()

	emit := func(fn func()) bool {
		if ctx.Err() != nil {
			return false
		}
		ran := make(chan struct{})
		l.Post(func() {
			if ctx.Err() != nil {
				close(ran)
				return
			}
			fn()
			close(ran)
		})
		select {
		case <-ran:
			return ctx.Err() == nil
		case <-ctx.Done():
			return false
		case <-l.done:
			return false
		}
	}

	go func() {
		defer func() {
			l.mu.Lock()
			l.jobs--
			l.mu.Unlock()
			l.signal()
		}()
		work(emit)
	}()
}

// RunPending runs posted functions, including any posted while running.
// It returns how many ran.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.posted
		l.posted = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

// Tick advances a wall-clock loop to the current time, firing due timers,
// then runs one frame pass. On a manual loop the clock does not move.
func (l *Loop) Tick() {
	target := l.now
	if !l.manual {
		target = time.Since(l.start)
	}
	l.step(target, true)
}

// Advance moves a manual loop's clock forward by d, firing timers in due
// order, then runs one frame pass.
func (l *Loop) Advance(d time.Duration) {
	if !l.manual {
		panic("vview: Advance called on a wall-clock loop")
	}
	l.step(l.now+d, true)
}

func (l *Loop) step(target time.Duration, frames bool) {
	l.RunPending()
	for len(l.timers) > 0 && l.timers[0].due <= target {
		t := heap.Pop(&l.timers).(*Timer)
		if t.due > l.now {
			l.now = t.due
		}
		t.fn()
		l.RunPending()
	}
	if target > l.now {
		l.now = target
	}
	if frames && len(l.frames) > 0 {
		pending := l.frames
		l.frames = nil
		for _, fn := range pending {
			fn(l.now)
		}
	}
	l.RunPending()
}

// Settle runs posted work and due timers until no background job is running
// and nothing is queued, or until timeout. It reports whether the loop went
// idle. The clock of a manual loop is not moved.
func (l *Loop) Settle(timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		target := l.now
		if !l.manual {
			target = time.Since(l.start)
		}
		l.step(target, false)

		l.mu.Lock()
		idle := len(l.posted) == 0 && l.jobs == 0
		l.mu.Unlock()
		if idle && (len(l.timers) == 0 || l.timers[0].due > l.now) {
			return true
		}
		select {
		case <-l.wake:
		case <-deadline.C:
			return false
		}
	}
}

// Close stops the loop. Pending timers and frame callbacks are dropped and
// background jobs see their emit calls fail.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.posted = nil
	l.mu.Unlock()
	close(l.done)
	for len(l.timers) > 0 {
		heap.Pop(&l.timers)
	}
	l.frames = nil
}

// timerHeap orders timers by due time, then by creation order.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
