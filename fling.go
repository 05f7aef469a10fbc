package vview

import "time"

const defaultFlingSamplePeriod = 100 * time.Millisecond

type flingSample struct {
	delta Vec2
	at    time.Duration
}

// FlingVelocity estimates the current speed of a drag from the movement
// samples of the last sample period.
type FlingVelocity struct {
	now     func() time.Duration
	period  time.Duration
	samples []flingSample
}

// NewFlingVelocity creates an estimator reading time from now. A zero period
// means 100ms.
func NewFlingVelocity(now func() time.Duration, period time.Duration) *FlingVelocity {
	if period <= 0 {
		period = defaultFlingSamplePeriod
	}
	return &FlingVelocity{now: now, period: period}
}

// AddSample records one movement delta.
func (f *FlingVelocity) AddSample(delta Vec2) {
	f.samples = append(f.samples, flingSample{delta: delta, at: f.now()})
	f.purge()
}

// Reset discards every sample.
func (f *FlingVelocity) Reset() {
	f.samples = f.samples[:0]
}

func (f *FlingVelocity) purge() {
	cutoff := f.now() - f.period
	i := 0
	for i < len(f.samples) && f.samples[i].at < cutoff {
		i++
	}
	if i > 0 {
		f.samples = append(f.samples[:0], f.samples[i:]...)
	}
}

// Distance returns the total movement within the sample period.
func (f *FlingVelocity) Distance() Vec2 {
	f.purge()
	var d Vec2
	for _, s := range f.samples {
		d.X += s.delta.X
		d.Y += s.delta.Y
	}
	return d
}

// Velocity returns the recent movement in pixels per second.
func (f *FlingVelocity) Velocity() Vec2 {
	d := f.Distance()
	secs := f.period.Seconds()
	return Vec2{d.X / secs, d.Y / secs}
}
