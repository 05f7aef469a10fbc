package vview

import (
	"math"

	"github.com/tanema/gween/ease"
)

// CubicBezier is a CSS-style timing curve through (0,0), (X1,Y1), (X2,Y2)
// and (1,1). The zero value is linear.
type CubicBezier struct {
	X1, Y1, X2, Y2 float64
}

// EaseOut is the standard ease-out curve.
var EaseOut = CubicBezier{0, 0, 0.58, 1}

// IsLinear reports whether the curve is a straight line.
func (c CubicBezier) IsLinear() bool {
	return c == CubicBezier{} || (c.X1 == c.Y1 && c.X2 == c.Y2)
}

func bezierCoord(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierSlope(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}

// At returns the eased progress for linear progress x in [0, 1].
func (c CubicBezier) At(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	if c.IsLinear() {
		return x
	}

	// Newton's method, falling back to bisection where the slope is flat.
	t := x
	for i := 0; i < 8; i++ {
		err := bezierCoord(t, c.X1, c.X2) - x
		if math.Abs(err) < 1e-7 {
			return bezierCoord(t, c.Y1, c.Y2)
		}
		d := bezierSlope(t, c.X1, c.X2)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= err / d
	}
	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 50; i++ {
		v := bezierCoord(t, c.X1, c.X2)
		if math.Abs(v-x) < 1e-7 {
			break
		}
		if v < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return bezierCoord(t, c.Y1, c.Y2)
}

// TweenFunc adapts the curve to gween.
func (c CubicBezier) TweenFunc() ease.TweenFunc {
	if c.IsLinear() {
		return ease.Linear
	}
	return func(t, b, delta, d float32) float32 {
		if d <= 0 {
			return b + delta
		}
		return b + delta*float32(c.At(float64(t/d)))
	}
}

// scaleClamp maps x from [l1, h1] to [l2, h2], clamped to the output range.
func scaleClamp(x, l1, h1, l2, h2 float64) float64 {
	if h1 == l1 {
		return l2
	}
	f := (x - l1) / (h1 - l1)
	f = math.Max(0, math.Min(1, f))
	return l2 + f*(h2-l2)
}
