package vview

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// StatusOverlay is a debug readout of FPS, TPS and caller-supplied lines,
// refreshed every half second so the text stays readable.
type StatusOverlay struct {
	// Lines returns extra text to show, such as player stats. May be nil.
	Lines func() string
	// Interval between refreshes in seconds. Zero means 0.5.
	Interval float64

	elapsed float64
	text    string
	rates   func() (fps, tps float64)
	img     *ebiten.Image
	dirty   bool
}

// NewStatusOverlay creates an overlay reading ebiten's measured rates.
func NewStatusOverlay(lines func() string) *StatusOverlay {
	return &StatusOverlay{Lines: lines}
}

// Update advances the refresh timer by dt seconds. It reports whether the
// text changed.
func (o *StatusOverlay) Update(dt float64) bool {
	interval := o.Interval
	if interval <= 0 {
		interval = 0.5
	}
	o.elapsed += dt
	if o.text != "" && o.elapsed < interval {
		return false
	}
	o.elapsed = 0

	rates := o.rates
	if rates == nil {
		rates = func() (float64, float64) { return ebiten.ActualFPS(), ebiten.ActualTPS() }
	}
	fps, tps := rates()
	text := fmt.Sprintf("FPS: %.1f\nTPS: %.1f", fps, tps)
	if o.Lines != nil {
		if extra := o.Lines(); extra != "" {
			text += "\n" + extra
		}
	}
	changed := text != o.text
	o.text = text
	o.dirty = o.dirty || changed
	return changed
}

// Text returns the current readout.
func (o *StatusOverlay) Text() string { return o.text }

// Draw prints the readout over a translucent panel in the top-left corner.
func (o *StatusOverlay) Draw(screen *ebiten.Image) {
	if o.text == "" {
		return
	}
	if o.dirty || o.img == nil {
		o.render()
	}
	screen.DrawImage(o.img, nil)
}

func (o *StatusOverlay) render() {
	o.dirty = false
	cols, rows, line := 0, 1, 0
	for _, r := range o.text {
		if r == '\n' {
			rows++
			line = 0
			continue
		}
		line++
		cols = max(cols, line)
	}
	// The debug font is 6x16.
	w, h := cols*6+8, rows*16+4
	if o.img == nil || o.img.Bounds().Dx() != w || o.img.Bounds().Dy() != h {
		if o.img != nil {
			o.img.Deallocate()
		}
		o.img = ebiten.NewImage(w, h)
	}
	o.img.Clear()
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrintAt(o.img, o.text, 4, 2)
}
