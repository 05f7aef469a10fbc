package vview

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hajimehoshi/ebiten/v2"
)

// Screenshots queues labeled captures of the rendered screen. Queue from
// Update or Draw; Flush at the end of Draw writes one PNG per label.
type Screenshots struct {
	// Dir receives the files. Empty means the working directory.
	Dir   string
	queue []string
}

// Queue requests a capture of the next rendered frame.
func (s *Screenshots) Queue(label string) {
	s.queue = append(s.queue, label)
}

// Pending returns the number of queued captures.
func (s *Screenshots) Pending() int { return len(s.queue) }

// Flush captures screen for every queued label. It returns the paths
// written. Errors are logged and the label dropped.
func (s *Screenshots) Flush(screen *ebiten.Image) []string {
	if len(s.queue) == 0 {
		return nil
	}
	b := screen.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	screen.ReadPixels(pixels)
	img := &image.NRGBA{Pix: unpremultiply(pixels), Stride: 4 * b.Dx(), Rect: image.Rect(0, 0, b.Dx(), b.Dy())}

	now := time.Now()
	var paths []string
	for _, label := range s.queue {
		path, err := SaveSnapshot(s.Dir, label, img, now)
		if err != nil {
			logf("screenshot: %v", err)
			continue
		}
		paths = append(paths, path)
	}
	s.queue = s.queue[:0]
	return paths
}

// SaveSnapshot writes img as a PNG named after label and the time, and
// returns its path.
func SaveSnapshot(dir, label string, img image.Image, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", now.Format("20060102_150405"), sanitizeLabel(label)))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	debugf("snapshot: wrote %s", path)
	return path, nil
}

// unpremultiply converts premultiplied RGBA pixels to straight alpha in
// place.
func unpremultiply(pix []byte) []byte {
	for i := 0; i+3 < len(pix); i += 4 {
		a := int(pix[i+3])
		if a == 0 || a == 255 {
			continue
		}
		for c := 0; c < 3; c++ {
			pix[i+c] = uint8(min(int(pix[i+c])*255/a, 255))
		}
	}
	return pix
}

// sanitizeLabel keeps a label usable as part of a file name.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
