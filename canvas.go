package vview

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// decodeFrame decodes one frame's bytes. JPEG, PNG, GIF and WebP frames are
// accepted.
func decodeFrame(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Canvas is the surface a ZipPlayer draws frames onto.
type Canvas interface {
	Size() (w, h int)
	// Resize reallocates the backing store.
	Resize(w, h int)
	DrawFrame(img image.Image)
}

// ImageCanvas is a Canvas backed by an in-memory RGBA image.
type ImageCanvas struct {
	img *image.RGBA
	// Resizes counts reallocations.
	Resizes int
	// Draws counts frames drawn.
	Draws int
}

// Size returns the backing size.
func (c *ImageCanvas) Size() (int, int) {
	if c.img == nil {
		return 0, 0
	}
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize reallocates the backing image.
func (c *ImageCanvas) Resize(w, h int) {
	c.img = image.NewRGBA(image.Rect(0, 0, w, h))
	c.Resizes++
}

// DrawFrame copies img, scaled to the canvas size if it differs.
func (c *ImageCanvas) DrawFrame(img image.Image) {
	if c.img == nil {
		c.Resize(img.Bounds().Dx(), img.Bounds().Dy())
	}
	blit(c.img, img)
	c.Draws++
}

// Image returns the current contents.
func (c *ImageCanvas) Image() *image.RGBA { return c.img }

// blit draws src over the whole of dst, scaling when the sizes differ.
func blit(dst *image.RGBA, src image.Image) {
	if src.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// EbitenCanvas is a Canvas backed by an ebiten image, for drawing a player
// into a game screen.
type EbitenCanvas struct {
	img     *ebiten.Image
	scratch *image.RGBA
}

// Image returns the ebiten image to draw, or nil before the first frame.
func (c *EbitenCanvas) Image() *ebiten.Image { return c.img }

// Size returns the backing size.
func (c *EbitenCanvas) Size() (int, int) {
	if c.img == nil {
		return 0, 0
	}
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize frees the old GPU image and allocates a new one.
func (c *EbitenCanvas) Resize(w, h int) {
	if c.img != nil {
		c.img.Deallocate()
	}
	c.img = ebiten.NewImage(w, h)
	c.scratch = image.NewRGBA(image.Rect(0, 0, w, h))
}

// DrawFrame uploads img.
func (c *EbitenCanvas) DrawFrame(img image.Image) {
	if c.img == nil {
		c.Resize(img.Bounds().Dx(), img.Bounds().Dy())
	}
	blit(c.scratch, img)
	c.img.WritePixels(c.scratch.Pix)
}

// Dispose frees the GPU image.
func (c *EbitenCanvas) Dispose() {
	if c.img != nil {
		c.img.Deallocate()
		c.img = nil
	}
	c.scratch = nil
}
