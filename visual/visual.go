// Package visual holds decoded pixel buffers and draws them onto planes
// through a blitter. Decoding image files is left to the caller.
package visual

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidBuffer is returned for empty dimensions or a short pixel buffer
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// Visual is an RGBA pixel framebuffer, 4 bytes per pixel, not premultiplied
type Visual struct {
	width  int
	height int
	pix    []uint8
}

func validate(buf []byte, width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBuffer, width, height)
	}
	if need := width * height * 4; len(buf) < need {
		return fmt.Errorf("%w: %d bytes for %dx%d, need %d", ErrInvalidBuffer, len(buf), width, height, need)
	}
	return nil
}

// FromRGBA copies a packed RGBA buffer of width×height pixels
func FromRGBA(buf []byte, width, height int) (*Visual, error) {
	if err := validate(buf, width, height); err != nil {
		return nil, err
	}
	pix := make([]uint8, width*height*4)
	copy(pix, buf)
	return &Visual{width: width, height: height, pix: pix}, nil
}

// FromBGRA copies a packed BGRA buffer of width×height pixels
func FromBGRA(buf []byte, width, height int) (*Visual, error) {
	if err := validate(buf, width, height); err != nil {
		return nil, err
	}
	pix := make([]uint8, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = buf[i+2]
		pix[i+1] = buf[i+1]
		pix[i+2] = buf[i]
		pix[i+3] = buf[i+3]
	}
	return &Visual{width: width, height: height, pix: pix}, nil
}

// FromImage copies a decoded image
func FromImage(img image.Image) (*Visual, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidBuffer)
	}
	v := &Visual{width: b.Dx(), height: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy()*4)}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := ((y-b.Min.Y)*v.width + (x - b.Min.X)) * 4
			v.pix[i], v.pix[i+1], v.pix[i+2], v.pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return v, nil
}

// Size returns the dimensions in pixels
func (v *Visual) Size() (width, height int) {
	return v.width, v.height
}

// At returns the pixel at (x, y), transparent black outside the buffer
func (v *Visual) At(x, y int) (r, g, b, a uint8) {
	if x < 0 || y < 0 || x >= v.width || y >= v.height {
		return 0, 0, 0, 0
	}
	i := (y*v.width + x) * 4
	return v.pix[i], v.pix[i+1], v.pix[i+2], v.pix[i+3]
}

// Resize scales the buffer to width×height with bilinear interpolation
// Colors mix in linear RGB weighted by alpha, so transparent pixels do not darken edges.
func (v *Visual) Resize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("resize %dx%d: %w", width, height, ErrInvalidBuffer)
	}
	pix := make([]uint8, width*height*4)
	for y := 0; y < height; y++ {
		y0, y1, ty := interpolationSpan(y, height, v.height)
		for x := 0; x < width; x++ {
			x0, x1, tx := interpolationSpan(x, width, v.width)
			taps := [4]struct {
				x, y int
				w    float64
			}{
				{x0, y0, (1 - tx) * (1 - ty)},
				{x1, y0, tx * (1 - ty)},
				{x0, y1, (1 - tx) * ty},
				{x1, y1, tx * ty},
			}

			var r, g, b, alpha float64
			for _, tap := range taps {
				pr, pg, pb, pa := v.At(tap.x, tap.y)
				wa := tap.w * float64(pa) / 255
				if wa == 0 {
					continue
				}
				lr, lg, lb := colorful.Color{R: float64(pr) / 255, G: float64(pg) / 255, B: float64(pb) / 255}.LinearRgb()
				r += wa * lr
				g += wa * lg
				b += wa * lb
				alpha += wa
			}

			i := (y*width + x) * 4
			if alpha == 0 {
				continue
			}
			pix[i], pix[i+1], pix[i+2] = colorful.LinearRgb(r/alpha, g/alpha, b/alpha).Clamped().RGB255()
			pix[i+3] = uint8(math.Round(min(alpha, 1) * 255))
		}
	}
	v.width, v.height, v.pix = width, height, pix
	return nil
}

// interpolationSpan maps destination index d of dn onto the source axis of sn,
// returning the two neighbouring source indices and the weight of the second
func interpolationSpan(d, dn, sn int) (lo, hi int, t float64) {
	f := (float64(d)+0.5)*float64(sn)/float64(dn) - 0.5
	f = max(0, min(f, float64(sn-1)))
	lo = int(f)
	hi = min(lo+1, sn-1)
	return lo, hi, f - float64(lo)
}

// ResizeNearest scales the buffer to width×height with nearest-neighbor
// sampling, keeping hard pixel edges
func (v *Visual) ResizeNearest(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("resize nearest %dx%d: %w", width, height, ErrInvalidBuffer)
	}
	pix := make([]uint8, width*height*4)
	for y := 0; y < height; y++ {
		sy := (y*v.height + v.height/2) / height
		for x := 0; x < width; x++ {
			sx := (x*v.width + v.width/2) / width
			copy(pix[(y*width+x)*4:], v.pix[(sy*v.width+sx)*4:(sy*v.width+sx)*4+4])
		}
	}
	v.width, v.height, v.pix = width, height, pix
	return nil
}
