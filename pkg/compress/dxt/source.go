package dxt

import (
	"image"
	"image/draw"
	"math"

	"github.com/jpfielding/texkit.go/pkg/raster"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// PixelSource supplies texels to the compressor. Texel is only called for
// in-bounds coordinates and returns R, G, B, A in [0, 1]. Implementations
// must be safe for concurrent reads.
type PixelSource interface {
	Size() (width, height int)
	Texel(x, y int) [4]float32
}

// RGBASource reads tightly packed 8-bit RGBA rows.
type RGBASource struct {
	Width, Height int
	Pix           []byte
	flipY         bool
}

// NewRGBASource wraps pix, which must hold width*height*4 bytes.
func NewRGBASource(pix []byte, width, height int) (*RGBASource, error) {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return nil, texerr.Errorf(texerr.InvalidParam, "dxt.NewRGBASource", "%d bytes for %dx%d", len(pix), width, height)
	}
	return &RGBASource{Width: width, Height: height, Pix: pix}, nil
}

func (s *RGBASource) Size() (int, int) { return s.Width, s.Height }

func (s *RGBASource) Texel(x, y int) [4]float32 {
	if s.flipY {
		y = s.Height - 1 - y
	}
	p := s.Pix[(y*s.Width+x)*4:]
	return [4]float32{
		float32(p[0]) / 255,
		float32(p[1]) / 255,
		float32(p[2]) / 255,
		float32(p[3]) / 255,
	}
}

// FloatSource reads four separate channel planes, for HDR-style input.
// Values are clamped to [0, 1]; NaN reads as 0.
type FloatSource struct {
	Width, Height int
	R, G, B, A    []float32
}

// NewFloatSource checks that every plane covers width*height texels.
func NewFloatSource(width, height int, r, g, b, a []float32) (*FloatSource, error) {
	n := width * height
	if width <= 0 || height <= 0 || len(r) < n || len(g) < n || len(b) < n || len(a) < n {
		return nil, texerr.Errorf(texerr.InvalidParam, "dxt.NewFloatSource", "planes too small for %dx%d", width, height)
	}
	return &FloatSource{Width: width, Height: height, R: r, G: g, B: b, A: a}, nil
}

func (s *FloatSource) Size() (int, int) { return s.Width, s.Height }

func (s *FloatSource) Texel(x, y int) [4]float32 {
	i := y*s.Width + x
	return [4]float32{clamp01(s.R[i]), clamp01(s.G[i]), clamp01(s.B[i]), clamp01(s.A[i])}
}

func clamp01(v float32) float32 {
	switch {
	case math.IsNaN(float64(v)), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// SourceFromImage adapts a decoded raster image. Indexed images are read
// through their palette; bottom-left images are read upside down so the
// blocks always come out top-left first. Only 8-bit components and depth 1
// are supported.
func SourceFromImage(m *raster.Image) (PixelSource, error) {
	const op = "dxt.SourceFromImage"
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Type != raster.UByte {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "component type %d", m.Type)
	}
	if m.Depth != 1 {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "depth %d", m.Depth)
	}

	n := m.Width * m.Height
	pix := m.Pix
	if m.Format != raster.RGBA {
		pix = make([]byte, n*4)
		bpp := m.BytesPerPixel()
		for i := 0; i < n; i++ {
			s := m.Pix[i*bpp : i*bpp+bpp]
			d := pix[i*4 : i*4+4]
			switch m.Format {
			case raster.Indexed:
				c := m.Palette.Color(int(s[0]))
				d[0], d[1], d[2], d[3] = c.R, c.G, c.B, c.A
			case raster.Luminance:
				d[0], d[1], d[2], d[3] = s[0], s[0], s[0], 0xff
			case raster.RGB:
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xff
			case raster.BGR:
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], 0xff
			case raster.BGRA:
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
			}
		}
	}
	return &RGBASource{
		Width:  m.Width,
		Height: m.Height,
		Pix:    pix,
		flipY:  m.Origin == raster.BottomLeft,
	}, nil
}

// SourceFromStdImage converts any image.Image to a non-premultiplied RGBA
// source.
func SourceFromStdImage(img image.Image) (PixelSource, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, texerr.Errorf(texerr.InvalidParam, "dxt.SourceFromStdImage", "empty image")
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return NewRGBASource(nrgba.Pix, b.Dx(), b.Dy())
}
