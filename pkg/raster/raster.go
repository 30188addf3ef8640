// Package raster holds the canonical decoded bitmap shared by the format
// codecs and the block compressor.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/jpfielding/texkit.go/pkg/arena"
	"github.com/jpfielding/texkit.go/pkg/palette"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// Format is the channel layout of a pixel.
type Format int

const (
	Indexed Format = iota
	RGB
	RGBA
	BGR
	BGRA
	Luminance
)

func (f Format) String() string {
	switch f {
	case Indexed:
		return "INDEXED"
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	case BGR:
		return "BGR"
	case BGRA:
		return "BGRA"
	case Luminance:
		return "LUMINANCE"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Channels is the number of components per pixel.
func (f Format) Channels() int {
	switch f {
	case Indexed, Luminance:
		return 1
	case RGB, BGR:
		return 3
	case RGBA, BGRA:
		return 4
	}
	return 0
}

// Type is the storage type of one component.
type Type int

const (
	UByte Type = iota
	Byte
	Short
	UShort
	Float
)

// Size is the byte width of one component.
func (t Type) Size() int {
	switch t {
	case UByte, Byte:
		return 1
	case Short, UShort:
		return 2
	case Float:
		return 4
	}
	return 0
}

// Origin tells which corner row 0 starts at.
type Origin int

const (
	TopLeft Origin = iota
	BottomLeft
)

// BytesPerPixel for a format/type pair.
func BytesPerPixel(f Format, t Type) int {
	return f.Channels() * t.Size()
}

// Image is a decoded bitmap. Palette is set if and only if Format is Indexed.
type Image struct {
	Width, Height, Depth int
	Format               Format
	Type                 Type
	Pix                  []byte
	Palette              *palette.Palette
	Origin               Origin
}

// New allocates a zeroed image. Pixel memory comes from a when it is set, so
// an arena budget surfaces as texerr.OutOfMemory.
func New(width, height, depth int, f Format, t Type, a *arena.Arena) (*Image, error) {
	const op = "raster.New"
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "dimensions %dx%dx%d", width, height, depth)
	}
	bpp := BytesPerPixel(f, t)
	if bpp == 0 || (f == Indexed && t != UByte) {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "format %v with type %d", f, t)
	}
	pix, err := a.Alloc(width * height * depth * bpp)
	if err != nil {
		return nil, texerr.New(texerr.OutOfMemory, op, err)
	}
	return &Image{
		Width:  width,
		Height: height,
		Depth:  depth,
		Format: f,
		Type:   t,
		Pix:    pix,
	}, nil
}

// BytesPerPixel of m.
func (m *Image) BytesPerPixel() int {
	return BytesPerPixel(m.Format, m.Type)
}

// Stride is the byte length of one row.
func (m *Image) Stride() int {
	return m.Width * m.BytesPerPixel()
}

// Validate checks the buffer size and palette invariants.
func (m *Image) Validate() error {
	const op = "raster.Validate"
	if m == nil {
		return texerr.Errorf(texerr.IllegalOperation, op, "no image")
	}
	if m.Width <= 0 || m.Height <= 0 || m.Depth <= 0 {
		return texerr.Errorf(texerr.InvalidParam, op, "dimensions %dx%dx%d", m.Width, m.Height, m.Depth)
	}
	if want := m.Width * m.Height * m.Depth * m.BytesPerPixel(); len(m.Pix) != want {
		return texerr.Errorf(texerr.InvalidParam, op, "%d pixel bytes, want %d", len(m.Pix), want)
	}
	if m.Format != Indexed {
		if m.Palette != nil {
			return texerr.Errorf(texerr.IllegalOperation, op, "%v image carries a palette", m.Format)
		}
		return nil
	}
	if m.Palette.IsEmpty() {
		return texerr.Errorf(texerr.IllegalOperation, op, "indexed image without palette")
	}
	return checkIndices(op, m.Pix, m.Palette)
}

func checkIndices(op string, pix []byte, p *palette.Palette) error {
	n := p.Len()
	if n >= 256 {
		return nil
	}
	for i, v := range pix {
		if int(v) >= n {
			return texerr.Errorf(texerr.IllegalFileValue, op, "index %d at pixel %d, palette has %d entries", v, i, n)
		}
	}
	return nil
}

// SetPalette replaces the palette of an indexed image. The old palette stays
// attached if p is invalid or too small for the pixel data.
func (m *Image) SetPalette(p *palette.Palette) error {
	const op = "raster.SetPalette"
	if m.Format != Indexed {
		return texerr.Errorf(texerr.IllegalOperation, op, "%v image takes no palette", m.Format)
	}
	if p.IsEmpty() {
		return texerr.Errorf(texerr.InvalidParam, op, "empty palette")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := checkIndices(op, m.Pix, p); err != nil {
		return err
	}
	m.Palette = p
	return nil
}

// ExpandPalette converts an indexed image to RGBA through its palette.
// Pixels equal to transparent get alpha 0 and every other pixel alpha 255
// (or the palette alpha, for layouts that carry one). Pass -1 to keep
// everything opaque. The image is only changed once the new buffer is
// complete.
func (m *Image) ExpandPalette(transparent int, a *arena.Arena) error {
	const op = "raster.ExpandPalette"
	if m.Format != Indexed {
		return texerr.Errorf(texerr.IllegalOperation, op, "%v image is not indexed", m.Format)
	}
	if m.Palette.IsEmpty() {
		return texerr.Errorf(texerr.IllegalOperation, op, "indexed image without palette")
	}
	cp := m.Palette.ColorPalette()
	pix, err := a.Alloc(len(m.Pix) * 4)
	if err != nil {
		return texerr.New(texerr.OutOfMemory, op, err)
	}
	for i, idx := range m.Pix {
		if int(idx) >= len(cp) {
			return texerr.Errorf(texerr.IllegalFileValue, op, "index %d at pixel %d", idx, i)
		}
		c := cp[idx].(color.NRGBA)
		if int(idx) == transparent {
			c.A = 0
		}
		pix[i*4+0] = c.R
		pix[i*4+1] = c.G
		pix[i*4+2] = c.B
		pix[i*4+3] = c.A
	}
	m.Pix = pix
	m.Format = RGBA
	m.Palette = nil
	return nil
}

// FlipVertical reverses row order in every slice and toggles Origin.
func (m *Image) FlipVertical() {
	stride := m.Stride()
	tmp := make([]byte, stride)
	plane := stride * m.Height
	for z := 0; z < m.Depth; z++ {
		base := z * plane
		for y := 0; y < m.Height/2; y++ {
			top := m.Pix[base+y*stride : base+(y+1)*stride]
			bot := m.Pix[base+(m.Height-1-y)*stride : base+(m.Height-y)*stride]
			copy(tmp, top)
			copy(top, bot)
			copy(bot, tmp)
		}
	}
	if m.Origin == TopLeft {
		m.Origin = BottomLeft
	} else {
		m.Origin = TopLeft
	}
}

// ToImage returns the first slice of m as a standard library image with a
// top-left origin. Indexed images become *image.Paletted, luminance
// *image.Gray and everything else *image.NRGBA. Only UByte data is supported.
func (m *Image) ToImage() (image.Image, error) {
	const op = "raster.ToImage"
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Type != UByte {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "component type %d", m.Type)
	}
	src := m
	if m.Origin == BottomLeft {
		src = m.Clone()
		src.FlipVertical()
	}
	r := image.Rect(0, 0, m.Width, m.Height)
	n := m.Width * m.Height

	switch m.Format {
	case Indexed:
		out := image.NewPaletted(r, m.Palette.ColorPalette())
		copy(out.Pix, src.Pix[:n])
		return out, nil
	case Luminance:
		out := image.NewGray(r)
		copy(out.Pix, src.Pix[:n])
		return out, nil
	}

	out := image.NewNRGBA(r)
	bpp := m.BytesPerPixel()
	for i := 0; i < n; i++ {
		s := src.Pix[i*bpp : i*bpp+bpp]
		d := out.Pix[i*4 : i*4+4]
		switch m.Format {
		case RGB:
			d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xff
		case BGR:
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], 0xff
		case RGBA:
			d[0], d[1], d[2], d[3] = s[0], s[1], s[2], s[3]
		case BGRA:
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
		}
	}
	return out, nil
}

// FromImage copies any image into a top-left RGBA store. Paletted images keep
// their indices and palette.
func FromImage(img image.Image) (*Image, error) {
	const op = "raster.FromImage"
	b := img.Bounds()
	if b.Empty() {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "empty image")
	}
	w, h := b.Dx(), b.Dy()

	if pm, ok := img.(*image.Paletted); ok && len(pm.Palette) > 0 && len(pm.Palette) <= palette.MaxEntries {
		m := &Image{Width: w, Height: h, Depth: 1, Format: Indexed, Type: UByte, Pix: make([]byte, w*h)}
		for y := 0; y < h; y++ {
			copy(m.Pix[y*w:(y+1)*w], pm.Pix[pm.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		if err := m.SetPalette(palette.FromColorPalette(pm.Palette)); err != nil {
			return nil, err
		}
		return m, nil
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != w*4 || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	pix := make([]byte, w*h*4)
	copy(pix, nrgba.Pix)
	return &Image{Width: w, Height: h, Depth: 1, Format: RGBA, Type: UByte, Pix: pix}, nil
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	c := *m
	c.Pix = make([]byte, len(m.Pix))
	copy(c.Pix, m.Pix)
	c.Palette = m.Palette.Clone()
	return &c
}
