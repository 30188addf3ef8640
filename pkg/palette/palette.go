// Package palette holds the canonical in-memory color table and the readers
// and writers for the on-disk palette formats texkit understands:
//
//   - Jasc/Paint Shop Pro text palettes (.pal)
//   - Halo binary palettes (.pal)
//   - Animator Pro .col palettes
//   - Photoshop .act color tables
//   - length-prefixed .plt palettes
//
// Every reader returns an RGB24 palette. Use Convert to move between entry
// layouts.
package palette

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// MaxEntries is the largest palette the 8-bit formats can index.
const MaxEntries = 256

// Layout describes how one palette entry is packed.
type Layout int

const (
	None Layout = iota
	RGB24
	BGR24
	RGB32 // RGB plus an unused fourth byte
	RGBA32
	BGR32 // BGR plus an unused fourth byte
	BGRA32
)

var layoutNames = map[Layout]string{
	None:   "NONE",
	RGB24:  "RGB24",
	BGR24:  "BGR24",
	RGB32:  "RGB32",
	RGBA32: "RGBA32",
	BGR32:  "BGR32",
	BGRA32: "BGRA32",
}

func (l Layout) String() string {
	if s, ok := layoutNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout maps a name such as "rgb24" to a Layout.
func ParseLayout(s string) (Layout, error) {
	for l, name := range layoutNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return None, texerr.Errorf(texerr.InvalidParam, "palette.ParseLayout", "unknown layout %q", s)
}

// BytesPerEntry is 3 for the 24-bit layouts, 4 for the 32-bit ones and 0 for None.
func (l Layout) BytesPerEntry() int {
	switch l {
	case RGB24, BGR24:
		return 3
	case RGB32, RGBA32, BGR32, BGRA32:
		return 4
	}
	return 0
}

// IsBGR reports whether blue is stored first.
func (l Layout) IsBGR() bool {
	return l == BGR24 || l == BGR32 || l == BGRA32
}

// HasAlpha reports whether the fourth byte carries alpha.
func (l Layout) HasAlpha() bool {
	return l == RGBA32 || l == BGRA32
}

// Palette is a tightly packed color table.
type Palette struct {
	Data   []byte
	Layout Layout
}

// New wraps data as a palette of the given layout after checking that it
// holds a whole number of entries.
func New(layout Layout, data []byte) (*Palette, error) {
	p := &Palette{Data: data, Layout: layout}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the size/layout invariant.
func (p *Palette) Validate() error {
	if p == nil {
		return texerr.Errorf(texerr.InvalidParam, "palette.Validate", "nil palette")
	}
	if p.Layout == None {
		if len(p.Data) != 0 {
			return texerr.Errorf(texerr.InvalidParam, "palette.Validate", "untyped palette carries %d bytes", len(p.Data))
		}
		return nil
	}
	bpe := p.Layout.BytesPerEntry()
	if bpe == 0 {
		return texerr.Errorf(texerr.InvalidParam, "palette.Validate", "unknown layout %v", p.Layout)
	}
	if len(p.Data)%bpe != 0 {
		return texerr.Errorf(texerr.InvalidParam, "palette.Validate", "%d bytes is not a multiple of %d", len(p.Data), bpe)
	}
	return nil
}

// Size is the byte length of the table.
func (p *Palette) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}

// Len is the number of entries.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	bpe := p.Layout.BytesPerEntry()
	if bpe == 0 {
		return 0
	}
	return len(p.Data) / bpe
}

// IsEmpty reports whether the palette has no entries or no layout.
func (p *Palette) IsEmpty() bool {
	return p == nil || p.Layout == None || len(p.Data) == 0
}

// Clone returns a deep copy.
func (p *Palette) Clone() *Palette {
	if p == nil {
		return nil
	}
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	return &Palette{Data: data, Layout: p.Layout}
}

// Equal compares layout and bytes.
func (p *Palette) Equal(o *Palette) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Layout == o.Layout && string(p.Data) == string(o.Data)
}

// Color returns entry i. Layouts without alpha report 0xff.
func (p *Palette) Color(i int) color.NRGBA {
	bpe := p.Layout.BytesPerEntry()
	e := p.Data[i*bpe : i*bpe+bpe]
	c := color.NRGBA{R: e[0], G: e[1], B: e[2], A: 0xff}
	if p.Layout.IsBGR() {
		c.R, c.B = c.B, c.R
	}
	if p.Layout.HasAlpha() {
		c.A = e[3]
	}
	return c
}

// ColorPalette converts the table to a color.Palette.
func (p *Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, p.Len())
	for i := range cp {
		cp[i] = p.Color(i)
	}
	return cp
}

// FromColorPalette builds an RGBA32 palette from cp.
func FromColorPalette(cp color.Palette) *Palette {
	data := make([]byte, 0, len(cp)*4)
	for _, c := range cp {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		data = append(data, n.R, n.G, n.B, n.A)
	}
	return &Palette{Data: data, Layout: RGBA32}
}

func (p *Palette) String() string {
	if p == nil {
		return "Palette(nil)"
	}
	return fmt.Sprintf("Palette{%v, %d entries}", p.Layout, p.Len())
}
