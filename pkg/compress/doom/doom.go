// Package doom reads the indexed graphics lumps of Doom-engine WAD files:
// column-run "patch" pictures and raw 64x64 "flats".
//
// Patch layout, little endian:
//
//	0  i16 width
//	2  i16 height
//	4  i16 left offset
//	6  i16 top offset
//	8  u32[width] column offsets, relative to the start of the patch
//
// Each column is a list of posts: a top row byte (255 ends the column), a
// length byte, one pad byte, length index bytes and a trailing pad byte.
package doom

import (
	"log/slog"

	"github.com/jpfielding/texkit.go/pkg/arena"
	"github.com/jpfielding/texkit.go/pkg/palette"
	"github.com/jpfielding/texkit.go/pkg/raster"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

const (
	// TransparentIndex fills texels no post covers.
	TransparentIndex = 247
	// EndOfColumn terminates a column's post list.
	EndOfColumn = 0xff

	FlatSize = 64
)

// Options controls decoding. The zero value decodes an indexed image with
// the built-in palette.
type Options struct {
	// Palette replaces the built-in palette, typically a PLAYPAL lump.
	Palette *palette.Palette
	// ExpandRGBA converts the result to RGBA; TransparentIndex gets alpha 0
	// for patches.
	ExpandRGBA bool
	Arena      *arena.Arena
	Logger     *slog.Logger
	// Reporter, when set, records the kind of every failed decode.
	Reporter *texerr.Reporter
}

// Config is the header information of a patch.
type Config struct {
	Width, Height int
	LeftOffset    int
	TopOffset     int
}

var defaultPalette = func() []byte {
	// 3-3-2 color cube, enough to tell indices apart when no PLAYPAL is given
	b := make([]byte, palette.MaxEntries*3)
	for i := range palette.MaxEntries {
		b[i*3] = byte((i >> 5) * 255 / 7)
		b[i*3+1] = byte(((i >> 2) & 7) * 255 / 7)
		b[i*3+2] = byte((i & 3) * 255 / 3)
	}
	return b
}()

// DefaultPalette returns a copy of the built-in 256 entry RGB24 palette.
func DefaultPalette() *palette.Palette {
	return &palette.Palette{Data: append([]byte(nil), defaultPalette...), Layout: palette.RGB24}
}

func (o *Options) palette() *palette.Palette {
	if o != nil && o.Palette != nil {
		return o.Palette.Clone()
	}
	return DefaultPalette()
}

// finish attaches the palette and optionally expands to RGBA. transparent is
// -1 for images without a transparency sentinel.
func finish(img *raster.Image, o *Options, transparent int) (*raster.Image, error) {
	if err := img.SetPalette(o.palette()); err != nil {
		return nil, err
	}
	if o != nil && o.ExpandRGBA {
		if err := img.ExpandPalette(transparent, o.Arena); err != nil {
			return nil, err
		}
	}
	return img, nil
}
