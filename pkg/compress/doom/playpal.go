package doom

import (
	"io"

	"github.com/jpfielding/texkit.go/pkg/palette"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

const (
	// PlaypalCount is the number of palettes in a PLAYPAL lump: the normal
	// one, then the damage, pickup and radiation suit tints.
	PlaypalCount = 14

	playpalSize = palette.MaxEntries * 3
)

// DecodePlaypal reads palette n of a PLAYPAL lump that starts at r's current
// position. Palette 0 is the one patches and flats are drawn with.
func DecodePlaypal(r io.Reader, n int) (*palette.Palette, error) {
	const op = "doom.DecodePlaypal"
	if n < 0 || n >= PlaypalCount {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "palette %d of %d", n, PlaypalCount)
	}
	if _, err := io.CopyN(io.Discard, r, int64(n*playpalSize)); err != nil {
		return nil, texerr.Read(op, err)
	}
	data := make([]byte, playpalSize)
	if err := read(op, r, data); err != nil {
		return nil, err
	}
	return &palette.Palette{Data: data, Layout: palette.RGB24}, nil
}
