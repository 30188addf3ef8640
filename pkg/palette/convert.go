package palette

import (
	"github.com/jpfielding/texkit.go/pkg/arena"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// entryFunc rewrites one entry from src into dst.
type entryFunc func(dst, src []byte)

func copy3(dst, src []byte) { dst[0], dst[1], dst[2] = src[0], src[1], src[2] }
func copy4(dst, src []byte) { dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], src[3] }
func swap3(dst, src []byte) { dst[0], dst[1], dst[2] = src[2], src[1], src[0] }
func swap4(dst, src []byte) { dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], src[3] }

func widen3(dst, src []byte)     { dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xff }
func widenSwap3(dst, src []byte) { dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 0xff }

// conversions is keyed by {source, destination}.
var conversions = buildConversions()

func buildConversions() map[[2]Layout]entryFunc {
	all := []Layout{RGB24, BGR24, RGB32, RGBA32, BGR32, BGRA32}
	t := make(map[[2]Layout]entryFunc, len(all)*len(all))
	for _, s := range all {
		for _, d := range all {
			swap := s.IsBGR() != d.IsBGR()
			var f entryFunc
			switch {
			case s.BytesPerEntry() == 3 && d.BytesPerEntry() == 3:
				f = copy3
				if swap {
					f = swap3
				}
			case s.BytesPerEntry() == 4 && d.BytesPerEntry() == 3:
				// alpha byte is dropped
				f = copy3
				if swap {
					f = swap3
				}
			case s.BytesPerEntry() == 3 && d.BytesPerEntry() == 4:
				f = widen3
				if swap {
					f = widenSwap3
				}
			default:
				f = copy4
				if swap {
					f = swap4
				}
			}
			t[[2]Layout{s, d}] = f
		}
	}
	return t
}

// Converter builds converted palettes. Buffers come from Arena when set;
// failures are recorded on Reporter when set.
type Converter struct {
	Arena    *arena.Arena
	Reporter *texerr.Reporter
}

// Convert returns a new palette in layout dst. src is never modified, so a
// failure leaves the caller's palette intact.
func (c Converter) Convert(src *Palette, dst Layout) (*Palette, error) {
	p, err := c.convert(src, dst)
	if err != nil {
		return nil, c.Reporter.Report(err)
	}
	return p, nil
}

func (c Converter) convert(src *Palette, dst Layout) (*Palette, error) {
	const op = "palette.Convert"
	if src.IsEmpty() {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "source palette is empty")
	}
	if err := src.Validate(); err != nil {
		return nil, texerr.New(texerr.InvalidParam, op, err)
	}
	f, ok := conversions[[2]Layout{src.Layout, dst}]
	if !ok {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "unsupported conversion %v -> %v", src.Layout, dst)
	}

	sb, db := src.Layout.BytesPerEntry(), dst.BytesPerEntry()
	n := src.Len()
	data, err := c.Arena.Alloc(n * db)
	if err != nil {
		return nil, texerr.New(texerr.OutOfMemory, op, err)
	}
	for i := 0; i < n; i++ {
		f(data[i*db:i*db+db], src.Data[i*sb:i*sb+sb])
	}
	return &Palette{Data: data, Layout: dst}, nil
}

// Convert is Converter{}.Convert.
func Convert(src *Palette, dst Layout) (*Palette, error) {
	return Converter{}.Convert(src, dst)
}
