package palette

import (
	"errors"
	"image/color"
	"testing"

	"github.com/jpfielding/texkit.go/pkg/arena"
	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allLayouts = []Layout{RGB24, BGR24, RGB32, RGBA32, BGR32, BGRA32}

func TestConvert_Swap24(t *testing.T) {
	p := &Palette{Data: []byte{1, 2, 3, 4, 5, 6}, Layout: RGB24}
	got, err := Convert(p, BGR24)
	require.NoError(t, err)
	assert.Equal(t, BGR24, got.Layout)
	assert.Equal(t, []byte{3, 2, 1, 6, 5, 4}, got.Data)
}

func TestConvert_Widen(t *testing.T) {
	p := &Palette{Data: []byte{1, 2, 3}, Layout: RGB24}

	got, err := Convert(p, RGBA32)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 255}, got.Data)

	got, err = Convert(p, BGRA32)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1, 255}, got.Data)
}

func TestConvert_Narrow(t *testing.T) {
	p := &Palette{Data: []byte{1, 2, 3, 9}, Layout: BGRA32}

	got, err := Convert(p, RGB24)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1}, got.Data)

	got, err = Convert(p, BGR24)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
}

func TestConvert_32to32(t *testing.T) {
	p := &Palette{Data: []byte{1, 2, 3, 9}, Layout: RGBA32}

	got, err := Convert(p, BGRA32)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1, 9}, got.Data)

	got, err = Convert(p, RGB32)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 9}, got.Data)
}

func TestConvert_RoundTrip(t *testing.T) {
	src24 := &Palette{Data: makeSequence(10, 3*8), Layout: RGB24}
	src32 := &Palette{Data: makeSequence(10, 4*8), Layout: RGBA32}

	for _, from := range allLayouts {
		for _, to := range allLayouts {
			// build a source in `from` layout without losing information
			base := src24
			if from.BytesPerEntry() == 4 {
				base = src32
			}
			p, err := Convert(base, from)
			require.NoError(t, err)

			mid, err := Convert(p, to)
			require.NoError(t, err)
			back, err := Convert(mid, from)
			require.NoError(t, err)

			switch {
			case from.BytesPerEntry() == to.BytesPerEntry(), from.BytesPerEntry() == 3:
				assert.Equal(t, p.Data, back.Data, "%v -> %v -> %v", from, to, from)
			default:
				// 32 -> 24 -> 32 normalizes the fourth byte to 255
				want := p.Clone()
				for i := 3; i < len(want.Data); i += 4 {
					want.Data[i] = 255
				}
				assert.Equal(t, want.Data, back.Data, "%v -> %v -> %v", from, to, from)
			}
		}
	}
}

func TestConvert_Invalid(t *testing.T) {
	_, err := Convert(&Palette{}, RGB24)
	assert.True(t, errors.Is(err, texerr.InvalidParam))

	_, err = Convert(nil, RGB24)
	assert.True(t, errors.Is(err, texerr.InvalidParam))

	_, err = Convert(&Palette{Data: []byte{1, 2, 3}, Layout: RGB24}, None)
	assert.True(t, errors.Is(err, texerr.InvalidParam))

	_, err = Convert(&Palette{Data: []byte{1, 2}, Layout: RGB24}, BGR24)
	assert.True(t, errors.Is(err, texerr.InvalidParam))
}

func TestConvert_OutOfMemory(t *testing.T) {
	p := &Palette{Data: make([]byte, 256*3), Layout: RGB24}
	orig := p.Clone()

	rep := &texerr.Reporter{}
	c := Converter{Arena: arena.New(100), Reporter: rep}
	_, err := c.Convert(p, RGBA32)
	require.Error(t, err)
	assert.True(t, errors.Is(err, texerr.OutOfMemory))
	assert.True(t, orig.Equal(p))
	assert.Equal(t, texerr.OutOfMemory, rep.Last())

	_, err = c.Convert(&Palette{}, RGBA32)
	assert.True(t, errors.Is(err, texerr.InvalidParam))
	assert.Equal(t, texerr.InvalidParam, rep.Last())
	assert.Equal(t, 2, rep.Count())
}

func TestPalette_Accessors(t *testing.T) {
	p, err := New(BGRA32, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, color.NRGBA{R: 3, G: 2, B: 1, A: 4}, p.Color(0))
	assert.Len(t, p.ColorPalette(), 2)

	back := FromColorPalette(p.ColorPalette())
	assert.Equal(t, RGBA32, back.Layout)
	assert.Equal(t, []byte{3, 2, 1, 4, 7, 6, 5, 8}, back.Data)

	_, err = New(RGB24, []byte{1, 2})
	assert.Error(t, err)
	_, err = New(None, []byte{1})
	assert.Error(t, err)

	l, err := ParseLayout("bgra32")
	require.NoError(t, err)
	assert.Equal(t, BGRA32, l)
	_, err = ParseLayout("rgb16")
	assert.Error(t, err)
}
