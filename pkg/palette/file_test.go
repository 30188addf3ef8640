package palette

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRegistry(t *testing.T) {
	assert.Equal(t, CodecPal, CodecByExtension(".PAL"))
	assert.Equal(t, CodecCol, CodecByExtension("col"))
	assert.Nil(t, CodecByExtension(".bmp"))
	assert.Equal(t, CodecHalo, CodecByName("HALO"))
	assert.Equal(t, []string{"act", "col", "halo", "jasc", "pal", "plt"}, Names())
}

func TestPalCodec_Sniffs(t *testing.T) {
	p := &Palette{Data: []byte{1, 2, 3}, Layout: RGB24}

	var jasc, halo bytes.Buffer
	require.NoError(t, CodecJasc.Encode(&jasc, p))
	require.NoError(t, CodecHalo.Encode(&halo, p))

	got, err := CodecPal.Decode(bytes.NewReader(jasc.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 256, got.Len())

	got, err = CodecPal.Decode(bytes.NewReader(halo.Bytes()))
	require.NoError(t, err)
	assert.True(t, p.Equal(got))
}

func TestFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := &Palette{Data: makeSequence(0, 30), Layout: RGB24}

	for _, name := range []string{"a.pal", "b.COL", "c.act", "d.plt"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveFile(p, path, false))

			got, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, p.Data, got.Data[:p.Size()])
		})
	}
}

func TestFile_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pal")
	p := &Palette{Data: []byte{1, 2, 3}, Layout: RGB24}
	require.NoError(t, SaveFile(p, path, false))

	err := SaveFile(p, path, false)
	assert.True(t, errors.Is(err, texerr.FileAlreadyExists))

	assert.NoError(t, SaveFile(p, path, true))
}

func TestFile_FailedSaveKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.pal")
	require.NoError(t, SaveFile(&Palette{Data: makeSequence(0, 30), Layout: RGB24}, path, false))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = SaveFile(&Palette{}, path, true)
	assert.True(t, errors.Is(err, texerr.IllegalOperation))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	fresh := filepath.Join(dir, "fresh.pal")
	err = SaveFile(&Palette{}, fresh, false)
	assert.True(t, errors.Is(err, texerr.IllegalOperation))
	_, err = os.Stat(fresh)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.pal"))
	assert.True(t, errors.Is(err, texerr.CouldNotOpenFile))

	_, err = LoadFile(filepath.Join(dir, "x.bmp"))
	assert.True(t, errors.Is(err, texerr.InvalidExtension))

	path := filepath.Join(dir, "x.act")
	require.NoError(t, os.WriteFile(path, make([]byte, 768), 0o644))
	_, err = LoadFileAs(path, CodecCol)
	assert.True(t, errors.Is(err, texerr.InvalidExtension))
}

func TestQuantize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 4 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	p, err := Quantize(img, 4)
	require.NoError(t, err)
	assert.Equal(t, RGB24, p.Layout)
	assert.LessOrEqual(t, p.Len(), 4)
	assert.GreaterOrEqual(t, p.Len(), 1)

	_, err = Quantize(img, 0)
	assert.True(t, errors.Is(err, texerr.InvalidParam))
	_, err = Quantize(image.NewRGBA(image.Rect(0, 0, 0, 0)), 4)
	assert.True(t, errors.Is(err, texerr.InvalidParam))
}
