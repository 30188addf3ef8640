package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/jpfielding/texkit.go/pkg/compress/doom"
	"github.com/jpfielding/texkit.go/pkg/palette"
	"github.com/jpfielding/texkit.go/pkg/raster"
	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot(context.Background(), "test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "ERROR"))
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func runErr(t *testing.T, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot(context.Background(), "test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	return root.Execute()
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "test\n", run(t, "version"))
}

func TestPaletteConvertAndInfo(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, palette.MaxEntries*3)
	for i := range data {
		data[i] = byte(i)
	}
	p, err := palette.New(palette.RGB24, data)
	require.NoError(t, err)
	in := filepath.Join(dir, "in.pal")
	require.NoError(t, palette.SaveFile(p, in, false))

	out := filepath.Join(dir, "out.act")
	run(t, "palette", "convert", "--in", in, "--out", out)

	got, err := palette.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, got.Data)

	info := run(t, "palette", "info", "--in", out)
	assert.Contains(t, info, "entries: 256")
}

func TestDecodePatch(t *testing.T) {
	dir := t.TempDir()
	src, err := raster.New(3, 2, 1, raster.Indexed, raster.UByte, nil)
	require.NoError(t, err)
	copy(src.Pix, []byte{1, 2, doom.TransparentIndex, 4, 5, 6})
	var buf bytes.Buffer
	require.NoError(t, doom.EncodePatch(&buf, src, 0, 0))
	in := filepath.Join(dir, "patch.lmp")
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o644))

	out := filepath.Join(dir, "patch.png")
	run(t, "decode", "--in", in, "--out", out, "--rgba")
	img, err := imgio.Open(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	_, _, _, a := img.At(2, 0).RGBA()
	assert.Zero(t, a)

	lump := make([]byte, doom.PlaypalCount*palette.MaxEntries*3)
	copy(lump[palette.MaxEntries*3+3:], []byte{200, 100, 50})
	playpal := filepath.Join(dir, "playpal.lmp")
	require.NoError(t, os.WriteFile(playpal, lump, 0o644))
	tinted := filepath.Join(dir, "tinted.png")
	run(t, "decode", "--in", in, "--out", tinted, "--rgba", "--playpal", playpal, "--playpal-index", "1")
	img, err = imgio.Open(tinted)
	require.NoError(t, err)
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{200, 100, 50}, []uint32{r >> 8, g >> 8, b >> 8})

	bmpOut := filepath.Join(dir, "patch.bmp")
	run(t, "decode", "--in", in, "--out", bmpOut, "--bmp")
	img, err = imgio.Open(bmpOut)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
}

func TestCompressWithCache(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 40, A: uint8(255 - x*8)})
		}
	}
	in := filepath.Join(dir, "in.png")
	require.NoError(t, imgio.Save(in, src, imgio.PNGEncoder()))
	db := filepath.Join(dir, "cache.db")

	first := filepath.Join(dir, "first.dds")
	second := filepath.Join(dir, "second.dds")
	run(t, "compress", "--in", in, "--out", first, "--format", "dxt5", "--workers", "2", "--cache", db)
	run(t, "compress", "--in", in, "--out", second, "--format", "dxt5", "--cache", db)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "DDS ", string(a[:4]))
	assert.Len(t, a, 4+124+16*16)
	assert.Equal(t, a, b)

	stats := run(t, "cache", "stats", "--db", db)
	assert.Contains(t, stats, "entries: 1")
	assert.Contains(t, stats, "DXT5: 1")
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := range 4 {
		for x := range 8 {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	in := filepath.Join(dir, "in.png")
	require.NoError(t, imgio.Save(in, src, imgio.PNGEncoder()))

	for _, zstd := range []bool{false, true} {
		dds := filepath.Join(dir, "out.dds")
		args := []string{"compress", "--in", in, "--out", dds, "--format", "dxt1", "--overwrite"}
		if zstd {
			args = append(args, "--zstd")
		}
		run(t, args...)

		out := filepath.Join(dir, "preview.png")
		run(t, "preview", "--in", dds, "--out", out)
		img, err := imgio.Open(out)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
		r, g, b, a := img.At(3, 2).RGBA()
		assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff, 0xffff}, []uint32{r, g, b, a}, "zstd %v", zstd)
	}
}

func TestFailureLogsKind(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "short.lmp")
	require.NoError(t, os.WriteFile(in, []byte{4, 0, 4, 0, 0}, 0o644))
	logPath := filepath.Join(dir, "texctl.log")

	err := runErr(t, "decode", "--in", in, "--out", filepath.Join(dir, "x.png"), "--log-file", logPath)
	require.Error(t, err)
	assert.Equal(t, texerr.ShortRead, texerr.KindOf(err))

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "command failed")
	assert.Contains(t, string(logged), `kind="short read"`)
}
