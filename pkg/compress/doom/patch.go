package doom

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"

	"github.com/jpfielding/texkit.go/pkg/logging"
	"github.com/jpfielding/texkit.go/pkg/raster"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

const patchHeaderSize = 8

func read(op string, r io.Reader, b []byte) error {
	if _, err := io.ReadFull(r, b); err != nil {
		return texerr.Read(op, err)
	}
	return nil
}

// DecodeConfig reads only the patch header.
func DecodeConfig(r io.Reader) (Config, error) {
	const op = "doom.DecodeConfig"
	var hdr [patchHeaderSize]byte
	if err := read(op, r, hdr[:]); err != nil {
		return Config{}, err
	}
	c := Config{
		Width:      int(int16(binary.LittleEndian.Uint16(hdr[0:]))),
		Height:     int(int16(binary.LittleEndian.Uint16(hdr[2:]))),
		LeftOffset: int(int16(binary.LittleEndian.Uint16(hdr[4:]))),
		TopOffset:  int(int16(binary.LittleEndian.Uint16(hdr[6:]))),
	}
	if c.Width <= 0 || c.Height <= 0 {
		return c, texerr.Errorf(texerr.IllegalFileValue, op, "dimensions %dx%d", c.Width, c.Height)
	}
	return c, nil
}

// DecodePatch decodes a column-run patch starting at r's current position.
// Post texels that would land at or below the image height are dropped.
// Uncovered texels hold TransparentIndex. On error nothing is returned and
// no partially decoded image escapes.
func DecodePatch(r io.ReadSeeker, opts *Options) (*raster.Image, error) {
	if opts == nil {
		opts = &Options{}
	}
	img, err := decodePatch(r, opts)
	if err != nil {
		return nil, opts.Reporter.Report(err)
	}
	return img, nil
}

func decodePatch(r io.ReadSeeker, opts *Options) (*raster.Image, error) {
	const op = "doom.DecodePatch"
	log := logging.OrDiscard(opts.Logger)

	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, texerr.New(texerr.ShortRead, op, err)
	}
	cfg, err := DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	w, h := cfg.Width, cfg.Height

	offsets := make([]byte, 4*w)
	if err := read(op, r, offsets); err != nil {
		return nil, err
	}

	img, err := raster.New(w, h, 1, raster.Indexed, raster.UByte, opts.Arena)
	if err != nil {
		return nil, err
	}
	for i := range img.Pix {
		img.Pix[i] = TransparentIndex
	}

	var post [2]byte
	data := make([]byte, 256)
	dropped := 0
	for x := range w {
		off := int64(binary.LittleEndian.Uint32(offsets[x*4:]))
		if _, err := r.Seek(start+off, io.SeekStart); err != nil {
			return nil, texerr.New(texerr.ShortRead, op, err)
		}
		for {
			if err := read(op, r, post[:1]); err != nil {
				return nil, err
			}
			top := int(post[0])
			if top == EndOfColumn {
				break
			}
			if err := read(op, r, post[:2]); err != nil {
				return nil, err
			}
			n := int(post[0])
			// post[1] is the leading pad byte
			if err := read(op, r, data[:n+1]); err != nil {
				return nil, err
			}
			for row, v := range data[:n] {
				if top+row >= h {
					dropped++
					continue
				}
				img.Pix[(top+row)*w+x] = v
			}
		}
	}
	if dropped > 0 {
		log.Debug("patch posts exceed height", slog.Int("dropped", dropped), slog.Int("height", h))
	}
	img.Origin = raster.TopLeft
	return finish(img, opts, TransparentIndex)
}

// EncodePatch writes an indexed image as a patch. Texels equal to
// TransparentIndex are left out of the posts. Images taller than 255 rows
// cannot be addressed by a post's top byte.
func EncodePatch(w io.Writer, img *raster.Image, leftOffset, topOffset int) error {
	const op = "doom.EncodePatch"
	if img == nil || img.Format != raster.Indexed || img.Depth != 1 {
		return texerr.Errorf(texerr.InvalidParam, op, "indexed 2D image required")
	}
	if img.Width > 0x7fff || img.Height > EndOfColumn {
		return texerr.Errorf(texerr.InvalidParam, op, "dimensions %dx%d", img.Width, img.Height)
	}

	var columns bytes.Buffer
	offsets := make([]uint32, img.Width)
	base := patchHeaderSize + 4*img.Width
	for x := range img.Width {
		offsets[x] = uint32(base + columns.Len())
		for y := 0; y < img.Height; {
			if img.Pix[y*img.Width+x] == TransparentIndex {
				y++
				continue
			}
			top := y
			var run []byte
			for y < img.Height && img.Pix[y*img.Width+x] != TransparentIndex {
				run = append(run, img.Pix[y*img.Width+x])
				y++
			}
			columns.WriteByte(byte(top))
			columns.WriteByte(byte(len(run)))
			columns.WriteByte(0)
			columns.Write(run)
			columns.WriteByte(0)
		}
		columns.WriteByte(EndOfColumn)
	}

	out := make([]byte, base, base+columns.Len())
	binary.LittleEndian.PutUint16(out[0:], uint16(img.Width))
	binary.LittleEndian.PutUint16(out[2:], uint16(img.Height))
	binary.LittleEndian.PutUint16(out[4:], uint16(int16(leftOffset)))
	binary.LittleEndian.PutUint16(out[6:], uint16(int16(topOffset)))
	for x, off := range offsets {
		binary.LittleEndian.PutUint32(out[patchHeaderSize+4*x:], off)
	}
	out = append(out, columns.Bytes()...)

	n, err := w.Write(out)
	if err != nil {
		return texerr.New(texerr.ShortWrite, op, err)
	}
	if n != len(out) {
		return texerr.New(texerr.ShortWrite, op, io.ErrShortWrite)
	}
	return nil
}

// DecodeFlat reads a raw 64x64 index lump. Flats have no transparency.
func DecodeFlat(r io.Reader, opts *Options) (*raster.Image, error) {
	const op = "doom.DecodeFlat"
	if opts == nil {
		opts = &Options{}
	}
	img, err := raster.New(FlatSize, FlatSize, 1, raster.Indexed, raster.UByte, opts.Arena)
	if err != nil {
		return nil, opts.Reporter.Report(err)
	}
	if err := read(op, r, img.Pix); err != nil {
		return nil, opts.Reporter.Report(err)
	}
	if img, err = finish(img, opts, -1); err != nil {
		return nil, opts.Reporter.Report(err)
	}
	return img, nil
}
