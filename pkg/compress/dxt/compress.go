package dxt

import (
	"image"
	"io"
	"log/slog"

	"github.com/jpfielding/texkit.go/pkg/dispatch"
	"github.com/jpfielding/texkit.go/pkg/logging"
	"github.com/jpfielding/texkit.go/pkg/raster"
	"github.com/jpfielding/texkit.go/pkg/sink"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// minParallelRows is the block-row count below which dispatching is not
// worth the fan-out and the sequential path is used.
const minParallelRows = 4

// Encode compresses src into a new block buffer. Each block index is handed
// to d exactly once and only writes its own slot of the buffer, so any
// Dispatcher produces identical bytes. A nil d or opts selects the sequential
// dispatcher and DefaultOptions.
func Encode(mode AlphaMode, width, height, depth int, src PixelSource, d dispatch.Dispatcher, opts *Options) (*Buffer, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	buf, err := encode(mode, width, height, depth, src, d, opts)
	if err != nil {
		return nil, opts.Reporter.Report(err)
	}
	return buf, nil
}

func encode(mode AlphaMode, width, height, depth int, src PixelSource, d dispatch.Dispatcher, opts *Options) (*Buffer, error) {
	const op = "dxt.Encode"
	if depth != 1 {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "depth %d, only 2D images are supported", depth)
	}
	if src == nil {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "nil source")
	}
	if sw, sh := src.Size(); sw < width || sh < height {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "source %dx%d smaller than %dx%d", sw, sh, width, height)
	}

	buf, err := NewBuffer(opts.Format, width, height, opts.Arena)
	if err != nil {
		return nil, err
	}

	if d == nil || buf.BlocksHigh < minParallelRows {
		d = dispatch.Sequential{}
	}
	log := logging.OrDiscard(opts.Logger)
	log.Debug("compressing",
		slog.String("format", opts.Format.String()),
		slog.Int("width", width),
		slog.Int("height", height),
		slog.Int("blocks", buf.Blocks()),
	)

	d.Dispatch(buf.Blocks(), func(i int) {
		bx, by := i%buf.BlocksWide, i/buf.BlocksWide
		s, e := buf.Range(i)
		b := gather(src, width, height, bx, by, mode)
		encodeBlock(buf.Data[s:e], b, opts.Format, opts)
	})
	return buf, nil
}

// Compress encodes src and emits the result to out as a single image:
// BeginImage, one WriteData with the whole buffer, EndImage. Nothing reaches
// the sink when encoding fails. A rejected write is reported as ShortWrite.
func Compress(mode AlphaMode, width, height, depth int, src PixelSource, d dispatch.Dispatcher, opts *Options, out sink.Sink) error {
	buf, err := Encode(mode, width, height, depth, src, d, opts)
	if err != nil {
		return err
	}
	return opts.reporter().Report(Emit(buf, out))
}

// Emit hands an encoded buffer to out as face 0, mip level 0.
func Emit(buf *Buffer, out sink.Sink) error {
	out = sink.OrNop(out)
	out.BeginImage(len(buf.Data), buf.Width, buf.Height, 1, 0, 0)
	ok := out.WriteData(buf.Data)
	out.EndImage()
	if !ok {
		return texerr.Errorf(texerr.ShortWrite, "dxt.Emit", "sink rejected %d bytes", len(buf.Data))
	}
	return nil
}

// CompressImage is a convenience for standard library images.
func CompressImage(img image.Image, d dispatch.Dispatcher, opts *Options) (*Buffer, error) {
	src, err := SourceFromStdImage(img)
	if err != nil {
		return nil, opts.reporter().Report(err)
	}
	b := img.Bounds()
	mode := AlphaNone
	if opts != nil && opts.Format != DXT1 {
		mode = AlphaTransparency
	}
	return Encode(mode, b.Dx(), b.Dy(), 1, src, d, opts)
}

// CompressRaster encodes a decoded raster image. Alpha weighting is used for
// every format that carries alpha.
func CompressRaster(m *raster.Image, d dispatch.Dispatcher, opts *Options) (*Buffer, error) {
	src, err := SourceFromImage(m)
	if err != nil {
		return nil, opts.reporter().Report(err)
	}
	mode := AlphaNone
	if opts != nil && opts.Format != DXT1 {
		mode = AlphaTransparency
	}
	return Encode(mode, m.Width, m.Height, m.Depth, src, d, opts)
}

// NewDDSSink returns a sink that writes a DDS container for format f.
func NewDDSSink(w io.Writer, f Format) *sink.DDS {
	return sink.NewDDS(w, f.FourCC())
}
