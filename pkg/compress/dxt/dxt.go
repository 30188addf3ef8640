// Package dxt implements S3TC (DXT1, DXT1A, DXT3, DXT5) block compression.
//
// An image is cut into 4x4 texel blocks laid out row-major. Every block is
// encoded independently into a fixed 8 or 16 byte slot of one preallocated
// buffer, so blocks can be compressed in any order on any number of
// goroutines and the output is identical. Compress fans the blocks out through
// a dispatch.Dispatcher and hands the finished buffer to a sink.Sink.
package dxt

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jpfielding/texkit.go/pkg/arena"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// Format is a compressed block format.
type Format int

const (
	DXT1  Format = iota // opaque, 8 bytes per block
	DXT1A               // 1-bit alpha, 8 bytes per block
	DXT3                // explicit 4-bit alpha, 16 bytes per block
	DXT5                // interpolated alpha, 16 bytes per block
)

func (f Format) String() string {
	switch f {
	case DXT1:
		return "DXT1"
	case DXT1A:
		return "DXT1A"
	case DXT3:
		return "DXT3"
	case DXT5:
		return "DXT5"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat accepts the names printed by String, case-insensitively, plus
// the BC aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(s) {
	case "DXT1", "BC1":
		return DXT1, nil
	case "DXT1A", "BC1A":
		return DXT1A, nil
	case "DXT3", "BC2":
		return DXT3, nil
	case "DXT5", "BC3":
		return DXT5, nil
	}
	return DXT1, texerr.Errorf(texerr.InvalidParam, "dxt.ParseFormat", "unknown format %q", s)
}

// BlockSize is the encoded size of one 4x4 block.
func (f Format) BlockSize() int {
	if f == DXT3 || f == DXT5 {
		return 16
	}
	return 8
}

// FourCC is the DDS pixel format code. DXT1A shares DXT1's.
func (f Format) FourCC() string {
	switch f {
	case DXT3:
		return "DXT3"
	case DXT5:
		return "DXT5"
	}
	return "DXT1"
}

// AlphaMode selects how alpha influences color selection.
type AlphaMode int

const (
	// AlphaNone weights every texel equally.
	AlphaNone AlphaMode = iota
	// AlphaTransparency weights each texel's color error by its alpha, so
	// nearly invisible texels barely influence the endpoints.
	AlphaTransparency
)

// Options configures compression.
type Options struct {
	Format         Format
	AlphaThreshold uint8        // DXT1A: alpha below this becomes transparent (default 128)
	Refine         bool         // least-squares endpoint refit after the first fit
	Arena          *arena.Arena // output buffer allocation, nil for the heap
	Logger         *slog.Logger
	Reporter       *texerr.Reporter // records the kind of every failure
}

func (o *Options) reporter() *texerr.Reporter {
	if o == nil {
		return nil
	}
	return o.Reporter
}

// DefaultOptions returns DXT1 with refinement on.
func DefaultOptions() *Options {
	return &Options{
		Format:         DXT1,
		AlphaThreshold: 128,
		Refine:         true,
	}
}

// Buffer holds the compressed blocks of one image.
type Buffer struct {
	Format     Format
	Width      int
	Height     int
	BlocksWide int
	BlocksHigh int
	BlockSize  int
	Data       []byte
}

// NewBuffer allocates the block grid for a width x height image.
func NewBuffer(f Format, width, height int, a *arena.Arena) (*Buffer, error) {
	const op = "dxt.NewBuffer"
	if width <= 0 || height <= 0 {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "dimensions %dx%d", width, height)
	}
	bw, bh := (width+3)/4, (height+3)/4
	bs := f.BlockSize()
	data, err := a.Alloc(bw * bh * bs)
	if err != nil {
		return nil, texerr.New(texerr.OutOfMemory, op, err)
	}
	return &Buffer{
		Format:     f,
		Width:      width,
		Height:     height,
		BlocksWide: bw,
		BlocksHigh: bh,
		BlockSize:  bs,
		Data:       data,
	}, nil
}

// Blocks is the number of blocks in the grid.
func (b *Buffer) Blocks() int {
	return b.BlocksWide * b.BlocksHigh
}

// Range returns the byte range owned by block index i.
func (b *Buffer) Range(i int) (start, end int) {
	return i * b.BlockSize, (i + 1) * b.BlockSize
}

// Block returns the bytes of block (x, y).
func (b *Buffer) Block(x, y int) []byte {
	s, e := b.Range(y*b.BlocksWide + x)
	return b.Data[s:e]
}
