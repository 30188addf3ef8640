package dxt

import (
	"io"

	"github.com/jpfielding/texkit.go/pkg/sink"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// maxDDSSide bounds the dimensions ReadDDS will allocate for.
const maxDDSSide = 1 << 16

// ReadDDS reads a single-surface DDS file, as written by NewDDSSink, back
// into a block buffer. DXT1A files come back as DXT1; the block bytes are
// the same.
func ReadDDS(r io.Reader) (*Buffer, error) {
	const op = "dxt.ReadDDS"
	info, err := sink.ReadDDSHeader(r)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(info.FourCC)
	if err != nil {
		return nil, texerr.New(texerr.IllegalFileValue, op, err)
	}
	if info.Depth != 1 {
		return nil, texerr.Errorf(texerr.IllegalFileValue, op, "depth %d", info.Depth)
	}
	if info.Width <= 0 || info.Height <= 0 || info.Width > maxDDSSide || info.Height > maxDDSSide {
		return nil, texerr.Errorf(texerr.IllegalFileValue, op, "dimensions %dx%d", info.Width, info.Height)
	}
	buf, err := NewBuffer(f, info.Width, info.Height, nil)
	if err != nil {
		return nil, err
	}
	if info.LinearSize != len(buf.Data) {
		return nil, texerr.Errorf(texerr.IllegalFileValue, op, "linear size %d, want %d", info.LinearSize, len(buf.Data))
	}
	if _, err := io.ReadFull(r, buf.Data); err != nil {
		return nil, texerr.Read(op, err)
	}
	return buf, nil
}
