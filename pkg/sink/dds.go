package sink

import (
	"encoding/binary"
	"io"

	"github.com/jpfielding/texkit.go/pkg/texerr"
)

const (
	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPixelFormat = 0x1000
	ddsdLinearSize  = 0x80000
	ddsdDepth       = 0x800000

	ddpfFourCC     = 0x4
	ddscapsTexture = 0x1000

	ddsHeaderSize = 124
)

// DDS writes each top-level image (face 0, mip 0) as a DDS file: magic,
// 124-byte header and the block data.
type DDS struct {
	W      io.Writer
	FourCC string // "DXT1", "DXT3", "DXT5"
	err    error
}

// NewDDS wraps w.
func NewDDS(w io.Writer, fourCC string) *DDS {
	return &DDS{W: w, FourCC: fourCC}
}

// DDSHeader returns the magic plus header for one compressed surface.
func DDSHeader(fourCC string, width, height, depth, linearSize int) []byte {
	b := make([]byte, 4+ddsHeaderSize)
	copy(b, "DDS ")
	h := b[4:]

	flags := uint32(ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat | ddsdLinearSize)
	if depth > 1 {
		flags |= ddsdDepth
	}
	binary.LittleEndian.PutUint32(h[0:], ddsHeaderSize)
	binary.LittleEndian.PutUint32(h[4:], flags)
	binary.LittleEndian.PutUint32(h[8:], uint32(height))
	binary.LittleEndian.PutUint32(h[12:], uint32(width))
	binary.LittleEndian.PutUint32(h[16:], uint32(linearSize))
	if depth > 1 {
		binary.LittleEndian.PutUint32(h[20:], uint32(depth))
	}

	// pixel format at offset 72
	pf := h[72:]
	binary.LittleEndian.PutUint32(pf[0:], 32)
	binary.LittleEndian.PutUint32(pf[4:], ddpfFourCC)
	copy(pf[8:12], fourCC)

	binary.LittleEndian.PutUint32(h[104:], ddscapsTexture)
	return b
}

// DDSInfo is the surface description carried by a DDS header.
type DDSInfo struct {
	FourCC        string
	Width, Height int
	Depth         int
	LinearSize    int
}

// ReadDDSHeader reads the magic and header of a compressed DDS surface,
// leaving r at the start of the block data.
func ReadDDSHeader(r io.Reader) (DDSInfo, error) {
	const op = "sink.ReadDDSHeader"
	b := make([]byte, 4+ddsHeaderSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return DDSInfo{}, texerr.Read(op, err)
	}
	if string(b[:4]) != "DDS " {
		return DDSInfo{}, texerr.Errorf(texerr.InvalidFileHeader, op, "magic %q", b[:4])
	}
	h := b[4:]
	if binary.LittleEndian.Uint32(h[0:]) != ddsHeaderSize {
		return DDSInfo{}, texerr.Errorf(texerr.InvalidFileHeader, op, "header size %d", binary.LittleEndian.Uint32(h[0:]))
	}
	pf := h[72:]
	if binary.LittleEndian.Uint32(pf[4:])&ddpfFourCC == 0 {
		return DDSInfo{}, texerr.Errorf(texerr.IllegalFileValue, op, "uncompressed pixel format")
	}
	info := DDSInfo{
		FourCC:     string(pf[8:12]),
		Height:     int(binary.LittleEndian.Uint32(h[8:])),
		Width:      int(binary.LittleEndian.Uint32(h[12:])),
		LinearSize: int(binary.LittleEndian.Uint32(h[16:])),
		Depth:      1,
	}
	if binary.LittleEndian.Uint32(h[4:])&ddsdDepth != 0 {
		info.Depth = int(binary.LittleEndian.Uint32(h[20:]))
	}
	return info, nil
}

func (s *DDS) BeginImage(size, width, height, depth, face, mipLevel int) {
	if s.err != nil || face != 0 || mipLevel != 0 {
		return
	}
	s.write(DDSHeader(s.FourCC, width, height, depth, size))
}

func (s *DDS) WriteData(p []byte) bool {
	s.write(p)
	return s.err == nil
}

func (s *DDS) EndImage() {}

func (s *DDS) write(p []byte) {
	if s.err != nil {
		return
	}
	n, err := s.W.Write(p)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	s.err = err
}

// Err returns the first write error.
func (s *DDS) Err() error {
	return s.err
}
