package sink

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emit(s Sink, data []byte) bool {
	s.BeginImage(len(data), 4, 4, 1, 0, 0)
	ok := s.WriteData(data)
	s.EndImage()
	return ok
}

func TestNop(t *testing.T) {
	assert.True(t, emit(Nop{}, []byte{1, 2, 3}))
	assert.Equal(t, Nop{}, OrNop(nil))

	var b Buffer
	assert.Equal(t, &b, OrNop(&b))
}

func TestBuffer(t *testing.T) {
	var b Buffer
	assert.False(t, b.WriteData([]byte{1}), "write before BeginImage")

	b.BeginImage(4, 8, 8, 1, 0, 0)
	require.True(t, b.WriteData([]byte{1, 2}))
	require.True(t, b.WriteData([]byte{3, 4}))
	b.EndImage()

	imgs := b.Images()
	require.Len(t, imgs, 1)
	assert.Equal(t, Header{Size: 4, Width: 8, Height: 8, Depth: 1}, imgs[0].Header)
	assert.Equal(t, []byte{1, 2, 3, 4}, imgs[0].Data)
	assert.Equal(t, 2, imgs[0].Writes)
	assert.True(t, imgs[0].Ended)
	assert.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	assert.True(t, emit(w, []byte{9, 8}))
	assert.Equal(t, []byte{9, 8}, buf.Bytes())
	assert.NoError(t, w.Err())

	fw := NewWriter(failWriter{})
	assert.False(t, emit(fw, []byte{1}))
	assert.Error(t, fw.Err())
	assert.False(t, fw.WriteData([]byte{2}), "sticky error")
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	f, err := CreateFile(path, false)
	require.NoError(t, err)
	assert.True(t, emit(f, []byte("texels")))
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "texels", string(got))

	_, err = CreateFile(path, false)
	assert.True(t, errors.Is(err, texerr.FileAlreadyExists))

	f, err = CreateFile(path, true)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.True(t, errors.Is(f.Close(), os.ErrClosed), "sync after close fails")

	_, err = CreateFile(filepath.Join(t.TempDir(), "missing", "x.bin"), true)
	assert.True(t, errors.Is(err, texerr.CouldNotOpenFile))
}

func TestZstd_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	z, err := NewZstd(&buf)
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{0xAA, 0x55}, 1000)
	assert.True(t, emit(z, payload))
	require.NoError(t, z.Close())
	assert.Less(t, buf.Len(), len(payload))

	dec, err := zstd.NewReader(&buf)
	require.NoError(t, err)
	defer dec.Close()
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDDS(t *testing.T) {
	var buf bytes.Buffer
	s := NewDDS(&buf, "DXT5")

	data := make([]byte, 32)
	s.BeginImage(len(data), 8, 4, 1, 0, 0)
	require.True(t, s.WriteData(data))
	s.EndImage()
	require.NoError(t, s.Err())

	b := buf.Bytes()
	require.Len(t, b, 4+ddsHeaderSize+32)
	assert.Equal(t, "DDS ", string(b[:4]))
	h := b[4:]
	assert.EqualValues(t, 124, binary.LittleEndian.Uint32(h[0:]))
	assert.EqualValues(t, 4, binary.LittleEndian.Uint32(h[8:]))
	assert.EqualValues(t, 8, binary.LittleEndian.Uint32(h[12:]))
	assert.EqualValues(t, 32, binary.LittleEndian.Uint32(h[16:]))
	assert.Equal(t, "DXT5", string(h[80:84]))
}

func TestReadDDSHeader(t *testing.T) {
	b := DDSHeader("DXT3", 12, 8, 1, 96)
	r := bytes.NewReader(append(b, 0xaa))
	info, err := ReadDDSHeader(r)
	require.NoError(t, err)
	assert.Equal(t, DDSInfo{FourCC: "DXT3", Width: 12, Height: 8, Depth: 1, LinearSize: 96}, info)
	next, err := r.ReadByte()
	require.NoError(t, err)
	assert.EqualValues(t, 0xaa, next)

	_, err = ReadDDSHeader(bytes.NewReader(b[:20]))
	assert.True(t, errors.Is(err, texerr.ShortRead))

	bad := bytes.Clone(b)
	copy(bad, "DDX ")
	_, err = ReadDDSHeader(bytes.NewReader(bad))
	assert.True(t, errors.Is(err, texerr.InvalidFileHeader))
}

func TestDDS_SkipsMipHeaders(t *testing.T) {
	var buf bytes.Buffer
	s := NewDDS(&buf, "DXT1")
	s.BeginImage(8, 4, 4, 1, 0, 1)
	s.WriteData(make([]byte, 8))
	assert.Equal(t, 8, buf.Len())
}

func TestMulti(t *testing.T) {
	var a, b Buffer
	m := Multi{&a, &b}
	assert.True(t, emit(m, []byte{5, 6}))
	assert.Equal(t, []byte{5, 6}, a.Bytes())
	assert.Equal(t, []byte{5, 6}, b.Bytes())

	var c Buffer
	assert.False(t, emit(Multi{&c, NewWriter(failWriter{})}, []byte{1}))
	assert.Equal(t, []byte{1}, c.Bytes(), "remaining sinks still receive the data")
}
