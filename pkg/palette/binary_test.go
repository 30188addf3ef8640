package palette

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func haloBytes(id uint16, version int16, entries [][3]uint16) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, haloHeaderSize)
	binary.LittleEndian.PutUint16(hdr[0:], id)
	binary.LittleEndian.PutUint16(hdr[2:], uint16(version))
	binary.LittleEndian.PutUint16(hdr[12:], uint16(len(entries)-1))
	buf.Write(hdr)
	for _, e := range entries {
		for _, v := range e {
			binary.Write(&buf, binary.LittleEndian, v)
		}
	}
	return buf.Bytes()
}

func TestLoadHalo(t *testing.T) {
	b := haloBytes(haloID, haloVersion, [][3]uint16{{0x0110, 0x0220, 0x0330}, {1, 2, 3}})
	p, err := LoadHalo(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, RGB24, p.Layout)
	assert.Equal(t, []byte{0x10, 0x20, 0x30, 1, 2, 3}, p.Data, "values keep their low byte")
}

func TestLoadHalo_RejectsMagic(t *testing.T) {
	tests := []struct {
		name    string
		id      uint16
		version int16
	}{
		{"Swapped", uint16('H') | uint16('A')<<8, haloVersion},
		{"Zero", 0, haloVersion},
		{"Version", haloID, 0xE4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := haloBytes(tt.id, tt.version, [][3]uint16{{1, 2, 3}})
			_, err := LoadHalo(bytes.NewReader(b))
			require.Error(t, err)
			assert.True(t, errors.Is(err, texerr.IllegalFileValue))
		})
	}
}

func TestLoadHalo_Short(t *testing.T) {
	b := haloBytes(haloID, haloVersion, [][3]uint16{{1, 2, 3}, {4, 5, 6}})
	_, err := LoadHalo(bytes.NewReader(b[:len(b)-1]))
	assert.True(t, errors.Is(err, texerr.ShortRead))

	_, err = LoadHalo(bytes.NewReader(b[:10]))
	assert.True(t, errors.Is(err, texerr.ShortRead))
}

func TestHalo_RoundTrip(t *testing.T) {
	p := &Palette{Data: makeSequence(0, 16*3), Layout: RGB24}
	var buf bytes.Buffer
	require.NoError(t, SaveHalo(&buf, p))
	assert.Equal(t, haloHeaderSize+16*3*2, buf.Len())

	got, err := LoadHalo(&buf)
	require.NoError(t, err)
	assert.True(t, p.Equal(got))
}

func TestLoadCol(t *testing.T) {
	table := makeSequence(0, colTable)

	t.Run("Bare", func(t *testing.T) {
		p, err := LoadCol(bytes.NewReader(table))
		require.NoError(t, err)
		assert.Equal(t, table, p.Data)
	})

	t.Run("Headered", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, SaveCol(&buf, &Palette{Data: table, Layout: RGB24}))
		assert.Equal(t, 8+colTable, buf.Len())

		p, err := LoadCol(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, table, p.Data)
	})

	t.Run("BadVersion", func(t *testing.T) {
		b := append([]byte{0, 0, 0, 0, 0x24, 0xB1, 0, 0}, table...)
		_, err := LoadCol(bytes.NewReader(b))
		assert.True(t, errors.Is(err, texerr.IllegalFileValue))
	})

	t.Run("BadSubVersion", func(t *testing.T) {
		b := append([]byte{0, 0, 0, 0, 0x23, 0xB1, 1, 0}, table...)
		_, err := LoadCol(bytes.NewReader(b))
		assert.True(t, errors.Is(err, texerr.IllegalFileValue))
	})

	t.Run("Short", func(t *testing.T) {
		_, err := LoadCol(bytes.NewReader(table[:700]))
		assert.True(t, errors.Is(err, texerr.ShortRead))
	})
}

func TestAct_RoundTrip(t *testing.T) {
	p := &Palette{Data: []byte{1, 2, 3}, Layout: RGB24}
	var buf bytes.Buffer
	require.NoError(t, SaveAct(&buf, p))
	require.Equal(t, colTable, buf.Len())

	got, err := LoadAct(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Data[:3])
	assert.Equal(t, 256, got.Len())

	_, err = LoadAct(bytes.NewReader(make([]byte, 10)))
	assert.True(t, errors.Is(err, texerr.ShortRead))
}

func TestPlt(t *testing.T) {
	p := &Palette{Data: []byte{9, 8, 7, 6, 5, 4}, Layout: RGB24}
	var buf bytes.Buffer
	require.NoError(t, SavePlt(&buf, p))
	assert.Equal(t, []byte{6, 0, 0, 0, 9, 8, 7, 6, 5, 4}, buf.Bytes())

	got, err := LoadPlt(&buf)
	require.NoError(t, err)
	assert.True(t, p.Equal(got))

	for _, size := range []uint32{0, 4, 769 * 3} {
		var hdr [4]byte
		binary.LittleEndian.PutUint32(hdr[:], size)
		_, err := LoadPlt(bytes.NewReader(hdr[:]))
		assert.True(t, errors.Is(err, texerr.IllegalFileValue), "size %d", size)
	}

	_, err = LoadPlt(bytes.NewReader([]byte{6, 0, 0, 0, 1, 2}))
	assert.True(t, errors.Is(err, texerr.ShortRead))
}
