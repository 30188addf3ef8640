package texcache

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *DB {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := open(t)

	e, err := c.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, e)

	data := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 64)
	created := time.Unix(1700000000, 0)
	require.NoError(t, c.Put(&Entry{Key: "k1", Format: "DXT1", Width: 32, Height: 16, Data: data, Created: created}))

	e, err = c.Get("k1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "DXT1", e.Format)
	assert.Equal(t, 32, e.Width)
	assert.Equal(t, 16, e.Height)
	assert.Equal(t, data, e.Data)
	assert.True(t, created.Equal(e.Created))

	// replace
	require.NoError(t, c.Put(&Entry{Key: "k1", Format: "DXT5", Width: 4, Height: 4, Data: []byte{9}}))
	e, err = c.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "DXT5", e.Format)
	assert.Equal(t, []byte{9}, e.Data)

	require.NoError(t, c.Delete("k1"))
	e, err = c.Get("k1")
	require.NoError(t, err)
	assert.Nil(t, e)

	assert.True(t, errors.Is(c.Put(&Entry{}), texerr.InvalidParam))
}

func TestStats(t *testing.T) {
	c := open(t)
	for i, f := range []string{"DXT1", "DXT1", "DXT5"} {
		require.NoError(t, c.Put(&Entry{
			Key:     string(rune('a' + i)),
			Format:  f,
			Width:   4,
			Height:  4,
			Data:    make([]byte, 16),
			Created: time.Unix(int64(1000+i), 0),
		}))
	}
	s, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Entries)
	assert.Equal(t, map[string]int{"DXT1": 2, "DXT5": 1}, s.ByFormat)
	assert.EqualValues(t, 1000, s.OldestUnix)
	assert.Positive(t, s.Stored)
}

func TestSink(t *testing.T) {
	c := open(t)
	s := c.Sink("tex", "DXT3")

	s.BeginImage(32, 8, 4, 1, 0, 0)
	require.True(t, s.WriteData(make([]byte, 16)))
	require.True(t, s.WriteData(bytes.Repeat([]byte{7}, 16)))
	s.EndImage()
	require.NoError(t, s.Err())

	// a mip level is not cached over the top-level image
	s.BeginImage(16, 4, 2, 1, 0, 1)
	s.WriteData(make([]byte, 16))
	s.EndImage()

	e, err := c.Get("tex")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 8, e.Width)
	assert.Equal(t, 4, e.Height)
	assert.Len(t, e.Data, 32)
	assert.Equal(t, byte(7), e.Data[31])
}
