package texerr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := New(IllegalFileValue, "palette.LoadHalo", errors.New("bad magic"))

	assert.True(t, errors.Is(err, IllegalFileValue))
	assert.False(t, errors.Is(err, InvalidFileHeader))

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, errors.Is(wrapped, IllegalFileValue))
	assert.Equal(t, IllegalFileValue, KindOf(wrapped))
	assert.Contains(t, err.Error(), "palette.LoadHalo")
	assert.Contains(t, err.Error(), "bad magic")
}

func TestKindOf_Plain(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))
}

func TestRead_MapsEOF(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"EOF", io.EOF},
		{"UnexpectedEOF", io.ErrUnexpectedEOF},
		{"Wrapped", fmt.Errorf("header: %w", io.ErrUnexpectedEOF)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Read("op", tt.err)
			assert.Equal(t, ShortRead, err.Kind)
			assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
		})
	}
}

func TestRead_KeepsKind(t *testing.T) {
	err := Read("outer", New(OutOfMemory, "inner", nil))
	assert.Equal(t, OutOfMemory, err.Kind)
}

func TestReporter(t *testing.T) {
	var r Reporter
	require.NoError(t, r.Report(nil))
	assert.Equal(t, 0, r.Count())

	err := r.Report(New(InvalidExtension, "op", nil))
	require.Error(t, err)
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, InvalidExtension, r.Last())
	assert.Equal(t, Unknown, r.Last(), "Last clears the stored kind")

	var nilReporter *Reporter
	assert.Error(t, nilReporter.Report(New(OutOfMemory, "op", nil)))
	assert.Equal(t, Unknown, nilReporter.Last())
	assert.Zero(t, nilReporter.Count())
}
