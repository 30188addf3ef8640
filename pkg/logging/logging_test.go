package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("app", "texctl"))
	ctx = AppendCtx(ctx, slog.Int("workers", 4))
	l.InfoContext(ctx, "compressing")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "compressing", rec["msg"])
	assert.Equal(t, "texctl", rec["app"])
	assert.EqualValues(t, 4, rec["workers"])
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := Logger(&buf, false, slog.LevelWarn)
	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDiscard(t *testing.T) {
	l := OrDiscard(nil)
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.Error("nothing")
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texctl.log")
	w := FileWriter(path, 1, 1)
	l := Logger(w, false, slog.LevelInfo)
	l.Info("to file")
	require.NoError(t, w.Close())
	assert.FileExists(t, path)
}
