package texcache

import "bytes"

// Sink captures the top-level image written through it and stores it under
// Key when the image ends. Mip levels and extra faces are ignored.
type Sink struct {
	c      *DB
	Key    string
	Format string
	width  int
	height int
	active bool
	buf    bytes.Buffer
	err    error
}

// Sink returns a sink.Sink that writes into the cache.
func (c *DB) Sink(key, format string) *Sink {
	return &Sink{c: c, Key: key, Format: format}
}

func (s *Sink) BeginImage(size, width, height, depth, face, mipLevel int) {
	s.active = face == 0 && mipLevel == 0
	if !s.active {
		return
	}
	s.width, s.height = width, height
	s.buf.Reset()
	s.buf.Grow(size)
}

func (s *Sink) WriteData(p []byte) bool {
	if s.err != nil {
		return false
	}
	if s.active {
		s.buf.Write(p)
	}
	return true
}

func (s *Sink) EndImage() {
	if !s.active || s.err != nil {
		return
	}
	s.active = false
	s.err = s.c.Put(&Entry{
		Key:    s.Key,
		Format: s.Format,
		Width:  s.width,
		Height: s.height,
		Data:   bytes.Clone(s.buf.Bytes()),
	})
}

// Err returns the error from storing the entry.
func (s *Sink) Err() error {
	return s.err
}
