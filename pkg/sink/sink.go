// Package sink abstracts where compressed texture bytes go.
//
// A producer calls BeginImage once, WriteData zero or more times and EndImage
// once per image. The payloads of the WriteData calls, concatenated, form the
// image. WriteData reporting false is an I/O failure; sinks do their own
// retrying, if any.
package sink

import (
	"bytes"
	"io"
	"sync"
)

// Sink receives compressed images.
type Sink interface {
	BeginImage(size, width, height, depth, face, mipLevel int)
	WriteData(p []byte) bool
	EndImage()
}

// Nop discards everything and reports success. It is the output of a
// producer with nothing configured.
type Nop struct{}

func (Nop) BeginImage(size, width, height, depth, face, mipLevel int) {}
func (Nop) WriteData(p []byte) bool                                  { return true }
func (Nop) EndImage()                                                {}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

// Header is the BeginImage call as seen by a sink.
type Header struct {
	Size, Width, Height, Depth, Face, MipLevel int
}

// Image is one captured image.
type Image struct {
	Header
	Data   []byte
	Writes int // number of WriteData calls
	Ended  bool
}

// Buffer keeps every image in memory. It is safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	images []*Image
}

func (b *Buffer) BeginImage(size, width, height, depth, face, mipLevel int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.images = append(b.images, &Image{
		Header: Header{size, width, height, depth, face, mipLevel},
		Data:   make([]byte, 0, size),
	})
}

func (b *Buffer) WriteData(p []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.images) == 0 {
		return false
	}
	img := b.images[len(b.images)-1]
	img.Data = append(img.Data, p...)
	img.Writes++
	return true
}

func (b *Buffer) EndImage() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.images) > 0 {
		b.images[len(b.images)-1].Ended = true
	}
}

// Images returns the captured images in order.
func (b *Buffer) Images() []*Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Image(nil), b.images...)
}

// Bytes concatenates every captured image.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out bytes.Buffer
	for _, img := range b.images {
		out.Write(img.Data)
	}
	return out.Bytes()
}

// Writer streams image data to an io.Writer and remembers the first error.
type Writer struct {
	W   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w}
}

func (w *Writer) BeginImage(size, width, height, depth, face, mipLevel int) {}

func (w *Writer) WriteData(p []byte) bool {
	if w.err != nil {
		return false
	}
	n, err := w.W.Write(p)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	w.err = err
	return err == nil
}

func (w *Writer) EndImage() {}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

// Multi forwards every call to each sink in order. WriteData succeeds only
// if every sink accepted the data.
type Multi []Sink

func (m Multi) BeginImage(size, width, height, depth, face, mipLevel int) {
	for _, s := range m {
		s.BeginImage(size, width, height, depth, face, mipLevel)
	}
}

func (m Multi) WriteData(p []byte) bool {
	ok := true
	for _, s := range m {
		if !s.WriteData(p) {
			ok = false
		}
	}
	return ok
}

func (m Multi) EndImage() {
	for _, s := range m {
		s.EndImage()
	}
}
