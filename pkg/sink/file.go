package sink

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/klauspost/compress/zstd"
)

// DefaultRetries bounds how often File resubmits the remainder of a short
// write.
const DefaultRetries = 3

// File writes image data to a file, retrying short writes.
type File struct {
	f       *os.File
	Retries int
	err     error
}

// CreateFile opens path for writing. An existing file is only truncated when
// overwrite is set.
func CreateFile(path string, overwrite bool) (*File, error) {
	const op = "sink.CreateFile"
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, texerr.New(texerr.FileAlreadyExists, op, err)
		}
		return nil, texerr.New(texerr.CouldNotOpenFile, op, err)
	}
	return &File{f: f, Retries: DefaultRetries}, nil
}

func (s *File) BeginImage(size, width, height, depth, face, mipLevel int) {}

func (s *File) WriteData(p []byte) bool {
	if s.err != nil {
		return false
	}
	for attempt := 0; len(p) > 0; attempt++ {
		n, err := s.f.Write(p)
		p = p[n:]
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			s.err = err
			return false
		}
		if len(p) > 0 && attempt >= s.Retries {
			s.err = io.ErrShortWrite
			return false
		}
	}
	return true
}

func (s *File) EndImage() {}

// Write lets File double as the io.Writer behind a container sink.
func (s *File) Write(p []byte) (int, error) {
	if !s.WriteData(p) {
		return 0, s.err
	}
	return len(p), nil
}

// Err returns the first write error.
func (s *File) Err() error {
	return s.err
}

// Close syncs and closes the file.
func (s *File) Close() error {
	if err := s.f.Sync(); err != nil && s.err == nil {
		s.err = err
	}
	if err := s.f.Close(); err != nil && s.err == nil {
		s.err = err
	}
	return s.err
}

// Zstd compresses everything written through it with zstd before passing it
// to the underlying writer. Close must be called to flush the frame.
type Zstd struct {
	enc *zstd.Encoder
	err error
}

// NewZstd wraps w. Encoder options, such as zstd.WithEncoderConcurrency, are
// passed through.
func NewZstd(w io.Writer, opts ...zstd.EOption) (*Zstd, error) {
	enc, err := zstd.NewWriter(w, opts...)
	if err != nil {
		return nil, texerr.New(texerr.InvalidParam, "sink.NewZstd", err)
	}
	return &Zstd{enc: enc}, nil
}

func (s *Zstd) BeginImage(size, width, height, depth, face, mipLevel int) {}

func (s *Zstd) WriteData(p []byte) bool {
	_, err := s.Write(p)
	return err == nil
}

func (s *Zstd) EndImage() {}

func (s *Zstd) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.enc.Write(p)
	s.err = err
	return n, err
}

// Close flushes the zstd frame. It does not close the underlying writer.
func (s *Zstd) Close() error {
	if err := s.enc.Close(); err != nil && s.err == nil {
		s.err = err
	}
	return s.err
}
