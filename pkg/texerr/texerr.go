// Package texerr defines the error kinds shared by the palette, raster and
// block compression packages.
//
// Every failing operation returns an *Error carrying a Kind. Callers branch on
// the kind with errors.Is:
//
//	p, err := palette.LoadJasc(r)
//	if errors.Is(err, texerr.InvalidFileHeader) {
//		// not a Jasc palette
//	}
package texerr

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	CouldNotOpenFile
	InvalidExtension
	InvalidParam
	InvalidFileHeader
	IllegalFileValue
	IllegalOperation
	OutOfMemory
	ShortRead
	ShortWrite
	FileAlreadyExists
)

var kindNames = map[Kind]string{
	Unknown:           "unknown error",
	CouldNotOpenFile:  "could not open file",
	InvalidExtension:  "invalid extension",
	InvalidParam:      "invalid parameter",
	InvalidFileHeader: "invalid file header",
	IllegalFileValue:  "illegal file value",
	IllegalOperation:  "illegal operation",
	OutOfMemory:       "out of memory",
	ShortRead:         "short read",
	ShortWrite:        "short write",
	FileAlreadyExists: "file already exists",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error lets a bare Kind be used as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Error is the concrete error returned by texkit operations.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "palette.LoadHalo"
	Err  error  // underlying cause, may be nil
}

// New returns an *Error for op. err may be nil.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is New with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches either another *Error with the same kind or a bare Kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return Unknown
}

// Read wraps a failed read. EOF conditions become ShortRead; anything else
// keeps the io error as the cause under the given fallback kind.
func Read(op string, err error) *Error {
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		return New(ShortRead, op, io.ErrUnexpectedEOF)
	}
	var te *Error
	if errors.As(err, &te) {
		return New(te.Kind, op, err)
	}
	return New(ShortRead, op, err)
}

// Reporter records the most recent failure kind. It exists for diagnostics;
// the returned error is always the primary signal.
type Reporter struct {
	mu   sync.Mutex
	last Kind
	n    int
}

// Report stores the kind of err (no-op for nil) and returns err unchanged,
// so it can wrap a return statement.
func (r *Reporter) Report(err error) error {
	if r == nil || err == nil {
		return err
	}
	r.mu.Lock()
	r.last = KindOf(err)
	r.n++
	r.mu.Unlock()
	return err
}

// Last returns the most recently reported kind and clears it.
func (r *Reporter) Last() Kind {
	if r == nil {
		return Unknown
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.last
	r.last = Unknown
	return k
}

// Count returns how many failures have been reported.
func (r *Reporter) Count() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}
