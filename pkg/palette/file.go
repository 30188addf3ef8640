package palette

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jpfielding/texkit.go/pkg/texerr"
)

func checkExt(op, path string, c Codec) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(c.Extensions(), ext) {
		return texerr.Errorf(texerr.InvalidExtension, op, "%q is not one of %v", filepath.Base(path), c.Extensions())
	}
	return nil
}

// LoadFileAs reads path with codec c. The extension must be one c accepts.
func LoadFileAs(path string, c Codec) (*Palette, error) {
	const op = "palette.LoadFile"
	if err := checkExt(op, path, c); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, texerr.New(texerr.CouldNotOpenFile, op, err)
	}
	defer f.Close()
	return c.Decode(f)
}

// LoadFile picks the codec from the file extension.
func LoadFile(path string) (*Palette, error) {
	c := CodecByExtension(filepath.Ext(path))
	if c == nil {
		return nil, texerr.Errorf(texerr.InvalidExtension, "palette.LoadFile", "no palette codec for %q", filepath.Base(path))
	}
	return LoadFileAs(path, c)
}

// SaveFileAs writes p to path with codec c. An existing file is only
// replaced when overwrite is set. The palette is encoded before the file is
// touched, so a failed encode leaves any existing file as it was.
func SaveFileAs(p *Palette, path string, c Codec, overwrite bool) error {
	const op = "palette.SaveFile"
	if err := checkExt(op, path, c); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, p); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return texerr.New(texerr.FileAlreadyExists, op, err)
		}
		return texerr.New(texerr.CouldNotOpenFile, op, err)
	}
	if _, err := buf.WriteTo(f); err != nil {
		f.Close()
		return texerr.New(texerr.ShortWrite, op, err)
	}
	if err := f.Close(); err != nil {
		return texerr.New(texerr.ShortWrite, op, err)
	}
	return nil
}

// SaveFile picks the codec from the file extension.
func SaveFile(p *Palette, path string, overwrite bool) error {
	c := CodecByExtension(filepath.Ext(path))
	if c == nil {
		return texerr.Errorf(texerr.InvalidExtension, "palette.SaveFile", "no palette codec for %q", filepath.Base(path))
	}
	return SaveFileAs(p, path, c, overwrite)
}
