package palette

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// Codec reads and writes one on-disk palette format.
type Codec interface {
	// Name returns the codec identifier (e.g., "jasc")
	Name() string
	// Extensions lists the lower-case file extensions, with dot
	Extensions() []string
	// Decode reads a palette positioned at the start of the record
	Decode(r io.ReadSeeker) (*Palette, error)
	// Encode writes p; p is not modified
	Encode(w io.Writer, p *Palette) error
}

type jascCodec struct{}

func (jascCodec) Name() string                            { return "jasc" }
func (jascCodec) Extensions() []string                    { return []string{".pal"} }
func (jascCodec) Decode(r io.ReadSeeker) (*Palette, error) { return LoadJasc(r) }
func (jascCodec) Encode(w io.Writer, p *Palette) error    { return SaveJasc(w, p) }

type haloCodec struct{}

func (haloCodec) Name() string                            { return "halo" }
func (haloCodec) Extensions() []string                    { return []string{".pal"} }
func (haloCodec) Decode(r io.ReadSeeker) (*Palette, error) { return LoadHalo(r) }
func (haloCodec) Encode(w io.Writer, p *Palette) error    { return SaveHalo(w, p) }

type colCodec struct{}

func (colCodec) Name() string                            { return "col" }
func (colCodec) Extensions() []string                    { return []string{".col"} }
func (colCodec) Decode(r io.ReadSeeker) (*Palette, error) { return LoadCol(r) }
func (colCodec) Encode(w io.Writer, p *Palette) error    { return SaveCol(w, p) }

type actCodec struct{}

func (actCodec) Name() string                            { return "act" }
func (actCodec) Extensions() []string                    { return []string{".act"} }
func (actCodec) Decode(r io.ReadSeeker) (*Palette, error) { return LoadAct(r) }
func (actCodec) Encode(w io.Writer, p *Palette) error    { return SaveAct(w, p) }

type pltCodec struct{}

func (pltCodec) Name() string                            { return "plt" }
func (pltCodec) Extensions() []string                    { return []string{".plt"} }
func (pltCodec) Decode(r io.ReadSeeker) (*Palette, error) { return LoadPlt(r) }
func (pltCodec) Encode(w io.Writer, p *Palette) error    { return SavePlt(w, p) }

// palCodec sniffs .pal files: Jasc text starts with "JASC", anything else is
// tried as Halo binary. It writes Jasc.
type palCodec struct{}

func (palCodec) Name() string         { return "pal" }
func (palCodec) Extensions() []string { return []string{".pal"} }

func (palCodec) Decode(r io.ReadSeeker) (*Palette, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, texerr.New(texerr.CouldNotOpenFile, "palette.Decode", err)
	}
	var head [4]byte
	n, _ := io.ReadFull(r, head[:])
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, texerr.New(texerr.CouldNotOpenFile, "palette.Decode", err)
	}
	if bytes.EqualFold(head[:n], []byte(jascMagic[:n])) {
		return LoadJasc(r)
	}
	return LoadHalo(r)
}

func (palCodec) Encode(w io.Writer, p *Palette) error { return SaveJasc(w, p) }

// codecsByName maps codec names to implementations
var codecsByName = map[string]Codec{
	"jasc": jascCodec{},
	"halo": haloCodec{},
	"col":  colCodec{},
	"act":  actCodec{},
	"plt":  pltCodec{},
	"pal":  palCodec{},
}

// codecsByExt maps extensions to the codec used when only a filename is known
var codecsByExt = map[string]Codec{
	".pal": palCodec{},
	".col": colCodec{},
	".act": actCodec{},
	".plt": pltCodec{},
}

// Predefined codec instances for convenience
var (
	CodecJasc Codec = codecsByName["jasc"]
	CodecHalo Codec = codecsByName["halo"]
	CodecCol  Codec = codecsByName["col"]
	CodecAct  Codec = codecsByName["act"]
	CodecPlt  Codec = codecsByName["plt"]
	CodecPal  Codec = codecsByName["pal"]
)

// CodecByName returns a codec by name, or nil if not found
func CodecByName(name string) Codec {
	return codecsByName[strings.ToLower(name)]
}

// CodecByExtension returns the codec for ext (".pal", "PAL", ...), or nil.
func CodecByExtension(ext string) Codec {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return codecsByExt[ext]
}

// Names lists the registered codec names, sorted.
func Names() []string {
	names := make([]string, 0, len(codecsByName))
	for n := range codecsByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
