package palette

import (
	"encoding/binary"
	"io"

	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// Halo header layout, little endian, 40 bytes:
//
//	0  u16 id          'A' | 'H'<<8
//	2  i16 version     0xE3
//	4  i16 size
//	6  i8  filetype
//	7  i8  subtype
//	8  i32 ignored
//	12 u16 max index
//	14 u16 max red, 16 max green, 18 max blue
//	20 u8[20] filler
const (
	haloHeaderSize = 40
	haloID         = uint16('A') | uint16('H')<<8
	haloVersion    = 0xE3
)

// colVersion introduces the 8-byte header of large .col files.
const (
	colVersion = 0xB123
	colTable   = 768
)

func readFull(op string, r io.Reader, b []byte) error {
	if _, err := io.ReadFull(r, b); err != nil {
		return texerr.Read(op, err)
	}
	return nil
}

// LoadHalo reads a Halo binary palette. Each 16-bit value keeps only its low
// byte.
func LoadHalo(r io.Reader) (*Palette, error) {
	const op = "palette.LoadHalo"
	var hdr [haloHeaderSize]byte
	if err := readFull(op, r, hdr[:]); err != nil {
		return nil, err
	}
	id := binary.LittleEndian.Uint16(hdr[0:])
	version := int16(binary.LittleEndian.Uint16(hdr[2:]))
	if id != haloID || version != haloVersion {
		return nil, texerr.Errorf(texerr.IllegalFileValue, op, "id %#04x version %#x", id, version)
	}
	maxIndex := int(binary.LittleEndian.Uint16(hdr[12:]))
	if maxIndex+1 > MaxEntries {
		return nil, texerr.Errorf(texerr.IllegalFileValue, op, "max index %d", maxIndex)
	}

	n := (maxIndex + 1) * 3
	raw := make([]byte, n*2)
	if err := readFull(op, r, raw); err != nil {
		return nil, err
	}
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return &Palette{Data: data, Layout: RGB24}, nil
}

// SaveHalo writes p in the Halo binary layout.
func SaveHalo(w io.Writer, p *Palette) error {
	const op = "palette.SaveHalo"
	rgb, err := toRGB24(op, p)
	if err != nil {
		return err
	}
	var hdr [haloHeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:], haloID)
	binary.LittleEndian.PutUint16(hdr[2:], haloVersion)
	binary.LittleEndian.PutUint16(hdr[4:], uint16(haloHeaderSize+len(rgb.Data)*2))
	binary.LittleEndian.PutUint16(hdr[12:], uint16(rgb.Len()-1))
	binary.LittleEndian.PutUint16(hdr[14:], 0xff)
	binary.LittleEndian.PutUint16(hdr[16:], 0xff)
	binary.LittleEndian.PutUint16(hdr[18:], 0xff)

	body := make([]byte, len(rgb.Data)*2)
	for i, v := range rgb.Data {
		binary.LittleEndian.PutUint16(body[i*2:], uint16(v))
	}
	return write(op, w, hdr[:], body)
}

// LoadCol reads an Animator Pro style .col palette. Files longer than 768
// bytes carry an 8-byte header (u32 size, u16 0xB123, u16 0); shorter ones
// are a bare RGB table.
func LoadCol(r io.ReadSeeker) (*Palette, error) {
	const op = "palette.LoadCol"
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, texerr.New(texerr.CouldNotOpenFile, op, err)
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, texerr.New(texerr.CouldNotOpenFile, op, err)
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, texerr.New(texerr.CouldNotOpenFile, op, err)
	}

	if end-start > colTable {
		var hdr [8]byte
		if err := readFull(op, r, hdr[:]); err != nil {
			return nil, err
		}
		if v := binary.LittleEndian.Uint16(hdr[4:]); v != colVersion {
			return nil, texerr.Errorf(texerr.IllegalFileValue, op, "version %#04x", v)
		}
		if v := binary.LittleEndian.Uint16(hdr[6:]); v != 0 {
			return nil, texerr.Errorf(texerr.IllegalFileValue, op, "sub-version %#04x", v)
		}
	}
	data := make([]byte, colTable)
	if err := readFull(op, r, data); err != nil {
		return nil, err
	}
	return &Palette{Data: data, Layout: RGB24}, nil
}

// SaveCol writes the headered .col form.
func SaveCol(w io.Writer, p *Palette) error {
	const op = "palette.SaveCol"
	table, err := table768(op, p)
	if err != nil {
		return err
	}
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(hdr)+len(table)))
	binary.LittleEndian.PutUint16(hdr[4:], colVersion)
	return write(op, w, hdr[:], table)
}

// LoadAct reads a Photoshop color table: 256 RGB triples, nothing else.
func LoadAct(r io.Reader) (*Palette, error) {
	const op = "palette.LoadAct"
	data := make([]byte, colTable)
	if err := readFull(op, r, data); err != nil {
		return nil, err
	}
	return &Palette{Data: data, Layout: RGB24}, nil
}

// SaveAct writes a 768-byte table, zero padded.
func SaveAct(w io.Writer, p *Palette) error {
	const op = "palette.SaveAct"
	table, err := table768(op, p)
	if err != nil {
		return err
	}
	return write(op, w, table)
}

// LoadPlt reads a u32 byte count followed by that many RGB bytes.
func LoadPlt(r io.Reader) (*Palette, error) {
	const op = "palette.LoadPlt"
	var hdr [4]byte
	if err := readFull(op, r, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(hdr[:])
	if size == 0 || size%3 != 0 || size > colTable {
		return nil, texerr.Errorf(texerr.IllegalFileValue, op, "palette size %d", size)
	}
	data := make([]byte, size)
	if err := readFull(op, r, data); err != nil {
		return nil, err
	}
	return &Palette{Data: data, Layout: RGB24}, nil
}

// SavePlt writes the length-prefixed form with exactly p.Len() entries.
func SavePlt(w io.Writer, p *Palette) error {
	const op = "palette.SavePlt"
	rgb, err := toRGB24(op, p)
	if err != nil {
		return err
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(rgb.Data)))
	return write(op, w, hdr[:], rgb.Data)
}

func table768(op string, p *Palette) ([]byte, error) {
	rgb, err := toRGB24(op, p)
	if err != nil {
		return nil, err
	}
	table := make([]byte, colTable)
	copy(table, rgb.Data)
	return table, nil
}

func write(op string, w io.Writer, chunks ...[]byte) error {
	for _, c := range chunks {
		n, err := w.Write(c)
		if err != nil {
			return texerr.New(texerr.ShortWrite, op, err)
		}
		if n != len(c) {
			return texerr.Errorf(texerr.ShortWrite, op, "wrote %d of %d bytes", n, len(c))
		}
	}
	return nil
}
