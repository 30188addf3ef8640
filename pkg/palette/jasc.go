package palette

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/jpfielding/texkit.go/pkg/texerr"
)

const (
	jascMagic   = "JASC-PAL"
	jascVersion = "0100"
	wordLen     = 64
)

func isPrint(c byte) bool {
	return c >= 0x20 && c < 0x7f
}

// NextWord reads one whitespace-delimited token of at most maxLen-1 bytes.
//
// Reading stops at a newline, NUL, end of stream, a run of spaces or a
// non-printable byte. Spaces and non-printables are consumed up to the next
// printable byte, and the stream is left on that byte so the following call
// starts cleanly. maxLen below 2 is rejected because the buffer could not
// hold any data next to its terminator. io.EOF is returned only when the
// stream was already exhausted.
func NextWord(r io.ReadSeeker, maxLen int) (string, error) {
	const op = "palette.NextWord"
	if r == nil || maxLen < 2 {
		return "", texerr.Errorf(texerr.InvalidParam, op, "buffer length %d", maxLen)
	}

	var one [1]byte
	readByte := func() (byte, bool, error) {
		n, err := r.Read(one[:])
		if n == 1 {
			return one[0], true, nil
		}
		if err == io.EOF || err == nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	// skip consumes bytes while keep matches and steps back over the first
	// byte that doesn't.
	skip := func(keep func(byte) bool) error {
		for {
			c, ok, err := readByte()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if !keep(c) {
				_, err := r.Seek(-1, io.SeekCurrent)
				return err
			}
		}
	}

	buf := make([]byte, 0, maxLen-1)
	sawAny := false
	for len(buf) < maxLen-1 {
		c, ok, err := readByte()
		if err != nil {
			return "", texerr.New(texerr.ShortRead, op, err)
		}
		if !ok {
			break
		}
		sawAny = true
		if c == '\n' || c == 0 {
			break
		}
		if c == ' ' {
			if err := skip(func(b byte) bool { return b == ' ' }); err != nil {
				return "", texerr.New(texerr.ShortRead, op, err)
			}
			break
		}
		if !isPrint(c) {
			if err := skip(func(b byte) bool { return !isPrint(b) }); err != nil {
				return "", texerr.New(texerr.ShortRead, op, err)
			}
			break
		}
		buf = append(buf, c)
	}
	if !sawAny {
		return "", io.EOF
	}
	return string(buf), nil
}

func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// LoadJasc reads a Jasc/Paint Shop Pro text palette.
func LoadJasc(r io.Reader) (*Palette, error) {
	const op = "palette.LoadJasc"
	rs, err := seekable(r)
	if err != nil {
		return nil, texerr.Read(op, err)
	}

	word := func() (string, error) {
		w, err := NextWord(rs, wordLen)
		if err != nil {
			return "", texerr.Read(op, err)
		}
		return w, nil
	}

	magic, err := word()
	if err != nil {
		return nil, err
	}
	if magic != jascMagic {
		return nil, texerr.Errorf(texerr.InvalidFileHeader, op, "magic %q", magic)
	}
	version, err := word()
	if err != nil {
		return nil, err
	}
	if version != jascVersion {
		return nil, texerr.Errorf(texerr.InvalidFileHeader, op, "version %q", version)
	}
	count, err := word()
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(count)
	if err != nil || n <= 0 {
		return nil, texerr.Errorf(texerr.InvalidFileHeader, op, "entry count %q", count)
	}

	// counts past MaxEntries load; SaveJasc is what enforces the cap
	data := make([]byte, 0, min(n, MaxEntries)*3)
	for len(data) < n*3 {
		w, err := word()
		if err != nil {
			return nil, err
		}
		if w == "" {
			// blank line between entries
			continue
		}
		v, err := strconv.Atoi(w)
		if err != nil || v < 0 || v > 255 {
			return nil, texerr.Errorf(texerr.IllegalFileValue, op, "component %q at entry %d", w, len(data)/3)
		}
		data = append(data, byte(v))
	}
	return &Palette{Data: data, Layout: RGB24}, nil
}

// SaveJasc writes p as a 256-entry Jasc palette. Entries past p.Len() are
// written as "0 0 0". p itself is left untouched: conversion to RGB24 happens
// on a copy.
func SaveJasc(w io.Writer, p *Palette) error {
	const op = "palette.SaveJasc"
	rgb, err := toRGB24(op, p)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\r\n%s\r\n%d\r\n", jascMagic, jascVersion, MaxEntries)
	for i := 0; i < MaxEntries; i++ {
		if i*3+2 < len(rgb.Data) {
			fmt.Fprintf(bw, "%d %d %d\r\n", rgb.Data[i*3], rgb.Data[i*3+1], rgb.Data[i*3+2])
		} else {
			bw.WriteString("0 0 0\r\n")
		}
	}
	if err := bw.Flush(); err != nil {
		return texerr.New(texerr.ShortWrite, op, err)
	}
	return nil
}

// toRGB24 returns p or a converted copy, checking the 256 entry limit.
func toRGB24(op string, p *Palette) (*Palette, error) {
	if p.IsEmpty() {
		return nil, texerr.Errorf(texerr.IllegalOperation, op, "no palette")
	}
	if p.Len() > MaxEntries {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "%d entries exceeds %d", p.Len(), MaxEntries)
	}
	if p.Layout == RGB24 {
		return p, nil
	}
	return Convert(p, RGB24)
}
