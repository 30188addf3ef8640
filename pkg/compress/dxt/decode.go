package dxt

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/jpfielding/texkit.go/pkg/texerr"
)

func expand565(c uint16) (r, g, b int) {
	r = int(c>>11) & 0x1f
	g = int(c>>5) & 0x3f
	b = int(c) & 0x1f
	return r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2
}

// colorPalette derives the four block colors. Entry 3 is transparent black
// in three-color mode.
func colorPalette(c0, c1 uint16, fourColor bool) [4][3]float32 {
	r0, g0, b0 := expand565(c0)
	r1, g1, b1 := expand565(c1)
	var p [4][3]float32
	p[0] = [3]float32{float32(r0), float32(g0), float32(b0)}
	p[1] = [3]float32{float32(r1), float32(g1), float32(b1)}
	if fourColor {
		p[2] = [3]float32{float32((2*r0 + r1) / 3), float32((2*g0 + g1) / 3), float32((2*b0 + b1) / 3)}
		p[3] = [3]float32{float32((r0 + 2*r1) / 3), float32((g0 + 2*g1) / 3), float32((b0 + 2*b1) / 3)}
	} else {
		p[2] = [3]float32{float32((r0 + r1) / 2), float32((g0 + g1) / 2), float32((b0 + b1) / 2)}
	}
	return p
}

// alphaPalette is the eight-value ramp for a0 > a1 and the six-value ramp
// plus 0 and 255 otherwise.
func alphaPalette(a0, a1 byte) [8]byte {
	x, y := int(a0), int(a1)
	p := [8]byte{a0, a1}
	if x > y {
		for i := 1; i <= 6; i++ {
			p[i+1] = byte(((7-i)*x + i*y) / 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			p[i+1] = byte(((5-i)*x + i*y) / 5)
		}
		p[6], p[7] = 0, 255
	}
	return p
}

// DecodeBlock expands one block to 16 texels in row-major order. DXT3 and
// DXT5 color blocks are always read in four-color mode.
func DecodeBlock(f Format, src []byte) ([16]color.NRGBA, error) {
	var out [16]color.NRGBA
	if len(src) < f.BlockSize() {
		return out, texerr.Errorf(texerr.ShortRead, "dxt.DecodeBlock", "%d bytes, want %d", len(src), f.BlockSize())
	}
	cb := src
	if f == DXT3 || f == DXT5 {
		cb = src[8:]
	}
	c0 := binary.LittleEndian.Uint16(cb[0:])
	c1 := binary.LittleEndian.Uint16(cb[2:])
	idx := binary.LittleEndian.Uint32(cb[4:])
	fourColor := c0 > c1 || f == DXT3 || f == DXT5
	pal := colorPalette(c0, c1, fourColor)

	for i := range 16 {
		k := (idx >> (2 * i)) & 3
		p := pal[k]
		out[i] = color.NRGBA{R: uint8(p[0]), G: uint8(p[1]), B: uint8(p[2]), A: 0xff}
		if !fourColor && k == 3 {
			out[i] = color.NRGBA{}
		}
	}

	switch f {
	case DXT3:
		bits := binary.LittleEndian.Uint64(src)
		for i := range 16 {
			a := uint8(bits>>(4*i)) & 0xf
			out[i].A = a<<4 | a
		}
	case DXT5:
		ap := alphaPalette(src[0], src[1])
		var bits uint64
		for j := range 6 {
			bits |= uint64(src[2+j]) << (8 * j)
		}
		for i := range 16 {
			out[i].A = ap[(bits>>(3*i))&7]
		}
	}
	return out, nil
}

// Decode expands a whole block buffer back to an image, clipping the padding
// of partial edge blocks.
func Decode(f Format, width, height int, data []byte) (*image.NRGBA, error) {
	const op = "dxt.Decode"
	if width <= 0 || height <= 0 {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "dimensions %dx%d", width, height)
	}
	bw, bh := (width+3)/4, (height+3)/4
	bs := f.BlockSize()
	if len(data) < bw*bh*bs {
		return nil, texerr.Errorf(texerr.ShortRead, op, "%d bytes, want %d", len(data), bw*bh*bs)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for by := range bh {
		for bx := range bw {
			i := by*bw + bx
			texels, err := DecodeBlock(f, data[i*bs:(i+1)*bs])
			if err != nil {
				return nil, err
			}
			for t, c := range texels {
				x, y := bx*4+t%4, by*4+t/4
				if x < width && y < height {
					img.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return img, nil
}
