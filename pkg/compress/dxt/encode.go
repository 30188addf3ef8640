package dxt

import (
	"encoding/binary"
	"math"
)

// block is one gathered 4x4 tile. Colors are on a 0..255 scale; texels
// outside the image have zero color, zero weight and inside=false.
type block struct {
	px     [16][4]float32
	w      [16]float32
	inside [16]bool
}

func gather(src PixelSource, width, height, bx, by int, mode AlphaMode) *block {
	var b block
	for ty := range 4 {
		for tx := range 4 {
			x, y := bx*4+tx, by*4+ty
			if x >= width || y >= height {
				continue
			}
			i := ty*4 + tx
			t := src.Texel(x, y)
			for c := range 4 {
				b.px[i][c] = t[c] * 255
			}
			b.inside[i] = true
			b.w[i] = 1
			if mode == AlphaTransparency {
				b.w[i] = t[3]
			}
		}
	}
	return &b
}

func alpha8(v float32) int {
	return int(v + 0.5)
}

// encodeBlock writes one block of format f into dst.
func encodeBlock(dst []byte, b *block, f Format, opts *Options) {
	switch f {
	case DXT1:
		encodeColor(dst, b, false, nil, opts.Refine)
	case DXT1A:
		var transparent [16]bool
		hasTransparent := false
		for i := range 16 {
			if b.inside[i] && alpha8(b.px[i][3]) < int(opts.AlphaThreshold) {
				transparent[i] = true
				hasTransparent = true
			}
		}
		if hasTransparent {
			encodeColor(dst, b, true, &transparent, opts.Refine)
		} else {
			encodeColor(dst, b, false, nil, opts.Refine)
		}
	case DXT3:
		encodeExplicitAlpha(dst[:8], b)
		encodeColor(dst[8:], b, false, nil, opts.Refine)
	case DXT5:
		encodeInterpolatedAlpha(dst[:8], b)
		encodeColor(dst[8:], b, false, nil, opts.Refine)
	}
}

// encodeColor fits two 565 endpoints along the principal axis of the
// weighted colors and picks the nearest palette entry per texel. In
// three-color mode transparent texels take index 3.
func encodeColor(dst []byte, b *block, threeColor bool, transparent *[16]bool, refine bool) {
	skip := func(i int) bool {
		return transparent != nil && transparent[i]
	}

	var sw float32
	var mean [3]float32
	for i := range 16 {
		if b.w[i] <= 0 || skip(i) {
			continue
		}
		sw += b.w[i]
		for c := range 3 {
			mean[c] += b.w[i] * b.px[i][c]
		}
	}
	if sw == 0 {
		var idx uint32
		if threeColor {
			for i := range 16 {
				if skip(i) {
					idx |= 3 << (2 * i)
				}
			}
		}
		putColorBlock(dst, 0, 0, idx)
		return
	}
	for c := range 3 {
		mean[c] /= sw
	}

	axis := principalAxis(b, mean, skip)
	lo, hi := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for i := range 16 {
		if b.w[i] <= 0 || skip(i) {
			continue
		}
		p := dot3(sub3(b.px[i], mean), axis)
		lo = min(lo, p)
		hi = max(hi, p)
	}
	e0 := to565(add3(mean, scale3(axis, hi)))
	e1 := to565(add3(mean, scale3(axis, lo)))

	c0, c1, idx, err := chooseIndices(b, e0, e1, threeColor, transparent)
	if refine && c0 != c1 {
		r0, r1, ok := refit(b, idx, threeColor, skip)
		if ok {
			n0, n1, nidx, nerr := chooseIndices(b, r0, r1, threeColor, transparent)
			if nerr < err {
				c0, c1, idx = n0, n1, nidx
			}
		}
	}
	putColorBlock(dst, c0, c1, idx)
}

// principalAxis runs a few rounds of power iteration on the weighted
// covariance matrix and returns a unit vector, or zero for a flat block.
func principalAxis(b *block, mean [3]float32, skip func(int) bool) [3]float32 {
	var xx, xy, xz, yy, yz, zz float32
	for i := range 16 {
		if b.w[i] <= 0 || skip(i) {
			continue
		}
		d := sub3(b.px[i], mean)
		w := b.w[i]
		xx += w * d[0] * d[0]
		xy += w * d[0] * d[1]
		xz += w * d[0] * d[2]
		yy += w * d[1] * d[1]
		yz += w * d[1] * d[2]
		zz += w * d[2] * d[2]
	}
	v := [3]float32{1, 1, 1}
	for range 8 {
		v = [3]float32{
			xx*v[0] + xy*v[1] + xz*v[2],
			xy*v[0] + yy*v[1] + yz*v[2],
			xz*v[0] + yz*v[1] + zz*v[2],
		}
		m := max(abs32(v[0]), abs32(v[1]), abs32(v[2]))
		if m == 0 {
			return [3]float32{}
		}
		v = scale3(v, 1/m)
	}
	n := float32(math.Sqrt(float64(dot3(v, v))))
	if n == 0 {
		return [3]float32{}
	}
	return scale3(v, 1/n)
}

// chooseIndices orders the endpoints for the requested mode and assigns
// every texel its nearest palette entry. It returns the weighted error.
func chooseIndices(b *block, c0, c1 uint16, threeColor bool, transparent *[16]bool) (uint16, uint16, uint32, float32) {
	switch {
	case threeColor && c0 > c1:
		c0, c1 = c1, c0
	case !threeColor && c0 < c1:
		c0, c1 = c1, c0
	}

	var idx uint32
	var total float32
	if !threeColor && c0 == c1 {
		// four-color mode needs c0 > c1; a single color uses index 0 only
		pal := colorPalette(c0, c1, false)
		for i := range 16 {
			total += b.w[i] * dist(b.px[i], pal[0])
		}
		return c0, c1, 0, total
	}

	pal := colorPalette(c0, c1, !threeColor)
	entries := 4
	if threeColor {
		entries = 3
	}
	for i := range 16 {
		if transparent != nil && transparent[i] {
			idx |= 3 << (2 * i)
			continue
		}
		best, bestD := 0, float32(math.MaxFloat32)
		for k := range entries {
			if d := dist(b.px[i], pal[k]); d < bestD {
				best, bestD = k, d
			}
		}
		idx |= uint32(best) << (2 * i)
		total += b.w[i] * bestD
	}
	return c0, c1, idx, total
}

// refit solves the weighted least-squares problem for both endpoints given
// the current index assignment.
func refit(b *block, idx uint32, threeColor bool, skip func(int) bool) (uint16, uint16, bool) {
	frac := [4]float32{1, 0, 2.0 / 3, 1.0 / 3}
	if threeColor {
		frac = [4]float32{1, 0, 0.5, 0}
	}
	var aa, bb, ab float32
	var ax, bx [3]float32
	for i := range 16 {
		k := (idx >> (2 * i)) & 3
		if b.w[i] <= 0 || skip(i) || (threeColor && k == 3) {
			continue
		}
		w := b.w[i]
		a := frac[k]
		c := 1 - a
		aa += w * a * a
		bb += w * c * c
		ab += w * a * c
		for ch := range 3 {
			ax[ch] += w * a * b.px[i][ch]
			bx[ch] += w * c * b.px[i][ch]
		}
	}
	det := aa*bb - ab*ab
	if abs32(det) < 1e-6 {
		return 0, 0, false
	}
	var e0, e1 [3]float32
	for ch := range 3 {
		e0[ch] = (ax[ch]*bb - bx[ch]*ab) / det
		e1[ch] = (bx[ch]*aa - ax[ch]*ab) / det
	}
	return to565(e0), to565(e1), true
}

func putColorBlock(dst []byte, c0, c1 uint16, idx uint32) {
	binary.LittleEndian.PutUint16(dst[0:], c0)
	binary.LittleEndian.PutUint16(dst[2:], c1)
	binary.LittleEndian.PutUint32(dst[4:], idx)
}

// encodeExplicitAlpha stores 4 bits of alpha per texel, texel 0 in the low
// nibble.
func encodeExplicitAlpha(dst []byte, b *block) {
	var bits uint64
	for i := range 16 {
		if !b.inside[i] {
			continue
		}
		a := uint64((alpha8(b.px[i][3])*15 + 127) / 255)
		bits |= a << (4 * i)
	}
	binary.LittleEndian.PutUint64(dst, bits)
}

// encodeInterpolatedAlpha uses the block's alpha extremes as endpoints in
// eight-value mode and a 3-bit index per texel.
func encodeInterpolatedAlpha(dst []byte, b *block) {
	a0, a1 := 0, 255
	seen := false
	for i := range 16 {
		if !b.inside[i] {
			continue
		}
		a := alpha8(b.px[i][3])
		if !seen {
			a0, a1, seen = a, a, true
			continue
		}
		a0 = max(a0, a)
		a1 = min(a1, a)
	}
	if !seen {
		a0, a1 = 0, 0
	}
	dst[0], dst[1] = byte(a0), byte(a1)

	var bits uint64
	if a0 != a1 {
		pal := alphaPalette(byte(a0), byte(a1))
		for i := range 16 {
			if !b.inside[i] {
				continue
			}
			a := alpha8(b.px[i][3])
			best, bestD := 0, 1<<30
			for k, v := range pal {
				d := a - int(v)
				if d < 0 {
					d = -d
				}
				if d < bestD {
					best, bestD = k, d
				}
			}
			bits |= uint64(best) << (3 * i)
		}
	}
	for j := range 6 {
		dst[2+j] = byte(bits >> (8 * j))
	}
}

func to565(c [3]float32) uint16 {
	q := func(v float32, levels float32) uint16 {
		v = min(max(v, 0), 255)
		return uint16(v/255*levels + 0.5)
	}
	return q(c[0], 31)<<11 | q(c[1], 63)<<5 | q(c[2], 31)
}

func dist(p [4]float32, c [3]float32) float32 {
	dr, dg, db := p[0]-c[0], p[1]-c[1], p[2]-c[2]
	return dr*dr + dg*dg + db*db
}

func sub3(p [4]float32, m [3]float32) [3]float32 {
	return [3]float32{p[0] - m[0], p[1] - m[1], p[2] - m[2]}
}

func add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func scale3(a [3]float32, s float32) [3]float32 {
	return [3]float32{a[0] * s, a[1] * s, a[2] * s}
}

func dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
