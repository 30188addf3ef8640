package palette

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/jpfielding/texkit.go/pkg/texerr"
)

// Quantize builds an RGB24 palette of at most n colors for img using median
// cut.
func Quantize(img image.Image, n int) (*Palette, error) {
	const op = "palette.Quantize"
	if img == nil || n < 1 || n > MaxEntries {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "color count %d", n)
	}
	if img.Bounds().Empty() {
		return nil, texerr.Errorf(texerr.InvalidParam, op, "empty image")
	}
	q := quantize.MedianCutQuantizer{}
	cp := q.Quantize(make(color.Palette, 0, n), img)

	data := make([]byte, 0, len(cp)*3)
	for _, c := range cp {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		data = append(data, rgba.R, rgba.G, rgba.B)
	}
	return &Palette{Data: data, Layout: RGB24}, nil
}
