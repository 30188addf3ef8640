package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/jpfielding/texkit.go/pkg/compress/doom"
	"github.com/jpfielding/texkit.go/pkg/palette"
	"github.com/jpfielding/texkit.go/pkg/raster"
	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
)

// NewDecodeCmd decodes a Doom patch or flat to PNG or BMP
func NewDecodeCmd(ctx context.Context, rep *texerr.Reporter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode a Doom patch or flat lump",
		Long:  "decode a Doom patch (column runs) or flat (raw 64x64) lump to PNG, or BMP with --bmp",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			flat, _ := cmd.Flags().GetBool("flat")
			palPath, _ := cmd.Flags().GetString("palette")
			playpal, _ := cmd.Flags().GetString("playpal")
			palIndex, _ := cmd.Flags().GetInt("playpal-index")
			rgba, _ := cmd.Flags().GetBool("rgba")
			asBMP, _ := cmd.Flags().GetBool("bmp")

			opts := &doom.Options{ExpandRGBA: rgba, Logger: slog.Default(), Reporter: rep}
			if palPath != "" {
				p, err := loadPalette(palPath, "")
				if err != nil {
					return fmt.Errorf("failed to load palette %s: %w", palPath, err)
				}
				opts.Palette = p
			} else if playpal != "" {
				p, err := loadPlaypal(playpal, palIndex)
				if err != nil {
					return fmt.Errorf("failed to load PLAYPAL %s: %w", playpal, err)
				}
				opts.Palette = p
			}

			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			var img *raster.Image
			if flat {
				img, err = doom.DecodeFlat(f, opts)
			} else {
				img, err = doom.DecodePatch(f, opts)
			}
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", in, err)
			}
			slog.InfoContext(ctx, "decoded", "in", in, "width", img.Width, "height", img.Height, "format", img.Format)

			m, err := img.ToImage()
			if err != nil {
				return err
			}
			if asBMP || strings.EqualFold(filepath.Ext(out), ".bmp") {
				return saveBMP(out, m)
			}
			return imgio.Save(out, m, imgio.PNGEncoder())
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "patch or flat lump")
	pf.StringP("out", "o", "", "output image")
	pf.Bool("flat", false, "input is a raw 64x64 flat")
	pf.String("palette", "", "palette file to use instead of the built-in one")
	pf.String("playpal", "", "PLAYPAL lump to take the palette from")
	pf.Int("playpal-index", 0, "palette within the PLAYPAL lump (0-13)")
	pf.Bool("rgba", false, "expand to RGBA with transparency")
	pf.Bool("bmp", false, "write BMP instead of PNG")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

func loadPlaypal(path string, n int) (*palette.Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return doom.DecodePlaypal(f, n)
}

func saveBMP(path string, m image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
