package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jpfielding/texkit.go/pkg/palette"
	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/spf13/cobra"
)

func NewPaletteCmd(ctx context.Context, rep *texerr.Reporter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "palette file tools",
		Long:  "load, convert and save palettes (" + strings.Join(palette.Names(), ", ") + ")",
	}
	cmd.AddCommand(
		newPaletteConvertCmd(ctx, rep),
		newPaletteInfoCmd(ctx),
	)
	return cmd
}

func loadPalette(path, codec string) (*palette.Palette, error) {
	if codec == "" {
		return palette.LoadFile(path)
	}
	c := palette.CodecByName(codec)
	if c == nil {
		return nil, fmt.Errorf("unknown palette codec %q", codec)
	}
	return palette.LoadFileAs(path, c)
}

func newPaletteConvertCmd(ctx context.Context, rep *texerr.Reporter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "convert a palette between file formats and layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			layout, _ := cmd.Flags().GetString("layout")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			p, err := loadPalette(in, from)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", in, err)
			}
			if layout != "" {
				l, err := palette.ParseLayout(layout)
				if err != nil {
					return err
				}
				if p, err = (palette.Converter{Reporter: rep}).Convert(p, l); err != nil {
					return err
				}
			}
			if to == "" {
				err = palette.SaveFile(p, out, overwrite)
			} else if c := palette.CodecByName(to); c != nil {
				err = palette.SaveFileAs(p, out, c, overwrite)
			} else {
				err = fmt.Errorf("unknown palette codec %q", to)
			}
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", out, err)
			}
			slog.InfoContext(ctx, "palette converted", "in", in, "out", out, "entries", p.Len(), "layout", p.Layout)
			return nil
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "input palette file")
	pf.StringP("out", "o", "", "output palette file")
	pf.String("from", "", "input codec, detected from the extension when empty")
	pf.String("to", "", "output codec, detected from the extension when empty")
	pf.String("layout", "", "convert entries to this layout (RGB24, BGR24, RGBA32, ...)")
	pf.Bool("overwrite", false, "replace an existing output file")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

func newPaletteInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "print a palette's layout and entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			from, _ := cmd.Flags().GetString("from")
			entries, _ := cmd.Flags().GetBool("entries")

			p, err := loadPalette(in, from)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", in, err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "layout: %s\nentries: %d\nbytes: %d\n", p.Layout, p.Len(), p.Size())
			if entries {
				for i := range p.Len() {
					c := p.Color(i)
					fmt.Fprintf(w, "%3d: %3d %3d %3d %3d\n", i, c.R, c.G, c.B, c.A)
				}
			}
			return nil
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "input palette file")
	pf.String("from", "", "input codec, detected from the extension when empty")
	pf.Bool("entries", false, "list every entry")
	cmd.MarkFlagRequired("in")
	return cmd
}
