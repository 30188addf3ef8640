package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/jpfielding/texkit.go/pkg/compress/dxt"
	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// NewPreviewCmd decodes a DDS file written by compress back to an image
func NewPreviewCmd(ctx context.Context, rep *texerr.Reporter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "decode a DXT DDS file to PNG or BMP",
		Long:  "decode a DXT1/DXT3/DXT5 DDS file, plain or zstd-wrapped, to PNG, or BMP with --bmp",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			asBMP, _ := cmd.Flags().GetBool("bmp")

			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			br := bufio.NewReader(f)
			var r io.Reader = br
			if magic, _ := br.Peek(len(zstdMagic)); bytes.Equal(magic, zstdMagic) {
				dec, err := zstd.NewReader(br)
				if err != nil {
					return err
				}
				defer dec.Close()
				r = dec
			}

			buf, err := dxt.ReadDDS(r)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", in, rep.Report(err))
			}
			m, err := dxt.Decode(buf.Format, buf.Width, buf.Height, buf.Data)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", in, rep.Report(err))
			}
			slog.InfoContext(ctx, "previewed", "in", in, "format", buf.Format, "width", buf.Width, "height", buf.Height)

			if asBMP || strings.EqualFold(filepath.Ext(out), ".bmp") {
				return saveBMP(out, m)
			}
			return imgio.Save(out, m, imgio.PNGEncoder())
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "DDS file, optionally zstd-compressed")
	pf.StringP("out", "o", "", "output image")
	pf.Bool("bmp", false, "write BMP instead of PNG")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}
