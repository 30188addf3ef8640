package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/jpfielding/texkit.go/pkg/compress/dxt"
	"github.com/jpfielding/texkit.go/pkg/dispatch"
	"github.com/jpfielding/texkit.go/pkg/sink"
	"github.com/jpfielding/texkit.go/pkg/texcache"
	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/jpfielding/texkit.go/pkg/util"
	"github.com/spf13/cobra"
)

// compressSettings is hashed with the pixels into the cache key.
type compressSettings struct {
	Format    string
	Mode      int
	Threshold uint8
	Refine    bool
	Width     int
	Height    int
}

// NewCompressCmd compresses an image to a DDS file
func NewCompressCmd(ctx context.Context, rep *texerr.Reporter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress",
		Short: "compress an image to DXT",
		Long:  "compress a PNG, JPEG or BMP image to a DXT1/DXT1A/DXT3/DXT5 DDS file, optionally zstd-wrapped and cached",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			formatName, _ := cmd.Flags().GetString("format")
			transparency, _ := cmd.Flags().GetBool("transparency")
			threshold, _ := cmd.Flags().GetUint8("threshold")
			workers, _ := cmd.Flags().GetInt("workers")
			useZstd, _ := cmd.Flags().GetBool("zstd")
			cachePath, _ := cmd.Flags().GetString("cache")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			format, err := dxt.ParseFormat(formatName)
			if err != nil {
				return err
			}
			img, err := imgio.Open(in)
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			src, err := dxt.SourceFromStdImage(img)
			if err != nil {
				return err
			}
			w, h := src.Size()

			opts := dxt.DefaultOptions()
			opts.Format = format
			opts.AlphaThreshold = threshold
			opts.Logger = slog.Default()
			opts.Reporter = rep
			mode := dxt.AlphaNone
			if transparency {
				mode = dxt.AlphaTransparency
			}

			var cache *texcache.DB
			var key string
			if cachePath != "" {
				if cache, err = texcache.Open(cachePath); err != nil {
					return fmt.Errorf("failed to open cache: %w", err)
				}
				defer cache.Close()
				key = util.TextureKey(compressSettings{
					Format:    format.String(),
					Mode:      int(mode),
					Threshold: threshold,
					Refine:    opts.Refine,
					Width:     w,
					Height:    h,
				}, src.(*dxt.RGBASource).Pix)
			}

			var buf *dxt.Buffer
			hit := false
			if cache != nil {
				e, err := cache.Get(key)
				if err != nil {
					return err
				}
				if e != nil {
					slog.InfoContext(ctx, "cache hit", "key", key)
					buf = &dxt.Buffer{Format: format, Width: w, Height: h, Data: e.Data}
					hit = true
				}
			}
			if buf == nil {
				var d dispatch.Dispatcher = dispatch.Sequential{}
				if workers != 1 {
					pool := dispatch.NewParallel(workers)
					defer pool.Close()
					d = pool
				}
				start := time.Now()
				if buf, err = dxt.Encode(mode, w, h, 1, src, d, opts); err != nil {
					return fmt.Errorf("failed to compress %s: %w", in, err)
				}
				slog.InfoContext(ctx, "compressed", "in", in, "format", format, "width", w, "height", h,
					"bytes", len(buf.Data), "elapsed", time.Since(start))
			}

			f, err := sink.CreateFile(out, overwrite)
			if err != nil {
				return err
			}
			defer f.Close()

			var dst io.Writer = f
			var z *sink.Zstd
			if useZstd {
				if z, err = sink.NewZstd(f); err != nil {
					return err
				}
				dst = z
			}
			dds := dxt.NewDDSSink(dst, format)
			targets := sink.Multi{dds}
			var cs *texcache.Sink
			if cache != nil && !hit {
				cs = cache.Sink(key, format.String())
				targets = append(targets, cs)
			}
			if err := dxt.Emit(buf, targets); err != nil {
				return err
			}
			if err := dds.Err(); err != nil {
				return err
			}
			if cs != nil && cs.Err() != nil {
				return fmt.Errorf("failed to cache %s: %w", in, cs.Err())
			}
			if z != nil {
				if err := z.Close(); err != nil {
					return err
				}
			}
			return f.Close()
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "input image (png, jpeg, bmp)")
	pf.StringP("out", "o", "", "output DDS file")
	pf.StringP("format", "f", "dxt1", "dxt1, dxt1a, dxt3 or dxt5")
	pf.Bool("transparency", false, "weight color error by alpha")
	pf.Uint8("threshold", 128, "DXT1A alpha cutoff")
	pf.IntP("workers", "w", 0, "compression workers, 0 for one per CPU, 1 for sequential")
	pf.Bool("zstd", false, "zstd-compress the DDS stream")
	pf.String("cache", "", "sqlite texture cache")
	pf.Bool("overwrite", false, "replace an existing output file")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}
