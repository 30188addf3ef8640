package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/jpfielding/texkit.go/pkg/palette"
	"github.com/jpfielding/texkit.go/pkg/texcache"
	"github.com/spf13/cobra"
)

// NewQuantizeCmd derives a palette from an image
func NewQuantizeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quantize",
		Short: "build a palette from an image with median cut",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			colors, _ := cmd.Flags().GetInt("colors")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			img, err := imgio.Open(in)
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			p, err := palette.Quantize(img, colors)
			if err != nil {
				return err
			}
			if err := palette.SaveFile(p, out, overwrite); err != nil {
				return fmt.Errorf("failed to save %s: %w", out, err)
			}
			slog.InfoContext(ctx, "palette written", "out", out, "entries", p.Len())
			return nil
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "input image")
	pf.StringP("out", "o", "", "output palette file (.pal, .act, .plt, .col)")
	pf.IntP("colors", "n", palette.MaxEntries, "maximum palette entries")
	pf.Bool("overwrite", false, "replace an existing output file")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

// NewCacheCmd inspects a texture cache
func NewCacheCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "texture cache tools",
	}
	stats := &cobra.Command{
		Use:   "stats",
		Short: "summarize a texture cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			db, err := texcache.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()
			s, err := db.Stats()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "entries: %d\nstored bytes: %d\n", s.Entries, s.Stored)
			if s.Entries > 0 {
				fmt.Fprintf(w, "oldest: %s\n", time.Unix(s.OldestUnix, 0).UTC().Format(time.RFC3339))
			}
			for f, n := range s.ByFormat {
				fmt.Fprintf(w, "  %s: %d\n", f, n)
			}
			return nil
		},
	}
	stats.Flags().String("db", "", "sqlite texture cache")
	stats.MarkFlagRequired("db")
	cmd.AddCommand(stats)
	return cmd
}
