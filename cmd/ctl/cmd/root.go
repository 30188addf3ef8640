package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/texkit.go/pkg/logging"
	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/spf13/cobra"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var logFile io.Closer
	rep := &texerr.Reporter{}
	cmd := &cobra.Command{
		Use:          "texctl",
		Short:        "a CLI to convert palettes, decode patches and compress textures",
		Long:         "texctl reads and writes palette files, decodes Doom patches and flats, and compresses images to DXT/DDS",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logJSON, _ := cmd.Flags().GetBool("log-json")
			logPath, _ := cmd.Flags().GetString("log-file")

			// Parse log level
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			var w io.Writer = os.Stderr
			if logPath != "" {
				fw := logging.FileWriter(logPath, 10, 3)
				logFile = fw
				w = fw
			}
			slog.SetDefault(logging.Logger(w, logJSON, level))

			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", err)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewPaletteCmd(ctx, rep),
		NewDecodeCmd(ctx, rep),
		NewCompressCmd(ctx, rep),
		NewPreviewCmd(ctx, rep),
		NewQuantizeCmd(ctx),
		NewCacheCmd(ctx),
	)
	logFailures(ctx, cmd, rep)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.Bool("log-json", false, "Log as JSON")
	pf.String("log-file", "", "Log to a rotated file instead of stderr")
	return cmd
}

// logFailures wraps every RunE below cmd so a failure is logged with the
// error kind the packages recorded on rep.
func logFailures(ctx context.Context, cmd *cobra.Command, rep *texerr.Reporter) {
	for _, c := range cmd.Commands() {
		logFailures(ctx, c, rep)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err == nil {
			return nil
		}
		kind := rep.Last()
		if kind == texerr.Unknown {
			rep.Report(err)
			kind = rep.Last()
		}
		slog.ErrorContext(ctx, "command failed",
			"cmd", cmd.CommandPath(),
			"kind", kind.String(),
			"failures", rep.Count(),
			"error", err)
		return err
	}
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}
