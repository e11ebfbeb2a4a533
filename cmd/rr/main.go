package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/toasterbag/rr/internal/config"
	"github.com/toasterbag/rr/internal/engine"
	"github.com/toasterbag/rr/internal/sizefmt"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// sizeValue is a pflag.Value that accepts human-readable sizes
// ("4096", "64K", "1M") and stores the byte count.
type sizeValue struct {
	n *int64
}

func (s *sizeValue) String() string {
	if s.n == nil {
		return ""
	}
	return strconv.FormatInt(*s.n, 10)
}

func (s *sizeValue) Set(val string) error {
	n, err := sizefmt.Parse(val)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("size must be positive, got %q", val)
	}
	*s.n = n
	return nil
}

func (*sizeValue) Type() string { return "size" }

var _ pflag.Value = (*sizeValue)(nil)

//nolint:gocyclo // main CLI entry point orchestrates flag parsing and wiring
func run() int {
	var (
		input        string
		output       string
		blockSize    int64 = 1 << 20
		count        int64
		syncProgress bool
		bwLimit      int64
		verbose      bool
		quiet        bool
		showVersion  bool
	)

	rootCmd := &cobra.Command{
		Use:   "rr --input <file> --output <file>",
		Short: "Block copy with write and flush progress",
		Long: `rr copies a file in fixed-size blocks, reporting throughput while the
data goes to the OS buffer and, with --sync-progress, while the kernel
flushes it to stable storage.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if showVersion {
				return nil
			}
			if input == "" || output == "" {
				return errors.New("--input and --output are required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "rr %s\n", version)
				return nil
			}

			// Configure logging before anything that can warn.
			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			} else if quiet {
				logLevel = slog.LevelWarn
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			}))
			slog.SetDefault(logger)

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}

			// Apply config defaults for flags not explicitly set on CLI.
			if err := applyConfigDefaults(cmd, cfg.Defaults,
				&blockSize, &count, &syncProgress, &bwLimit); err != nil {
				return err
			}

			if count < 0 {
				return fmt.Errorf("--count must be non-negative, got %d", count)
			}

			res, err := engine.Run(context.Background(), engine.Config{
				Input:        input,
				Output:       output,
				BlockSize:    int(blockSize),
				Count:        count,
				SyncProgress: syncProgress,
				BWLimit:      bwLimit,
				Quiet:        quiet,
				IsTTY:        term.IsTerminal(int(os.Stdout.Fd())),
			})
			if err != nil {
				if errors.Is(err, engine.ErrDestIsDir) {
					fmt.Fprintln(os.Stdout, "The output file is a directory. Aborting")
					return &exitError{code: 2}
				}
				slog.Error("copy failed", "error", err)
				return &exitError{code: 2}
			}

			slog.Debug("run complete",
				"written", sizefmt.FormatBytes(int64(res.BytesWritten)), //nolint:gosec // G115: bounded by file size
				"elapsed", res.Elapsed,
			)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&input, "input", "", "source file to copy from")
	rootCmd.Flags().StringVar(&output, "output", "", "destination file to copy to (created if absent)")
	rootCmd.Flags().Var(&sizeValue{n: &blockSize}, "blocksize", "read/write chunk size (e.g. 4096, 64K, 1M)")
	rootCmd.Flags().Int64Var(&count, "count", 0, "max number of blocks to copy (default: until EOF)")
	rootCmd.Flags().BoolVar(&syncProgress, "sync-progress", false,
		"estimate flush progress from kernel dirty page accounting (Linux)")
	rootCmd.Flags().Var(&sizeValue{n: &bwLimit}, "bwlimit", "bandwidth limit (e.g. 100M, 1G)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress lines")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not
// explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	blockSize *int64,
	count *int64,
	syncProgress *bool,
	bwLimit *int64,
) error {
	if !cmd.Flags().Changed("blocksize") && defaults.BlockSize != nil {
		n, err := sizefmt.Parse(*defaults.BlockSize)
		if err != nil {
			return fmt.Errorf("config blocksize: %w", err)
		}
		*blockSize = n
	}
	if !cmd.Flags().Changed("count") && defaults.Count != nil {
		*count = *defaults.Count
	}
	if !cmd.Flags().Changed("sync-progress") && defaults.SyncProgress != nil {
		*syncProgress = *defaults.SyncProgress
	}
	if !cmd.Flags().Changed("bwlimit") && defaults.BWLimit != nil {
		n, err := sizefmt.Parse(*defaults.BWLimit)
		if err != nil {
			return fmt.Errorf("config bwlimit: %w", err)
		}
		*bwLimit = n
	}
	return nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
