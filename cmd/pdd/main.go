package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/pdd/internal/config"
	"github.com/bamsammich/pdd/internal/engine"
	"github.com/bamsammich/pdd/internal/platform"
	"github.com/bamsammich/pdd/internal/size"
	"github.com/bamsammich/pdd/internal/stats"
	"github.com/bamsammich/pdd/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options holds every operand and flag after config defaults are applied.
type options struct {
	input     string
	output    string
	blockSize int64
	count     int64
	skip      int64
	seek      int64
	sync      bool
	direct    bool
	fsync     bool
	platform  bool

	verify   bool
	bwLimit  int64
	prealloc bool

	progress   string
	barWidth   int
	interval   time.Duration
	noColor    bool
	logFile    string
	configPath string
	verbose    bool
	debug      bool
	quiet      bool
	version    bool
}

const usageTemplate = `Usage: pdd [OPERAND]... [flags]
Copy a file with progress display.

Operands:
  if=FILE        read from FILE instead of stdin
  of=FILE        write to FILE instead of stdout
  bs=N           read and write N bytes at a time
  count=N        copy only N input blocks
  skip=N         skip N input blocks at start
  seek=N         skip N output blocks at start
  sync           use synchronized I/O for data
  direct         use direct I/O (if supported)
  fsync          perform fsync after each write
  platform       show platform-specific capabilities

Size suffixes: K=1024, M=1024*1024, G=1024*1024*1024, T=1024^4
{{if .HasAvailableLocalFlags}}
Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}`

// exitError carries a process exit status out of cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// execute runs pdd with the given arguments and standard streams and
// returns the process exit status.
func execute(args []string, stdin, stdout *os.File, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdin, stdout *os.File, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pdd [OPERAND]...",
		Short: "Copy a file with progress display",
		Long: "pdd copies data from a file, device or stdin to a file, device or stdout in\n" +
			"fixed-size blocks, like dd, while showing live progress.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, args, opts, stdin, stdout, stderr)
		},
	}
	cmd.SetUsageTemplate(usageTemplate)

	fs := cmd.Flags()
	fs.StringVar(&opts.input, "if", engine.StdStream, "read from FILE instead of stdin")
	fs.StringVar(&opts.output, "of", engine.StdStream, "write to FILE instead of stdout")
	fs.Var(newSizeValue(&opts.blockSize, engine.AutoBlockSize), "bs",
		"read and write N bytes at a time (default: device sector size, else 128K)")
	fs.Var(newSizeValue(&opts.count, 0), "count", "copy only N input blocks")
	fs.Var(newSizeValue(&opts.skip, 0), "skip", "skip N input blocks at start")
	fs.Var(newSizeValue(&opts.seek, 0), "seek", "skip N output blocks at start")
	fs.BoolVar(&opts.sync, "sync", false, "use synchronized I/O for data")
	fs.BoolVar(&opts.direct, "direct", false, "use direct I/O (if supported)")
	fs.BoolVar(&opts.fsync, "fsync", false, "perform fsync after each write")
	fs.BoolVar(&opts.platform, "platform", false, "show platform-specific capabilities and exit")

	fs.BoolVar(&opts.verify, "verify", false, "verify the copied range with BLAKE3 after the copy")
	fs.Var(newSizeValue(&opts.bwLimit, 0), "bwlimit", "limit throughput to N bytes/sec (e.g. 50M)")
	fs.BoolVar(&opts.prealloc, "prealloc", false, "preallocate the output range before copying")
	fs.StringVar(&opts.progress, "progress", "auto", "progress display: auto, bar, plain or none")
	fs.IntVar(&opts.barWidth, "bar-width", ui.DefaultBarWidth, "progress bar width in cells")
	fs.DurationVar(&opts.interval, "interval", ui.DefaultInterval, "progress refresh interval")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable colored diagnostics")
	fs.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE (rotated)")
	fs.StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/pdd/config.toml)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVar(&opts.debug, "debug", false, "debug output")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress and summary")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	cmd.AddCommand(newDocsCmd())
	return cmd
}

//nolint:gocyclo,revive // CLI entry point orchestrates config, logging and reporting
func runCopy(cmd *cobra.Command, args []string, opts *options, stdin, stdout *os.File, stderr io.Writer) error {
	if opts.version {
		fmt.Fprintf(stdout, "pdd %s\n", version)
		return nil
	}

	if err := applyOperands(cmd.Flags(), args); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
		return &exitError{code: 1}
	}

	if opts.platform {
		platform.Describe(platform.Current()).Write(stdout)
		return nil
	}

	stderrTTY := false
	if f, ok := stderr.(*os.File); ok {
		stderrTTY = ui.IsTTY(f.Fd())
	}

	cfgFile, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "warning: failed to load config: %v\n", err)
	}
	if err := applyConfigDefaults(cmd, cfgFile.Defaults, opts); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return &exitError{code: 1}
	}

	closeLog := setupLogging(stderr, logLevel(opts.verbose, opts.debug, opts.quiet), opts.logFile)
	defer closeLog()

	reporter := ui.NewReporter(stderr, stderrTTY && !opts.noColor)

	if len(args) == 0 && cmd.Flags().NFlag() == 0 {
		fmt.Fprint(stderr, cmd.UsageString())
		fmt.Fprint(stderr, "\nNo options specified, will copy stdin to stdout with default settings.\n\n")
	}

	mode, err := ui.ParseMode(opts.progress)
	if err != nil {
		reporter.Error(err)
		return &exitError{code: 1}
	}
	if opts.quiet {
		mode = ui.ModeNone
	}

	barWidth := opts.barWidth
	if f, ok := stderr.(*os.File); ok && stderrTTY {
		barWidth = ui.FitBarWidth(barWidth, ui.TermWidth(f.Fd()))
	}

	collector := stats.NewCollector()
	engineCfg := engine.Config{
		Input:       opts.input,
		Output:      opts.output,
		BlockSize:   opts.blockSize,
		Count:       opts.count,
		Skip:        opts.skip,
		Seek:        opts.seek,
		Direct:      opts.direct,
		Sync:        opts.sync,
		Fsync:       opts.fsync,
		Verify:      opts.verify,
		BWLimit:     opts.bwLimit,
		Preallocate: opts.prealloc,
		Stats:       collector,
		Stdin:       stdin,
		Stdout:      stdout,
		Monitor: ui.NewMonitor(ui.Config{
			Writer:   stderr,
			Mode:     mode,
			IsTTY:    stderrTTY,
			BarWidth: barWidth,
			Interval: opts.interval,
		}),
	}

	// Hooked before Normalize so an interrupted direct-I/O probe still
	// removes its temp file.
	ctx, stop := notifyContext(context.Background())
	defer stop()

	warnings, err := engineCfg.Validate()
	if err != nil {
		reporter.Error(err)
		return &exitError{code: 1}
	}
	for _, w := range warnings {
		reporter.Warn(w)
	}
	engineCfg, warnings = engineCfg.Normalize()
	for _, w := range warnings {
		reporter.Warn(w)
	}

	slog.Debug("starting copy",
		"if", engineCfg.Input,
		"of", engineCfg.Output,
		"bs", engineCfg.BlockSize,
		"count", engineCfg.Count,
		"skip", engineCfg.Skip,
		"seek", engineCfg.Seek,
		"direct", engineCfg.Direct,
	)

	result := engine.Run(ctx, engineCfg)

	if result.Err != nil {
		reporter.Error(result.Err)
		return &exitError{code: 1}
	}
	if result.Cancelled {
		slog.Warn("copy interrupted", "blocks", result.Stats.Blocks)
	}
	if result.Verified {
		slog.Info("verified", "bytes", result.Stats.Bytes)
	}
	if opts.seek > 0 && result.GapHoles > 0 {
		slog.Info("seek gap left sparse", "bytes", result.GapHoles)
	}
	if !opts.quiet {
		reporter.Summary(result.Stats)
	}
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the command line.
//
//nolint:gocyclo // one branch per key
func applyConfigDefaults(cmd *cobra.Command, d config.DefaultsConfig, opts *options) error {
	changed := cmd.Flags().Changed

	if !changed("bs") && d.BlockSize != nil {
		n, err := size.Parse(*d.BlockSize)
		if err != nil {
			return fmt.Errorf("config: invalid bs %q: %w", *d.BlockSize, err)
		}
		opts.blockSize = n
	}
	if !changed("bwlimit") && d.BWLimit != nil {
		n, err := size.Parse(*d.BWLimit)
		if err != nil {
			return fmt.Errorf("config: invalid bwlimit %q: %w", *d.BWLimit, err)
		}
		opts.bwLimit = n
	}
	if !changed("direct") && d.Direct != nil {
		opts.direct = *d.Direct
	}
	if !changed("sync") && d.Sync != nil {
		opts.sync = *d.Sync
	}
	if !changed("fsync") && d.Fsync != nil {
		opts.fsync = *d.Fsync
	}
	if !changed("verify") && d.Verify != nil {
		opts.verify = *d.Verify
	}
	if !changed("prealloc") && d.Prealloc != nil {
		opts.prealloc = *d.Prealloc
	}
	if !changed("progress") && d.Progress != nil {
		opts.progress = *d.Progress
	}
	if !changed("bar-width") && d.BarWidth != nil {
		opts.barWidth = *d.BarWidth
	}
	if !changed("interval") && d.Interval != nil {
		opts.interval = d.Interval.Duration
	}
	if !changed("no-color") && d.Color != nil {
		opts.noColor = !*d.Color
	}
	if !changed("log") && d.Log != nil {
		opts.logFile = *d.Log
	}
	return nil
}
