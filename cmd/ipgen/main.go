// Binary ipgen writes a file of random IPv4 addresses, one per line, no
// larger than the requested size.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/dustin/go-humanize"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pkg.jsn.cam/ipgen/internal/budget"
	"pkg.jsn.cam/ipgen/internal/emit"
	"pkg.jsn.cam/ipgen/internal/generator"
)

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, &budget.ConfigError{Err: errors.Wrap(err, "log level")}
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}

func version() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &budget.ConfigError{Err: err}
	}
	return nil
}

func generate(cmd *cobra.Command, f *flags, p *profiler) error {
	var cfg config
	if f.config != "" {
		fileCfg, err := readConfig(f.config)
		if err != nil {
			return &budget.ConfigError{Err: errors.Wrap(err, "read config")}
		}
		cfg = fileCfg
	}
	cfg = f.apply(cmd.Flags(), cfg)
	cfg.setDefaults()

	maxBytes, err := cfg.validate()
	if err != nil {
		return err
	}
	lg, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	opts := emit.Options{Logger: lg}
	if cfg.Seed != nil {
		opts.Rand = generator.NewRand(*cfg.Seed)
		lg.Debug("Using fixed seed", zap.Uint64("seed", *cfg.Seed))
	}
	if cfg.Progress {
		opts.Progress = cmd.ErrOrStderr()
	}

	gen := new(generator.IPv4Generator)
	lg.Debug("Generator", zap.String("format", gen.Description()))

	return p.run(func() error {
		res, err := emit.New(gen, opts).Emit(cfg.File, maxBytes)
		if err != nil {
			return errors.Wrap(err, "generate")
		}
		lg.Debug("Budget usage",
			zap.String("written", humanize.IBytes(uint64(res.Bytes))),
			zap.String("budget", humanize.IBytes(uint64(res.MaxBytes))),
		)
		return nil
	})
}

func newRootCommand() *cobra.Command {
	var (
		f flags
		p profiler
	)
	cmd := &cobra.Command{
		Use:     "ipgen",
		Short:   "Generate a file with random IPv4 addresses",
		Version: version(),
		Args:    noArgs,

		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd, &f, &p)
		},
	}
	f.register(cmd.Flags(), cmd.PersistentFlags())
	p.register(cmd.PersistentFlags())
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &budget.ConfigError{Err: err}
	})
	cmd.AddCommand(
		newCountCommand(&f.logLevel, &p),
	)
	return cmd
}

func exitCode(err error) int {
	if budget.IsConfigError(err) {
		return 2
	}
	return 1
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(exitCode(err))
	}
}
