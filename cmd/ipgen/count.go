package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"pkg.jsn.cam/ipgen/internal/budget"
	"pkg.jsn.cam/ipgen/internal/ipstore"
)

var errNoInput = errors.New("input file is required")

func newCountCommand(logLevel *string, p *profiler) *cobra.Command {
	var arg struct {
		File        string
		Progress    bool
		SkipInvalid bool
	}
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count distinct IPv4 addresses in a file",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if arg.File == "" {
				return &budget.ConfigError{Err: errNoInput}
			}
			lg, err := newLogger(*logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()

			opts := ipstore.CountOptions{
				Logger:      lg,
				SkipInvalid: arg.SkipInvalid,
			}
			if arg.Progress {
				opts.Progress = cmd.ErrOrStderr()
			}
			return p.run(func() error {
				res, err := ipstore.CountFile(arg.File, opts)
				if err != nil {
					return errors.Wrap(err, "count")
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.String())
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "took %v\n", res.Duration)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&arg.File, "file", "f", "", "input file")
	cmd.Flags().BoolVar(&arg.Progress, "progress", false, "show a progress bar on stderr")
	cmd.Flags().BoolVar(&arg.SkipInvalid, "skip-invalid", false, "skip lines that are not IPv4 addresses")
	return cmd
}
