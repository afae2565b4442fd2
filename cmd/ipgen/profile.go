package main

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/go-faster/errors"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

const (
	flagCPUProfile  = "cpuprofile"
	flagHeapProfile = "heapprofile"
)

// profiler writes optional CPU and heap profiles around a command.
type profiler struct {
	cpu  string
	heap string
}

func (p *profiler) register(set *pflag.FlagSet) {
	set.StringVar(&p.cpu, flagCPUProfile, "", "write CPU profile to file")
	set.StringVar(&p.heap, flagHeapProfile, "", "write heap profile to file")
}

// run calls fn, profiling CPU for its duration and taking a heap profile
// after it succeeds.
func (p *profiler) run(fn func() error) (rerr error) {
	if p.cpu != "" {
		f, err := os.Create(p.cpu)
		if err != nil {
			return errors.Wrap(err, "create cpu profile")
		}
		defer func() {
			if err := f.Close(); err != nil {
				rerr = multierr.Append(rerr, errors.Wrap(err, "close cpu profile"))
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "start cpu profile")
		}
		defer pprof.StopCPUProfile()
	}

	if err := fn(); err != nil {
		return err
	}

	if p.heap != "" {
		f, err := os.Create(p.heap)
		if err != nil {
			return errors.Wrap(err, "create heap profile")
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "write heap profile")
		}
		if err := f.Close(); err != nil {
			return errors.Wrap(err, "close heap profile")
		}
	}
	return nil
}
