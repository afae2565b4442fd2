// Package emit writes size-bounded fixture files.
package emit

import (
	"bufio"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pkg.jsn.cam/ipgen/internal/budget"
	"pkg.jsn.cam/ipgen/internal/generator"
)

const (
	defaultBufferSize = 1 << 20
	progressStep      = 1 << 12
)

// Options configures an Emitter.
type Options struct {
	// Rand is the random source handed to the generator. Defaults to an
	// unseeded source.
	Rand *rand.Rand
	// Logger receives start and completion entries. Defaults to a no-op logger.
	Logger *zap.Logger
	// Progress, if set, renders a progress bar of written lines.
	Progress io.Writer
	// BufferSize of the file writer. Defaults to 1MiB.
	BufferSize int
}

func (o *Options) setDefaults() {
	if o.Rand == nil {
		o.Rand = generator.NewRandomRand()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
}

// Result describes a completed Emit call.
type Result struct {
	RunID    uuid.UUID
	Path     string
	MaxBytes int64
	Lines    int64
	Bytes    int64
	Duration time.Duration
}

// Emitter writes budget.LineCount(maxBytes) generated lines to a file.
//
// The size bound holds as long as every line of gen fits into
// budget.MaxLineBytes.
type Emitter struct {
	gen  generator.Generator
	opts Options
}

// New creates an Emitter writing lines produced by gen, initializing gen
// with opts.Rand.
func New(gen generator.Generator, opts Options) *Emitter {
	opts.setDefaults()
	gen.Init(opts.Rand)
	return &Emitter{gen: gen, opts: opts}
}

// Emit creates or truncates path and fills it with generated lines.
//
// A non-positive maxBytes returns a *budget.ConfigError without touching the
// filesystem. File failures are returned as *IOError; a partially written
// file is left in place.
func (e *Emitter) Emit(path string, maxBytes int64) (_ Result, rerr error) {
	if err := budget.Validate(maxBytes); err != nil {
		return Result{}, err
	}

	var (
		start = time.Now()
		res   = Result{
			RunID:    uuid.New(),
			Path:     path,
			MaxBytes: maxBytes,
		}
		lines = budget.LineCount(maxBytes)
		lg    = e.opts.Logger.With(
			zap.Stringer("run_id", res.RunID),
			zap.String("path", path),
		)
	)
	lg.Info("Generating file",
		zap.String("budget", humanize.IBytes(uint64(maxBytes))),
		zap.Int64("lines", lines),
	)

	f, err := os.Create(path)
	if err != nil {
		return res, &IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			rerr = multierr.Append(rerr, &IOError{Op: "close", Path: path, Err: err})
			return
		}
		if rerr != nil {
			return
		}
		lg.Info("Generated file",
			zap.Int64("lines", res.Lines),
			zap.String("size", humanize.IBytes(uint64(res.Bytes))),
			zap.Duration("took", res.Duration),
		)
	}()

	cw := &countingWriter{w: f}
	w := bufio.NewWriterSize(cw, e.opts.BufferSize)
	bar := e.newProgressBar(lines)

	for res.Lines < lines {
		if err := e.gen.WriteLine(w); err != nil {
			return res, &IOError{Op: "write", Path: path, Err: err}
		}
		res.Lines++
		if bar != nil && res.Lines%progressStep == 0 {
			_ = bar.Add64(progressStep)
		}
	}
	if err := w.Flush(); err != nil {
		res.Bytes = cw.n
		return res, &IOError{Op: "write", Path: path, Err: err}
	}
	if bar != nil {
		_ = bar.Add64(res.Lines % progressStep)
		_ = bar.Finish()
	}

	res.Bytes = cw.n
	res.Duration = time.Since(start)
	return res, nil
}

func (e *Emitter) newProgressBar(lines int64) *progressbar.ProgressBar {
	if e.opts.Progress == nil || lines == 0 {
		return nil
	}
	return progressbar.NewOptions64(lines,
		progressbar.OptionSetWriter(e.opts.Progress),
		progressbar.OptionSetDescription("writing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("lines"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(e.opts.Progress, "\n")
		}),
	)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
