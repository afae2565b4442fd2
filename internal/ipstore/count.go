package ipstore

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-faster/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// ErrInvalidAddress is returned for a line that is not a dotted-quad.
var ErrInvalidAddress = errors.New("invalid IPv4 address")

// CountOptions configures CountFile.
type CountOptions struct {
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Progress, if set, renders a progress bar of bytes read.
	Progress io.Writer
	// SkipInvalid counts malformed lines instead of failing on them.
	SkipInvalid bool
}

// CountResult describes a counted file.
type CountResult struct {
	Path     string
	Lines    uint64
	Unique   uint64
	Invalid  uint64
	Bytes    int64
	Duration time.Duration
}

// Count reads newline-separated addresses from r. Empty lines are skipped.
func Count(r io.Reader, skipInvalid bool) (CountResult, error) {
	var (
		res   CountResult
		store = New()
		sc    = bufio.NewScanner(r)
	)
	sc.Buffer(make([]byte, 64*1024), 64*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		res.Lines++
		ip, ok := ParseIPv4(line)
		if !ok {
			if skipInvalid {
				res.Invalid++
				continue
			}
			return res, errors.Wrapf(ErrInvalidAddress, "line %d: %q", res.Lines, line)
		}
		store.Insert(ip)
	}
	res.Unique = store.Count()
	if err := sc.Err(); err != nil {
		return res, errors.Wrap(err, "scan")
	}
	return res, nil
}

// CountFile counts distinct addresses in the file at path.
func CountFile(path string, opts CountOptions) (CountResult, error) {
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return CountResult{Path: path}, errors.Wrap(err, "open")
	}
	defer func() {
		_ = f.Close()
	}()
	stat, err := f.Stat()
	if err != nil {
		return CountResult{Path: path}, errors.Wrap(err, "stat")
	}
	lg.Info("Counting addresses",
		zap.String("path", path),
		zap.String("size", humanize.IBytes(uint64(stat.Size()))),
	)

	var r io.Reader = f
	if opts.Progress != nil {
		pb := progressbar.NewOptions64(stat.Size(),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("reading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		pbr := progressbar.NewReader(f, pb)
		r = &pbr
		defer func() { _ = pb.Finish() }()
	}

	res, err := Count(r, opts.SkipInvalid)
	res.Path = path
	res.Bytes = stat.Size()
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	lg.Info("Counted addresses",
		zap.String("path", path),
		zap.Uint64("lines", res.Lines),
		zap.Uint64("unique", res.Unique),
		zap.Uint64("invalid", res.Invalid),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}

// String formats r for the command line.
func (r CountResult) String() string {
	return "found " + strconv.FormatUint(r.Unique, 10) + " unique IP addresses in " + r.Path
}
