package emit

import (
	"bufio"
	"bytes"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pkg.jsn.cam/ipgen/internal/budget"
	"pkg.jsn.cam/ipgen/internal/generator"
)

var lineRe = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

func newTestEmitter(t *testing.T, seed uint64) *Emitter {
	t.Helper()
	return New(new(generator.IPv4Generator), Options{
		Rand:   generator.NewRand(seed),
		Logger: zaptest.NewLogger(t),
	})
}

// readLines returns the lines of path, checking that every line is terminated.
func readLines(t *testing.T, path string) ([]string, int64) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil, 0
	}
	require.Equal(t, byte('\n'), data[len(data)-1], "file must end with a newline")
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), int64(len(data))
}

func requireAddress(t *testing.T, line string) {
	t.Helper()
	require.Regexp(t, lineRe, line)
	for _, part := range strings.Split(line, ".") {
		v, err := strconv.Atoi(part)
		require.NoError(t, err)
		require.True(t, v >= 0 && v <= 255, "octet %d out of range in %q", v, line)
	}
}

func TestEmitter_Emit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		maxBytes  int64
		wantLines int64
	}{
		{"one byte", 1, 0},
		{"below one line", 15, 0},
		{"exactly one line", 16, 1},
		{"two lines", 32, 2},
		{"not a multiple", 47, 2},
		{"one kilobyte", 1024, 64},
		{"odd size", 100003, 6250},
		{"larger than buffer", 3 << 20, 196608},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "ips.txt")
			res, err := newTestEmitter(t, uint64(i)).Emit(path, tt.maxBytes)
			require.NoError(t, err)

			lines, size := readLines(t, path)
			require.Len(t, lines, int(tt.wantLines))
			require.Equal(t, tt.wantLines, res.Lines)
			require.Equal(t, size, res.Bytes)
			require.LessOrEqual(t, size, tt.maxBytes)
			require.Equal(t, tt.maxBytes, res.MaxBytes)
			require.Equal(t, path, res.Path)
			require.NotEqual(t, uuid.Nil, res.RunID)

			for _, line := range lines {
				requireAddress(t, line)
			}
		})
	}
}

func TestEmitter_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.txt")
	res, err := newTestEmitter(t, 1).Emit(path, 15)
	require.NoError(t, err)
	require.Zero(t, res.Lines)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestEmitter_InvalidBudget(t *testing.T) {
	t.Parallel()

	for _, maxBytes := range []int64{0, -1, -1024} {
		path := filepath.Join(t.TempDir(), "never.txt")
		_, err := newTestEmitter(t, 1).Emit(path, maxBytes)
		require.ErrorIs(t, err, budget.ErrNonPositiveBudget)
		require.True(t, budget.IsConfigError(err))

		_, statErr := os.Stat(path)
		require.ErrorIs(t, statErr, fs.ErrNotExist, "file must not be created")
	}
}

func TestEmitter_Truncates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ips.txt")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 4096), 0o600))

	_, err := newTestEmitter(t, 1).Emit(path, 32)
	require.NoError(t, err)

	lines, size := readLines(t, path)
	require.Len(t, lines, 2)
	require.LessOrEqual(t, size, int64(32))
}

func TestEmitter_Seeded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")

	_, err := newTestEmitter(t, 1234).Emit(a, 64<<10)
	require.NoError(t, err)
	_, err = newTestEmitter(t, 1234).Emit(b, 64<<10)
	require.NoError(t, err)

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	require.Equal(t, da, db)
}

func TestEmitter_CreateError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "ips.txt")
	_, err := newTestEmitter(t, 1).Emit(path, 1024)
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "want *IOError, got %T", err)
	require.Equal(t, "create", ioErr.Op)
	require.Equal(t, path, ioErr.Path)
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.False(t, budget.IsConfigError(err))
}

func TestEmitter_DirectoryPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := newTestEmitter(t, 1).Emit(dir, 1024)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "want *IOError, got %T", err)
}

// brokenGenerator fails after a number of lines.
type brokenGenerator struct {
	left int
}

var errBroken = errors.New("broken")

func (g *brokenGenerator) Init(*rand.Rand) {}

func (g *brokenGenerator) WriteLine(w io.Writer) error {
	if g.left == 0 {
		return errBroken
	}
	g.left--
	_, err := io.WriteString(w, "1.2.3.4\n")
	return err
}

func (g *brokenGenerator) Description() string { return "broken" }

func TestEmitter_WriteError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ips.txt")
	e := New(&brokenGenerator{left: 3}, Options{Logger: zaptest.NewLogger(t)})
	res, err := e.Emit(path, 1024)
	require.ErrorIs(t, err, errBroken)
	require.Equal(t, int64(3), res.Lines)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	require.Equal(t, "write", ioErr.Op)
}

// worstCaseGenerator always writes the longest possible line.
type worstCaseGenerator struct{}

func (worstCaseGenerator) Init(*rand.Rand) {}

func (worstCaseGenerator) WriteLine(w io.Writer) error {
	_, err := io.WriteString(w, "255.255.255.255\n")
	return err
}

func (worstCaseGenerator) Description() string { return "worst case" }

func TestEmitter_WorstCaseFitsBudget(t *testing.T) {
	t.Parallel()

	for _, maxBytes := range []int64{16, 1024, 1000, 4097} {
		path := filepath.Join(t.TempDir(), "ips.txt")
		res, err := New(worstCaseGenerator{}, Options{}).Emit(path, maxBytes)
		require.NoError(t, err)
		require.Equal(t, budget.LineCount(maxBytes)*budget.MaxLineBytes, res.Bytes)
		require.LessOrEqual(t, res.Bytes, maxBytes)
	}
}

func TestEmitter_Progress(t *testing.T) {
	t.Parallel()

	var progress bytes.Buffer
	path := filepath.Join(t.TempDir(), "ips.txt")
	e := New(new(generator.IPv4Generator), Options{
		Rand:       generator.NewRand(1),
		Logger:     zaptest.NewLogger(t),
		Progress:   &progress,
		BufferSize: 512,
	})
	res, err := e.Emit(path, 1<<20)
	require.NoError(t, err)
	require.Equal(t, int64(65536), res.Lines)
	require.NotZero(t, progress.Len())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var n int64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		requireAddress(t, sc.Text())
		n++
	}
	require.NoError(t, sc.Err())
	require.Equal(t, res.Lines, n)
}

// recordingGenerator remembers the random source it was initialized with.
type recordingGenerator struct {
	worstCaseGenerator
	rand  *rand.Rand
	inits int
}

func (g *recordingGenerator) Init(r *rand.Rand) {
	g.rand = r
	g.inits++
}

func TestNew_InitsGenerator(t *testing.T) {
	t.Parallel()

	r := generator.NewRand(1)
	seeded := &recordingGenerator{}
	New(seeded, Options{Rand: r})
	require.Equal(t, 1, seeded.inits)
	require.Same(t, r, seeded.rand)

	unseeded := &recordingGenerator{}
	New(unseeded, Options{})
	require.Equal(t, 1, unseeded.inits)
	require.NotNil(t, unseeded.rand)
}

func TestEmitter_DeviceFull(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("/dev/full is only available on linux")
	}
	const path = "/dev/full"
	if _, err := os.Stat(path); err != nil {
		t.Skipf("stat %s: %v", path, err)
	}
	t.Parallel()

	tests := []struct {
		name      string
		maxBytes  int64
		wantLines int64
	}{
		// 64 lines overflow the buffer, so a line write hits the device.
		{"while writing", 1024, -1},
		// 2 lines fit into the buffer and only fail on the final flush.
		{"on flush", 32, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := New(new(generator.IPv4Generator), Options{
				Rand:       generator.NewRand(1),
				Logger:     zaptest.NewLogger(t),
				BufferSize: 64,
			})
			res, err := e.Emit(path, tt.maxBytes)
			require.Error(t, err)

			var ioErr *IOError
			require.True(t, errors.As(err, &ioErr), "want *IOError, got %T", err)
			require.Equal(t, "write", ioErr.Op)
			require.Equal(t, path, ioErr.Path)
			require.ErrorIs(t, err, syscall.ENOSPC)
			require.False(t, budget.IsConfigError(err))
			require.Zero(t, res.Bytes)
			if tt.wantLines >= 0 {
				require.Equal(t, tt.wantLines, res.Lines)
			} else {
				require.Less(t, res.Lines, budget.LineCount(tt.maxBytes))
			}
		})
	}
}
