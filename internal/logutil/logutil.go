// Package logutil adds levels and optional size-rotated file output on top
// of the standard log package.
//
// Output always goes through the global std logger so plain log.Printf calls
// and leveled calls share one destination. Stdout is never used: it carries
// the MCP protocol stream.
package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Level is a log severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

var currentLevel int32 = int32(LevelInfo)

// ParseLevel maps a name to a Level. Unknown names report false.
func ParseLevel(s string) (Level, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// SetLevel parses and sets the global level. Unknown names are ignored.
func SetLevel(s string) {
	if l, ok := ParseLevel(s); ok {
		atomic.StoreInt32(&currentLevel, int32(l))
	}
}

// GetLevel returns the global level.
func GetLevel() Level { return Level(atomic.LoadInt32(&currentLevel)) }

// Enabled reports whether messages at l are emitted.
func Enabled(l Level) bool { return GetLevel() <= l }

func logf(l Level, format string, args ...interface{}) {
	if !Enabled(l) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	_ = log.Output(3, "["+l.String()+"] "+msg)
}

func Debugf(format string, a ...interface{}) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...interface{})  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...interface{})  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...interface{}) { logf(LevelError, format, a...) }

// Options configures Setup.
type Options struct {
	// Level is a level name (debug, info, warn, error).
	Level string

	// File, when set, receives log output in addition to stderr.
	File string

	// MaxSizeBytes triggers rotation. Zero means 10MB.
	MaxSizeBytes int64

	// MaxArchives is the number of rotated files kept. Zero means 3.
	MaxArchives int
}

// Setup configures the global logger: stderr with date, time and short file
// prefixes, plus a rotating file when opts.File is set. The returned closer
// releases the file.
func Setup(opts Options) (io.Closer, error) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
	SetLevel(opts.Level)

	if opts.File == "" {
		return io.NopCloser(nil), nil
	}

	w, err := NewRotatingWriter(opts.File, opts.MaxSizeBytes, opts.MaxArchives)
	if err != nil {
		return io.NopCloser(nil), err
	}
	log.SetOutput(io.MultiWriter(os.Stderr, w))
	return w, nil
}

// RotatingWriter appends to a file and rotates it to .1, .2, ... once it
// would exceed the size limit. The oldest archive is discarded.
type RotatingWriter struct {
	mu          sync.Mutex
	path        string
	maxSize     int64
	maxArchives int
	f           *os.File
}

// NewRotatingWriter opens path for appending, rotating first if it is
// already over the limit.
func NewRotatingWriter(path string, maxSize int64, maxArchives int) (*RotatingWriter, error) {
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if maxArchives <= 0 {
		maxArchives = 3
	}
	w := &RotatingWriter{path: path, maxSize: maxSize, maxArchives: maxArchives}
	if st, err := os.Stat(path); err == nil && st.Size() > maxSize {
		w.rotate()
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	w.f = f
	return nil
}

// Write implements io.Writer.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > w.maxSize {
		_ = w.f.Close()
		w.rotate()
		if err := w.open(); err != nil {
			w.f = nil
			return 0, err
		}
	}
	return w.f.Write(p)
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) rotate() {
	_ = os.Remove(w.archiveName(w.maxArchives))
	for i := w.maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(w.archiveName(i), w.archiveName(i+1))
	}
	_ = os.Rename(w.path, w.archiveName(1))
}

func (w *RotatingWriter) archiveName(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}
