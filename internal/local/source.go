// Package local reads sample lines from files on the local filesystem.
package local

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/source"
)

const (
	// DefaultEventChanBuffer is the buffer size for follow channels
	DefaultEventChanBuffer = 100

	// MaxScanTokenSize is the maximum line size when scanning log files (1MB)
	MaxScanTokenSize = 1024 * 1024

	// LogRotationDelay is how long to wait for log rotation to complete before reopening
	LogRotationDelay = 100 * time.Millisecond
)

func init() {
	source.Register("file", openSource)
}

// Source implements source.Source for local files.
type Source struct {
	pattern      string
	files        []string
	logger       logging.Logger
	droppedLines int64 // atomic
}

func openSource(u *url.URL, _ source.OpenOptions) (source.Source, error) {
	pattern := u.Path
	if pattern == "" {
		pattern = u.Opaque
	}
	if pattern == "" {
		return nil, fmt.Errorf("file:// URI requires a path")
	}

	if strings.HasPrefix(pattern, "/~/") {
		if home, err := os.UserHomeDir(); err == nil {
			pattern = filepath.Join(home, pattern[3:])
		}
	}

	return NewSource(pattern)
}

// NewSource creates a local source. The pattern can be a file path or a
// doublestar glob such as "logs/**/*.log".
func NewSource(pattern string) (*Source, error) {
	files, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}

	if len(files) == 0 {
		if _, err := os.Stat(pattern); err != nil {
			return nil, fmt.Errorf("no files match pattern %q", pattern)
		}
		files = []string{pattern}
	}

	sort.Strings(files)

	return &Source{
		pattern: pattern,
		files:   files,
		logger:  logging.Default(),
	}, nil
}

// WithLogger sets the logger used for follow diagnostics.
func (s *Source) WithLogger(l logging.Logger) *Source {
	s.logger = l
	return s
}

// Lines reads entries from each file in order until the limit is reached.
func (s *Source) Lines(ctx context.Context, params source.LinesParams) ([]source.Line, error) {
	var results []source.Line

	for _, file := range s.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lines, err := s.readFile(ctx, file, params, len(results))
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", file, err)
		}
		results = append(results, lines...)
		if params.Full(len(results)) {
			break
		}
	}

	return results, nil
}

func (s *Source) readFile(ctx context.Context, path string, params source.LinesParams, have int) ([]source.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var results []source.Line
	joiner := source.NewJoiner(params.Start)
	emit := func(l source.Line) bool {
		if params.Keep(l) {
			results = append(results, l)
		}
		return params.Full(have + len(results))
	}

	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxScanTokenSize)
	scanner.Buffer(buf, MaxScanTokenSize)

	lineNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNum++

		line := s.line(path, lineNum, scanner.Text())
		if entry, ok := joiner.Add(line); ok && emit(entry) {
			return results, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if entry, ok := joiner.Flush(); ok {
		emit(entry)
	}
	return results, nil
}

func (s *Source) line(path string, lineNum int, text string) source.Line {
	return source.Line{
		Text:   strings.TrimRight(text, "\r"),
		Stream: filepath.Base(path),
		Origin: fmt.Sprintf("%s:%d", path, lineNum),
	}
}

// Follow streams entries appended to the file using fsnotify.
func (s *Source) Follow(ctx context.Context, params source.LinesParams) (<-chan source.Line, error) {
	if len(s.files) != 1 {
		return nil, fmt.Errorf("follow needs exactly one file, pattern %q matched %d", s.pattern, len(s.files))
	}
	filePath := s.files[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	lineNum, err := countLines(f)
	if err != nil {
		_ = f.Close()
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to seek to end: %w", err)
	}

	if err := watcher.Add(filePath); err != nil {
		_ = f.Close()
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}

	lines := make(chan source.Line, DefaultEventChanBuffer)
	go s.followLoop(ctx, f, watcher, filePath, lineNum, params, lines)
	return lines, nil
}

// countLines leaves f positioned at its end and returns the number of
// complete lines before it.
func countLines(f *os.File) (int, error) {
	n := 0
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxScanTokenSize)
	scanner.Buffer(buf, MaxScanTokenSize)
	for scanner.Scan() {
		n++
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Source) followLoop(ctx context.Context, f *os.File, watcher *fsnotify.Watcher, filePath string, lineNum int, params source.LinesParams, lines chan<- source.Line) {
	defer close(lines)
	defer func() { _ = f.Close() }()
	defer func() { _ = watcher.Close() }()

	reader := bufio.NewReader(f)
	joiner := source.NewJoiner(params.Start)
	var partial string

	for {
		select {
		case <-ctx.Done():
			if entry, ok := joiner.Flush(); ok {
				s.emit(entry, params, lines)
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Write) {
				for {
					chunk, err := reader.ReadString('\n')
					if err != nil {
						if err == io.EOF {
							// Keep the partial line until the rest is written.
							partial += chunk
							break
						}
						s.logger.WithField(logging.FieldPath, filePath).Error("read failed: %v", err)
						return
					}

					text := strings.TrimRight(partial+chunk, "\n\r")
					partial = ""
					lineNum++

					if entry, ok := joiner.Add(s.line(filePath, lineNum, text)); ok {
						s.emit(entry, params, lines)
					}
				}
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				time.Sleep(LogRotationDelay)
				newFile, err := os.Open(filePath)
				if err == nil {
					_ = f.Close()
					f = newFile
					reader.Reset(f)
					lineNum = 0
					partial = ""
					_ = watcher.Remove(filePath)
					_ = watcher.Add(filePath)
					s.logger.WithField(logging.FieldPath, filePath).Debug("reopened after rotation")
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.WithField(logging.FieldPath, filePath).Debug("watcher error: %v", err)
		}
	}
}

func (s *Source) emit(entry source.Line, params source.LinesParams, lines chan<- source.Line) {
	if !params.Keep(entry) {
		return
	}
	select {
	case lines <- entry:
	default:
		dropped := atomic.AddInt64(&s.droppedLines, 1)
		if dropped == 1 || dropped%100 == 0 {
			s.logger.WithField(logging.FieldSource, entry.Stream).Warn("line buffer full, dropped %d line(s)", dropped)
		}
	}
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return "local"
}

// Metadata returns source metadata.
func (s *Source) Metadata() source.Metadata {
	return source.Metadata{
		Type: "local",
		URI:  s.pattern,
	}
}

// Close releases any resources held by the source.
func (s *Source) Close() error {
	return nil
}

// Files returns the files matched by this source's pattern.
func (s *Source) Files() []string {
	return s.files
}
