package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogRotator is an io.Writer for a log file that keeps the file bounded to
// roughly maxLines lines. Once twice that many lines have been written the
// file is rewritten with only the newest maxLines.
type LogRotator struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	ring     *lineRing
	maxLines int
}

// NewLogRotator opens (or creates) the file at path for appending.
func NewLogRotator(path string, maxLines int) (*LogRotator, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &LogRotator{
		file:     file,
		path:     path,
		ring:     newLineRing(maxLines),
		maxLines: max(maxLines, 1),
	}, nil
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		w.ring.push(line)
	}

	if w.ring.seen >= 2*w.maxLines {
		if err := w.rotate(); err != nil {
			return n, fmt.Errorf("failed to rotate log file: %w", err)
		}

		w.ring.seen = w.ring.count
	}

	return n, nil
}

// Sync flushes the file.
func (w *LogRotator) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file.
func (w *LogRotator) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// rotate replaces the file with the retained lines and reopens it.
func (w *LogRotator) rotate() error {
	temp, err := os.CreateTemp(filepath.Dir(w.path), "temp-log-")
	if err != nil {
		return err
	}

	tempPath := temp.Name()
	content := strings.Join(w.ring.ordered(), "\n") + "\n"

	if err := writeAndSync(temp, content); err != nil {
		os.Remove(tempPath)
		return err
	}

	w.file.Close()

	// Windows cannot rename over an existing file
	os.Remove(w.path)

	if err := os.Rename(tempPath, w.path); err != nil {
		return err
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.file = file

	return nil
}

func writeAndSync(f *os.File, content string) error {
	defer f.Close()

	if _, err := io.WriteString(f, content); err != nil {
		return err
	}

	return f.Sync()
}
