package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/crimson-sun/teximal/internal/model"
)

const (
	defaultBufSize    = 64 * 1024
	defaultMaxBackups = 3
)

// Option configures a report file.
type Option func(*Output)

// WithMaxSize rotates the report once it would grow past bytes.
// 0 (default) never rotates.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// WithMaxBackups sets how many rotated reports ({path}.1 ... {path}.n) are
// kept. Default: 3.
func WithMaxBackups(n int) Option {
	return func(o *Output) {
		if n > 0 {
			o.backups = n
		}
	}
}

// WithBufSize sets the write buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// Output appends report entries to a file as NDJSON, one entry per line.
type Output struct {
	mu      sync.Mutex
	path    string
	f       *os.File
	buf     *bufio.Writer
	size    int64
	maxSize int64
	backups int
	bufSize int
}

// New opens path for appending, creating it and its directory if needed.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{
		path:    path,
		backups: defaultMaxBackups,
		bufSize: defaultBufSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("report file: %w", err)
	}
	if err := o.open(); err != nil {
		return nil, err
	}
	return o, nil
}

// Write appends one entry.
func (o *Output) Write(_ context.Context, entry model.Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("report file: encode %s entry: %w", entry.Kind, err)
	}
	line = append(line, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.maxSize > 0 && o.size > 0 && o.size+int64(len(line)) > o.maxSize {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("report file: rotate %s: %w", o.path, err)
		}
	}
	n, err := o.buf.Write(line)
	o.size += int64(n)
	if err != nil {
		return fmt.Errorf("report file: %w", err)
	}
	return nil
}

// Close flushes buffered entries and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return errors.Join(o.buf.Flush(), o.f.Close())
}

func (o *Output) open() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("report file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("report file: %w", err)
	}
	o.f = f
	o.buf = bufio.NewWriterSize(f, o.bufSize)
	o.size = info.Size()
	return nil
}

// rotate moves the current report to {path}.1, shifting older backups up
// and dropping the one past the backup limit.
func (o *Output) rotate() error {
	if err := errors.Join(o.buf.Flush(), o.f.Close()); err != nil {
		return err
	}
	oldest := backupName(o.path, o.backups)
	if err := os.Remove(oldest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for i := o.backups - 1; i >= 1; i-- {
		err := os.Rename(backupName(o.path, i), backupName(o.path, i+1))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := os.Rename(o.path, backupName(o.path, 1)); err != nil {
		return err
	}
	return o.open()
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}
