package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"

	"github.com/crimson-sun/teximal/internal/model"
)

type options struct {
	progress  io.Writer
	hasHeader bool
}

// Option configures file loading.
type Option func(*options)

// WithProgress draws a byte progress bar on w while the file is read.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// WithHeader controls whether the first line of an issue file is skipped.
// Issue files have a header by default.
func WithHeader(hasHeader bool) Option {
	return func(o *options) { o.hasHeader = hasHeader }
}

// LoadSentimentFile reads a headerless sentiment file.
func LoadSentimentFile(ctx context.Context, path string, opts ...Option) ([]model.SentimentInput, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	var rows []model.SentimentInput
	err := withFile(ctx, path, o, func(r io.Reader) error {
		var err error
		rows, err = ReadSentiment(r)
		return err
	})
	return rows, err
}

// LoadIssuesFile reads an issue file.
func LoadIssuesFile(ctx context.Context, path string, opts ...Option) ([]model.Issue, error) {
	o := options{hasHeader: true}
	for _, opt := range opts {
		opt(&o)
	}
	var rows []model.Issue
	err := withFile(ctx, path, o, func(r io.Reader) error {
		var err error
		rows, err = ReadIssues(r, o.hasHeader)
		return err
	})
	return rows, err
}

func withFile(ctx context.Context, path string, o options, parse func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = contextReader{ctx: ctx, r: f}
	if o.progress != nil {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("dataset: stat %s: %w", path, err)
		}
		bar := pb.New64(info.Size())
		bar.Set(pb.Bytes, true)
		bar.Set("prefix", filepath.Base(path)+": ")
		bar.SetWriter(o.progress)
		bar.Start()
		defer bar.Finish()
		r = bar.NewProxyReader(r)
	}

	if err := parse(r); err != nil {
		return fmt.Errorf("%w (file %s)", err, path)
	}
	return nil
}

// contextReader stops reading once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
