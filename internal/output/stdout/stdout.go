package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/output"
)

// Output writes report entries to a console stream, either as text or as
// JSON objects.
type Output struct {
	w      io.Writer
	enc    *json.Encoder
	format output.Format
}

// New creates a console Output writing to w with optional pretty-printed
// JSON. pretty is ignored for the text format.
func New(w io.Writer, format output.Format, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{w: w, enc: enc, format: format}
}

func (o *Output) Write(_ context.Context, entry model.Entry) error {
	if o.format == output.FormatJSON {
		if err := o.enc.Encode(entry); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
		return nil
	}
	if _, err := io.WriteString(o.w, output.RenderText(entry)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
