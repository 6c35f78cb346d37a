package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/output"
)

// Multi copies every report entry to several outputs, e.g. the console and
// a report file. A failing output does not stop delivery to the others.
type Multi struct {
	outputs []output.Output
}

// New returns a Multi over outputs. Nil outputs are dropped.
func New(outputs ...output.Output) *Multi {
	m := &Multi{}
	for _, o := range outputs {
		if o != nil {
			m.outputs = append(m.outputs, o)
		}
	}
	return m
}

func (m *Multi) Write(ctx context.Context, entry model.Entry) error {
	var err error
	for i, o := range m.outputs {
		if werr := o.Write(ctx, entry); werr != nil {
			err = errors.Join(err, fmt.Errorf("output %d: %w", i, werr))
		}
	}
	return err
}

// Close closes the outputs in reverse order.
func (m *Multi) Close() error {
	var err error
	for i := len(m.outputs) - 1; i >= 0; i-- {
		if cerr := m.outputs[i].Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("output %d: %w", i, cerr))
		}
	}
	return err
}
