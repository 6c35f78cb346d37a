package output

import (
	"context"
	"fmt"

	"github.com/crimson-sun/teximal/internal/model"
)

// Output defines the interface for report destinations.
type Output interface {
	Write(ctx context.Context, entry model.Entry) error
	Close() error
}

// Format selects how entries are encoded.
type Format string

const (
	FormatText Format = "text" // human-readable console report
	FormatJSON Format = "json" // one JSON object per entry
)

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("output: unknown format %q (want text or json)", s)
	}
}
