// Package modelstore saves fitted models to disk and loads them back.
//
// A model file is a gob stream of a Header followed by a kind-specific
// payload. The header can be read on its own to find out which model a file
// holds.
package modelstore

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/crimson-sun/teximal/internal/engine"
	"github.com/crimson-sun/teximal/internal/engine/classifier"
	"github.com/crimson-sun/teximal/internal/engine/featurizer"
)

// Version is the file format version written by Save*.
const Version = 1

// Model kinds.
const (
	KindSentiment = "sentiment"
	KindIssues    = "issues"
)

var (
	// ErrKindMismatch is returned when a file holds a different model kind
	// than the one requested.
	ErrKindMismatch = errors.New("model kind mismatch")
	// ErrUnsupportedVersion is returned for files written by a newer or
	// unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported model file version")
)

// Header describes a saved model.
type Header struct {
	Version   int
	Kind      string
	CreatedAt time.Time
	RunID     string
}

type sentimentPayload struct {
	Featurizer featurizer.Options
	Classifier classifier.Binary
}

type issuesPayload struct {
	Areas      []string
	Featurizer featurizer.Options
	Classifier classifier.Multiclass
}

// SaveSentiment writes m to path, creating parent directories.
func SaveSentiment(path, runID string, m *engine.SentimentModel) error {
	return save(path, Header{Kind: KindSentiment, RunID: runID}, sentimentPayload{
		Featurizer: m.FeaturizerOptions(),
		Classifier: *m.Classifier(),
	})
}

// SaveIssues writes m to path, creating parent directories.
func SaveIssues(path, runID string, m *engine.IssueModel) error {
	return save(path, Header{Kind: KindIssues, RunID: runID}, issuesPayload{
		Areas:      m.Areas(),
		Featurizer: m.FeaturizerOptions(),
		Classifier: *m.Classifier(),
	})
}

// ReadHeader reads only the header of the model file at path.
func ReadHeader(path string) (Header, error) {
	var h Header
	err := open(path, func(dec *gob.Decoder) error {
		var err error
		h, err = decodeHeader(dec)
		return err
	})
	return h, err
}

// LoadSentiment reads a sentiment model written by SaveSentiment.
func LoadSentiment(path string) (*engine.SentimentModel, Header, error) {
	var (
		h Header
		m *engine.SentimentModel
	)
	err := open(path, func(dec *gob.Decoder) error {
		var err error
		if h, err = expect(dec, KindSentiment); err != nil {
			return err
		}
		var p sentimentPayload
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		m, err = engine.NewSentimentModel(p.Featurizer, &p.Classifier)
		return err
	})
	return m, h, err
}

// LoadIssues reads an issue model written by SaveIssues.
func LoadIssues(path string) (*engine.IssueModel, Header, error) {
	var (
		h Header
		m *engine.IssueModel
	)
	err := open(path, func(dec *gob.Decoder) error {
		var err error
		if h, err = expect(dec, KindIssues); err != nil {
			return err
		}
		var p issuesPayload
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		m, err = engine.NewIssueModel(p.Areas, p.Featurizer, &p.Classifier)
		return err
	})
	return m, h, err
}

// save encodes header and payload into a temporary file next to path and
// renames it into place, so readers never observe a partial model.
func save(path string, h Header, payload any) error {
	h.Version = Version
	h.CreatedAt = time.Now().UTC()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := gob.NewEncoder(tmp)
	if err := enc.Encode(h); err != nil {
		tmp.Close()
		return fmt.Errorf("modelstore: encode header: %w", err)
	}
	if err := enc.Encode(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("modelstore: encode payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	return nil
}

func open(path string, fn func(dec *gob.Decoder) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	defer f.Close()
	if err := fn(gob.NewDecoder(f)); err != nil {
		return fmt.Errorf("modelstore: %s: %w", path, err)
	}
	return nil
}

func decodeHeader(dec *gob.Decoder) (Header, error) {
	var h Header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Header{}, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}

func expect(dec *gob.Decoder, kind string) (Header, error) {
	h, err := decodeHeader(dec)
	if err != nil {
		return h, err
	}
	if h.Kind != kind {
		return h, fmt.Errorf("%w: file holds %q, want %q", ErrKindMismatch, h.Kind, kind)
	}
	return h, nil
}
