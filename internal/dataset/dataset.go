// Package dataset reads the tab-separated sentiment and issue files into
// records and splits them into train and test sets.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/crimson-sun/teximal/internal/model"
)

// ErrMalformedRow is returned (wrapped with the line number) when a row does
// not match the expected schema.
var ErrMalformedRow = errors.New("malformed row")

const (
	separator  = "\t"
	maxLineLen = 1 << 20
)

// ReadSentiment parses a headerless "text<TAB>label" stream. Blank lines are
// skipped. The label accepts 0/1 and true/false.
func ReadSentiment(r io.Reader) ([]model.SentimentInput, error) {
	var rows []model.SentimentInput
	err := scanRows(r, false, func(line int, fields []string) error {
		if len(fields) < 2 {
			return fmt.Errorf("line %d: %w: want 2 columns, got %d", line, ErrMalformedRow, len(fields))
		}
		label, err := parseLabel(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: %w: %v", line, ErrMalformedRow, err)
		}
		rows = append(rows, model.SentimentInput{Text: fields[0], Label: label})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: sentiment: %w", err)
	}
	return rows, nil
}

// ReadIssues parses an "ID<TAB>Area<TAB>Title<TAB>Description" stream. A
// missing description reads as empty; extra columns are ignored.
func ReadIssues(r io.Reader, hasHeader bool) ([]model.Issue, error) {
	var rows []model.Issue
	err := scanRows(r, hasHeader, func(line int, fields []string) error {
		if len(fields) < 3 {
			return fmt.Errorf("line %d: %w: want at least 3 columns, got %d", line, ErrMalformedRow, len(fields))
		}
		issue := model.Issue{
			ID:    fields[0],
			Area:  fields[1],
			Title: fields[2],
		}
		if len(fields) > 3 {
			issue.Description = fields[3]
		}
		rows = append(rows, issue)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: issues: %w", err)
	}
	return rows, nil
}

// scanRows calls fn for every non-blank line with its 1-based line number.
func scanRows(r io.Reader, hasHeader bool, fn func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	line := 0
	for scanner.Scan() {
		line++
		if hasHeader && line == 1 {
			continue
		}
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := fn(line, strings.Split(text, separator)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read error after line %d: %w", line, err)
	}
	return nil
}

func parseLabel(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid label %q", s)
	}
}
