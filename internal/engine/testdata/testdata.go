// Package testdata embeds small labelled corpora for model tests.
package testdata

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/crimson-sun/teximal/internal/dataset"
	"github.com/crimson-sun/teximal/internal/model"
)

var (
	//go:embed sentiment.txt
	sentimentTxt []byte
	//go:embed issues.tsv
	issuesTSV []byte
	//go:embed issues_test.tsv
	issuesTestTSV []byte
)

// Sentiment returns the labelled review corpus.
func Sentiment() ([]model.SentimentInput, error) {
	rows, err := dataset.ReadSentiment(bytes.NewReader(sentimentTxt))
	if err != nil {
		return nil, fmt.Errorf("parse sentiment.txt: %w", err)
	}
	return rows, nil
}

// IssuesTrain returns the issue training corpus.
func IssuesTrain() ([]model.Issue, error) {
	rows, err := dataset.ReadIssues(bytes.NewReader(issuesTSV), true)
	if err != nil {
		return nil, fmt.Errorf("parse issues.tsv: %w", err)
	}
	return rows, nil
}

// IssuesTest returns held-out issues. One of them carries an area that
// does not occur in IssuesTrain.
func IssuesTest() ([]model.Issue, error) {
	rows, err := dataset.ReadIssues(bytes.NewReader(issuesTestTSV), true)
	if err != nil {
		return nil, fmt.Errorf("parse issues_test.tsv: %w", err)
	}
	return rows, nil
}
