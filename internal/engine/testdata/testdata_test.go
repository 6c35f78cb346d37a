package testdata

import (
	"testing"
)

func TestSentiment(t *testing.T) {
	rows, err := Sentiment()
	if err != nil {
		t.Fatalf("Sentiment() error: %v", err)
	}
	if len(rows) != 30 {
		t.Fatalf("len = %d, want 30", len(rows))
	}

	positives := 0
	for i, r := range rows {
		if r.Text == "" {
			t.Errorf("row[%d] has empty text", i)
		}
		if r.Label {
			positives++
		}
	}
	if positives != 15 {
		t.Errorf("positives = %d, want 15", positives)
	}
}

func TestIssues(t *testing.T) {
	train, err := IssuesTrain()
	if err != nil {
		t.Fatalf("IssuesTrain() error: %v", err)
	}
	test, err := IssuesTest()
	if err != nil {
		t.Fatalf("IssuesTest() error: %v", err)
	}
	if len(train) != 18 {
		t.Errorf("train len = %d, want 18", len(train))
	}
	if len(test) != 4 {
		t.Errorf("test len = %d, want 4", len(test))
	}

	areas := map[string]int{}
	for i, r := range train {
		if r.Title == "" || r.Description == "" {
			t.Errorf("train[%d] has empty title or description", i)
		}
		areas[r.Area]++
	}
	for area, n := range areas {
		if n != 6 {
			t.Errorf("area %s has %d rows, want 6", area, n)
		}
	}
	if len(areas) != 3 {
		t.Errorf("distinct areas = %d, want 3", len(areas))
	}
}
