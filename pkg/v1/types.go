package v1

import "time"

// Candidate is one retrieved chunk with its similarity score.
type Candidate struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// Answer is the outcome of one question/answer cycle.
type Answer struct {
	Text             string `json:"text"`
	Matches          int    `json:"matches"`
	DroppedFragments int    `json:"dropped_fragments,omitempty"`
}

// IngestResult reports what an ingestion run added.
type IngestResult struct {
	Files   int    `json:"files"`
	Chunks  int    `json:"chunks"`
	Records int    `json:"records"`
	Commit  string `json:"commit,omitempty"`
}

// Commit is one recorded snapshot version.
type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is a structured corpus summary.
type Summary struct {
	Title     string   `json:"title"`
	Overview  string   `json:"overview"`
	KeyPoints []string `json:"key_points"`
	Sources   []string `json:"sources"`
}
