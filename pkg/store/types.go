package store

import "agri-assist-be/pkg/policy"

// Question is one inbound request unit. It lives only for the duration of
// the request and is never persisted by the pipeline itself.
type Question struct {
	Text      string
	Role      policy.Role
	RequestID string
}

// Mode is the execution path chosen for a question. Tagged variant rather
// than a boolean so future modes can be added without touching call sites.
type Mode string

const (
	ModeSQL Mode = "SQL"
	ModeRAG Mode = "RAG"
)

// Classification is the router verdict for one question.
type Classification struct {
	Mode       Mode
	Confidence float64 // in [0,1]
	Rationale  string
}

// Candidate is one retrieved chunk reference flowing through retrieval and
// rerank. RerankScore stays nil until the reranker has scored the pair;
// after that the authoritative order is rerank score descending.
type Candidate struct {
	ChunkID        string
	Text           string
	SourceDocument string
	Similarity     float64
	RerankScore    *float64
}

// SQLResult is the outcome of one read-only statement execution.
type SQLResult struct {
	Statement string
	Columns   []string
	Rows      [][]string
	RowCount  int
	Truncated bool
}

// Answer is the terminal artifact returned to the caller. Evidence is
// chunk IDs in RAG mode, the executed statement in SQL mode. FellBack
// records that the SQL path was abandoned and the answer came from
// retrieval instead.
type Answer struct {
	Text               string
	ModeUsed           Mode
	SupportingEvidence []string
	QualityScore       float64
	Degraded           bool
	FellBack           bool
}
