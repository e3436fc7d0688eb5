package classify

import (
	"strings"

	"agri-assist-be/pkg/store"
)

// sqlKeywords are the structured-analysis markers that strongly suggest a
// tabular query. Matching is word-bounded on the lowercased question, so
// "summer" never hits "sum" and "account" never hits "count". Bare "from"
// and "where" are deliberately absent: they are ordinary English far more
// often than they are SQL.
var sqlKeywords = []string{
	"average", "sum", "total", "count", "how many", "filter",
	"greater than", "less than", "top", "group by", "order by",
	"max", "min", "median", "mean", "percent", "between",
	"select", "join", "table", "dataset",
	"list all", "show all", "number of", "details of",
}

// Heuristic confidence levels. A keyword hit has to clear the default
// classifier threshold, otherwise the heuristic could never pick SQL.
const (
	heuristicSQLConfidence = 0.7
	heuristicRAGConfidence = 0.9
)

// HeuristicClassify is the local, model-free pre-pass. It runs before the
// model call and serves as the fallback when the call fails.
func HeuristicClassify(question string) store.Classification {
	q := strings.ToLower(question)
	for _, kw := range sqlKeywords {
		if containsPhrase(q, kw) {
			return store.Classification{
				Mode:       store.ModeSQL,
				Confidence: heuristicSQLConfidence,
				Rationale:  "keyword heuristic: " + kw,
			}
		}
	}
	return store.Classification{
		Mode:       store.ModeRAG,
		Confidence: heuristicRAGConfidence,
		Rationale:  "keyword heuristic: no structured-analysis markers",
	}
}

// containsPhrase reports whether phrase occurs in q with word boundaries
// on both sides.
func containsPhrase(q, phrase string) bool {
	idx := 0
	for {
		pos := strings.Index(q[idx:], phrase)
		if pos < 0 {
			return false
		}
		pos += idx
		before := pos == 0 || !isLetterOrDigit(q[pos-1])
		afterIdx := pos + len(phrase)
		after := afterIdx >= len(q) || !isLetterOrDigit(q[afterIdx])
		if before && after {
			return true
		}
		idx = pos + 1
	}
}

func isLetterOrDigit(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
