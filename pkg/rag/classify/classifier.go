package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"agri-assist-be/pkg/llm"
	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/store"
)

// Classifier decides the execution path for a question. The model prompt
// carries only the question and the role-visible table names; document and
// row content never reach the classifier.
type Classifier struct {
	llmProvider llm.LLMProvider
	pol         *policy.Policy
	threshold   float64
	memo        *cache.Cache
	logger      *log.Logger
}

func NewClassifier(llmProvider llm.LLMProvider, pol *policy.Policy, threshold float64, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		pol:         pol,
		threshold:   threshold,
		memo:        cache.New(15*time.Minute, 5*time.Minute),
		logger:      logger,
	}
}

// Classify returns the routing verdict. It never fails: when the model is
// unreachable or answers garbage, the keyword heuristic decides.
func (c *Classifier) Classify(ctx context.Context, question store.Question) store.Classification {
	memoKey := string(question.Role) + "\x00" + question.Text
	if cached, found := c.memo.Get(memoKey); found {
		return cached.(store.Classification)
	}

	heuristic := HeuristicClassify(question.Text)

	result, err := c.classifyWithModel(ctx, question)
	if err != nil {
		c.logger.Printf("[CLASSIFY] model call failed (%v), using heuristic: %s", err, heuristic.Mode)
		result = heuristic
	}

	// Low confidence defaults to RAG: a misrouted narrative question just
	// reads worse, a misrouted tabular question returns wrong numbers.
	if result.Mode == store.ModeSQL && result.Confidence < c.threshold {
		c.logger.Printf("[CLASSIFY] SQL confidence %.2f below threshold %.2f, defaulting to RAG",
			result.Confidence, c.threshold)
		result = store.Classification{
			Mode:       store.ModeRAG,
			Confidence: result.Confidence,
			Rationale:  "low-confidence SQL verdict demoted to RAG: " + result.Rationale,
		}
	}

	c.memo.Set(memoKey, result, cache.DefaultExpiration)
	return result
}

type modelVerdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

func (c *Classifier) classifyWithModel(ctx context.Context, question store.Question) (store.Classification, error) {
	schemas, err := c.pol.VisibleSchema(question.Role)
	if err != nil {
		return store.Classification{}, err
	}

	tableNames := make([]string, len(schemas))
	for i, s := range schemas {
		tableNames[i] = s.Name
	}

	prompt := buildClassifierPrompt(question.Text, tableNames)

	raw, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		return store.Classification{}, err
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		return store.Classification{}, err
	}
	return verdict, nil
}

func buildClassifierPrompt(question string, tableNames []string) string {
	var b strings.Builder
	b.WriteString("<task>\n")
	b.WriteString("Decide whether the user's question should be answered from structured tabular data (SQL) or from narrative documents (RAG).\n")
	b.WriteString("</task>\n\n")
	b.WriteString("<guidelines>\n")
	b.WriteString("Tabular content in this domain: crop yields, prices, orders, shipments, records with numeric columns. Questions asking for averages, sums, counts, filters or comparisons over such data are SQL.\n")
	b.WriteString("Narrative content: farming guides, policies, reports, best practices. Questions about understanding, summaries, definitions or advice are RAG.\n")
	b.WriteString("</guidelines>\n\n")
	b.WriteString("<visible_tables>\n")
	if len(tableNames) == 0 {
		b.WriteString("(none)\n")
	} else {
		for _, name := range tableNames {
			b.WriteString("- ")
			b.WriteString(name)
			b.WriteString("\n")
		}
	}
	b.WriteString("</visible_tables>\n\n")
	b.WriteString("<question>\n")
	b.WriteString(question)
	b.WriteString("\n</question>\n\n")
	b.WriteString(`Respond with exactly one JSON object: {"label": "SQL" or "RAG", "confidence": 0.0-1.0, "reason": "one sentence"}`)
	return b.String()
}

// ParseVerdict reads the model's verdict, tolerating prose around the JSON
// object and a bare one-word answer.
func ParseVerdict(raw string) (store.Classification, error) {
	trimmed := strings.TrimSpace(raw)

	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			var verdict modelVerdict
			if err := json.Unmarshal([]byte(trimmed[start:end+1]), &verdict); err == nil {
				mode, ok := normalizeLabel(verdict.Label)
				if ok {
					return store.Classification{
						Mode:       mode,
						Confidence: clamp01(verdict.Confidence),
						Rationale:  verdict.Reason,
					}, nil
				}
			}
		}
	}

	// Bare-label fallback: some models ignore the JSON instruction
	if mode, ok := normalizeLabel(trimmed); ok {
		return store.Classification{
			Mode:       mode,
			Confidence: 0.75,
			Rationale:  "bare label verdict",
		}, nil
	}

	return store.Classification{}, fmt.Errorf("unparseable classifier verdict: %q", truncate(raw, 80))
}

func normalizeLabel(label string) (store.Mode, bool) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "SQL":
		return store.ModeSQL, true
	case "RAG":
		return store.ModeRAG, true
	default:
		return "", false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
