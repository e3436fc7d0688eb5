package rerank

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"agri-assist-be/pkg/llm"
	"agri-assist-be/pkg/store"
)

// Reranker re-scores retrieval candidates with a joint (question, chunk)
// relevance judgment. It corrects cases where embedding similarity is high
// but topical relevance is low. Reranking is a quality enhancement: when
// the scoring call fails the caller gets the similarity order back, not an
// error.
type Reranker struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewReranker(llmProvider llm.LLMProvider, logger *log.Logger) *Reranker {
	return &Reranker{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// maxConcurrentScores bounds parallel scoring calls per request.
const maxConcurrentScores = 4

// Rerank scores each candidate against the question and returns them in
// rerank-score order, truncated to topKFinal. Equal scores preserve the
// incoming similarity order. On any scoring failure the pre-rerank order
// is returned instead.
func (r *Reranker) Rerank(ctx context.Context, question string, candidates []store.Candidate, topKFinal int) []store.Candidate {
	if len(candidates) == 0 {
		return candidates
	}
	if topKFinal <= 0 {
		topKFinal = 5
	}

	reranked := make([]store.Candidate, len(candidates))
	copy(reranked, candidates)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScores)

	scores := make([]float64, len(reranked))
	for i := range reranked {
		g.Go(func() error {
			score, err := r.scorePair(gctx, question, reranked[i].Text)
			if err != nil {
				return fmt.Errorf("score candidate %s: %w", reranked[i].ChunkID, err)
			}
			scores[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Printf("[RERANK] scoring failed (%v), falling back to similarity order", err)
		return truncateTo(candidates, topKFinal)
	}

	for i := range reranked {
		s := scores[i]
		reranked[i].RerankScore = &s
	}

	// stable: ties keep the similarity-rank order
	sort.SliceStable(reranked, func(i, j int) bool {
		return *reranked[i].RerankScore > *reranked[j].RerankScore
	})

	return truncateTo(reranked, topKFinal)
}

func (r *Reranker) scorePair(ctx context.Context, question, chunk string) (float64, error) {
	prompt := buildScoringPrompt(question, chunk)

	raw, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0), llm.WithMaxTokens(8))
	if err != nil {
		return 0, err
	}
	return ParseScore(raw)
}

func buildScoringPrompt(question, chunk string) string {
	var b strings.Builder
	b.WriteString("<task>\n")
	b.WriteString("Rate how relevant the passage is for answering the question.\n")
	b.WriteString("</task>\n\n")
	b.WriteString("<question>\n")
	b.WriteString(question)
	b.WriteString("\n</question>\n\n")
	b.WriteString("<passage>\n")
	b.WriteString(chunk)
	b.WriteString("\n</passage>\n\n")
	b.WriteString("Respond with a single number from 0 to 10, nothing else. 0 = unrelated, 10 = directly answers the question.")
	return b.String()
}

// ParseScore reads the model's relevance number and normalizes it to [0,1].
func ParseScore(raw string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty relevance score")
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "."), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable relevance score %q", raw)
	}
	if value < 0 {
		value = 0
	}
	if value > 10 {
		value = 10
	}
	return value / 10, nil
}

func truncateTo(candidates []store.Candidate, limit int) []store.Candidate {
	if len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}
