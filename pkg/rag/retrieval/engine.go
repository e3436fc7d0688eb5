package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"

	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/pkg/embedding"
	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/store"
)

// Engine performs role-filtered similarity search over the chunk index.
// An empty candidate set is a valid outcome meaning "nothing visible to
// this role", never an error.
type Engine struct {
	embeddingProvider embedding.EmbeddingProvider
	pol               *policy.Policy
	logger            *log.Logger
}

func NewEngine(embeddingProvider embedding.EmbeddingProvider, pol *policy.Policy, logger *log.Logger) *Engine {
	return &Engine{
		embeddingProvider: embeddingProvider,
		pol:               pol,
		logger:            logger,
	}
}

// Config encapsulates search parameters
type Config struct {
	TopKInitial     int
	OverFetchFactor int     // used only when the index cannot pre-filter by tag
	Threshold       float64 // minimum cosine similarity, 0 keeps everything
	Prefilter       bool    // the index applies the tag predicate inside the search
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		TopKInitial:     20,
		OverFetchFactor: 5,
		Threshold:       0.0,
		Prefilter:       true,
	}
}

// Retrieve embeds the question and returns up to TopKInitial candidates
// visible to the role, ordered by similarity descending.
func (e *Engine) Retrieve(
	ctx context.Context,
	repo contract.ChunkRepository,
	question store.Question,
	config Config,
) ([]store.Candidate, error) {

	embeddingRes, err := e.embeddingProvider.Generate(question.Text, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	vector := embeddingRes.Embedding.Values

	var scored []*contract.ScoredChunk

	if question.Role.IsAdmin() {
		// admin sees the whole index, no tag predicate
		scored, err = repo.SearchSimilarWithScore(ctx, vector, config.TopKInitial, config.Threshold)
		if err != nil {
			return nil, err
		}
		return e.toCandidates(scored, config.TopKInitial), nil
	}

	tags, err := e.pol.VisibleTags(question.Role)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		e.logger.Printf("[RETRIEVE] role %s has no visible tags, empty result", question.Role)
		return nil, nil
	}

	if config.Prefilter {
		scored, err = repo.SearchSimilarFilteredWithScore(ctx, vector, config.TopKInitial, tags, config.Threshold)
		if err != nil {
			return nil, err
		}
		return e.toCandidates(scored, config.TopKInitial), nil
	}

	// The index cannot filter during search: over-fetch, filter, then
	// truncate. Truncating before filtering would under-fill the result.
	overFetch := config.TopKInitial * config.OverFetchFactor
	scored, err = repo.SearchSimilarWithScore(ctx, vector, overFetch, config.Threshold)
	if err != nil {
		return nil, err
	}
	scored = filterByTags(scored, tags)
	return e.toCandidates(scored, config.TopKInitial), nil
}

func (e *Engine) toCandidates(scored []*contract.ScoredChunk, limit int) []store.Candidate {
	// the index orders by similarity already, re-assert for safety
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	candidates := make([]store.Candidate, 0, len(scored))
	for i, s := range scored {
		candidates = append(candidates, store.Candidate{
			ChunkID:        s.Chunk.Id.String(),
			Text:           s.Chunk.Text,
			SourceDocument: s.Chunk.SourceDocument,
			Similarity:     s.Similarity,
		})
		e.logger.Printf("[RETRIEVE] candidate %d: score=%.4f source=%s", i+1, s.Similarity, s.Chunk.SourceDocument)
	}
	return candidates
}

// filterByTags drops chunks visible to none of the given tags. A chunk
// with an empty tag set matches nothing and is always dropped.
func filterByTags(scored []*contract.ScoredChunk, tags []string) []*contract.ScoredChunk {
	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	out := make([]*contract.ScoredChunk, 0, len(scored))
	for _, s := range scored {
		for _, tag := range s.Chunk.RoleTags {
			if _, ok := tagSet[tag]; ok {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
