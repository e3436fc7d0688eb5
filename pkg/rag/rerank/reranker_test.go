package rerank

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"

	"agri-assist-be/pkg/llm"
	"agri-assist-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM returns a fixed score per passage substring.
type scriptedLLM struct {
	scores map[string]string
	err    error
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for needle, score := range s.scores {
		if strings.Contains(prompt, needle) {
			return score, nil
		}
	}
	return "5", nil
}

func candidates(n int) []store.Candidate {
	out := make([]store.Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, store.Candidate{
			ChunkID:    fmt.Sprintf("chunk-%d", i),
			Text:       fmt.Sprintf("passage %d", i),
			Similarity: 1.0 - float64(i)*0.1,
		})
	}
	return out
}

func testLogger() *log.Logger {
	return log.New(os.Stdout, "", 0)
}

func TestRerankReordersByScore(t *testing.T) {
	provider := &scriptedLLM{scores: map[string]string{
		"passage 0": "2",
		"passage 1": "9",
		"passage 2": "6",
	}}
	r := NewReranker(provider, testLogger())

	got := r.Rerank(context.Background(), "question", candidates(3), 5)

	require.Len(t, got, 3)
	assert.Equal(t, "chunk-1", got[0].ChunkID)
	assert.Equal(t, "chunk-2", got[1].ChunkID)
	assert.Equal(t, "chunk-0", got[2].ChunkID)
	require.NotNil(t, got[0].RerankScore)
	assert.InDelta(t, 0.9, *got[0].RerankScore, 1e-9)
}

func TestRerankTruncatesToTopK(t *testing.T) {
	provider := &scriptedLLM{scores: map[string]string{}}
	r := NewReranker(provider, testLogger())

	got := r.Rerank(context.Background(), "question", candidates(8), 5)
	assert.Len(t, got, 5)
}

func TestRerankTiesKeepSimilarityOrder(t *testing.T) {
	// all candidates score the same; the stable sort must preserve the
	// incoming similarity ranking
	provider := &scriptedLLM{scores: map[string]string{}}
	r := NewReranker(provider, testLogger())

	in := candidates(4)
	got := r.Rerank(context.Background(), "question", in, 5)

	require.Len(t, got, 4)
	for i := range got {
		assert.Equal(t, in[i].ChunkID, got[i].ChunkID)
	}
}

func TestRerankFallsBackOnScoringFailure(t *testing.T) {
	provider := &scriptedLLM{err: errors.New("model unavailable")}
	r := NewReranker(provider, testLogger())

	in := candidates(7)
	got := r.Rerank(context.Background(), "question", in, 5)

	// similarity order, truncated, no rerank scores
	require.Len(t, got, 5)
	for i := range got {
		assert.Equal(t, in[i].ChunkID, got[i].ChunkID)
		assert.Nil(t, got[i].RerankScore)
	}
}

func TestRerankEmptyInput(t *testing.T) {
	r := NewReranker(&scriptedLLM{}, testLogger())
	got := r.Rerank(context.Background(), "question", nil, 5)
	assert.Empty(t, got)
}

func TestRerankIsIdempotent(t *testing.T) {
	provider := &scriptedLLM{scores: map[string]string{
		"passage 0": "3",
		"passage 1": "8",
		"passage 2": "5",
	}}
	r := NewReranker(provider, testLogger())

	first := r.Rerank(context.Background(), "question", candidates(3), 5)
	second := r.Rerank(context.Background(), "question", first, 5)

	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].ChunkID, second[i].ChunkID)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "integer", raw: "7", want: 0.7},
		{name: "decimal", raw: "8.5", want: 0.85},
		{name: "trailing period", raw: "9.", want: 0.9},
		{name: "with trailing words", raw: "6 out of 10", want: 0.6},
		{name: "clamped high", raw: "15", want: 1.0},
		{name: "clamped low", raw: "-2", want: 0.0},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "prose", raw: "very relevant", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScore(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
