package classify

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"agri-assist-be/pkg/llm"
	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.calls++
	return s.response, s.err
}

func testLogger() *log.Logger {
	return log.New(os.Stdout, "", 0)
}

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	pol, err := policy.New(policy.DefaultGrants())
	require.NoError(t, err)
	return pol
}

func TestHeuristicClassify(t *testing.T) {
	tests := []struct {
		name     string
		question string
		wantMode store.Mode
	}{
		{
			name:     "aggregation routes to SQL",
			question: "What is the average yield of wheat in the north region?",
			wantMode: store.ModeSQL,
		},
		{
			name:     "count routes to SQL",
			question: "How many shipments are still in transit?",
			wantMode: store.ModeSQL,
		},
		{
			name:     "advice routes to RAG",
			question: "What are best practices for improving soil quality?",
			wantMode: store.ModeRAG,
		},
		{
			name:     "definition routes to RAG",
			question: "Explain cover-crop rotation benefits.",
			wantMode: store.ModeRAG,
		},
		{
			name:     "list all routes to SQL",
			question: "list all orders placed in July",
			wantMode: store.ModeSQL,
		},
		{
			name:     "keyword inside a word does not trigger SQL",
			question: "How should I prepare fields for summer planting?",
			wantMode: store.ModeRAG,
		},
		{
			name:     "narrative from phrase stays RAG",
			question: "How do I keep seedlings away from pests?",
			wantMode: store.ModeRAG,
		},
		{
			name:     "account does not trigger count",
			question: "What should growers account for when rotating crops?",
			wantMode: store.ModeRAG,
		},
		{
			name:     "laptop does not trigger top",
			question: "Which laptop apps help with field scouting?",
			wantMode: store.ModeRAG,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeuristicClassify(tt.question)
			assert.Equal(t, tt.wantMode, got.Mode)
			assert.Greater(t, got.Confidence, 0.0)
			assert.NotEmpty(t, got.Rationale)
		})
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantMode store.Mode
		wantErr  bool
	}{
		{
			name:     "clean json",
			raw:      `{"label": "SQL", "confidence": 0.9, "reason": "asks for an average"}`,
			wantMode: store.ModeSQL,
		},
		{
			name:     "json wrapped in prose",
			raw:      "Sure! Here is the verdict:\n{\"label\": \"RAG\", \"confidence\": 0.8, \"reason\": \"narrative\"}\nHope that helps.",
			wantMode: store.ModeRAG,
		},
		{
			name:     "bare label",
			raw:      "SQL",
			wantMode: store.ModeSQL,
		},
		{
			name:     "bare label lowercase",
			raw:      "  rag  ",
			wantMode: store.ModeRAG,
		},
		{
			name:    "garbage",
			raw:     "I cannot decide",
			wantErr: true,
		},
		{
			name:    "unknown label in json",
			raw:     `{"label": "MAYBE", "confidence": 0.5}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVerdict(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, got.Mode)
		})
	}
}

func TestParseVerdictClampsConfidence(t *testing.T) {
	got, err := ParseVerdict(`{"label": "SQL", "confidence": 7.5, "reason": "over-eager model"}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestClassifyFallsBackToHeuristicOnModelFailure(t *testing.T) {
	provider := &stubLLM{err: errors.New("connection refused")}
	c := NewClassifier(provider, testPolicy(t), 0.6, testLogger())

	got := c.Classify(context.Background(), store.Question{
		Text: "What is the total revenue per quarter?",
		Role: policy.RoleFinanceOfficer,
	})

	assert.Equal(t, store.ModeSQL, got.Mode)
}

func TestClassifyDemotesLowConfidenceSQL(t *testing.T) {
	provider := &stubLLM{response: `{"label": "SQL", "confidence": 0.3, "reason": "weak signal"}`}
	c := NewClassifier(provider, testPolicy(t), 0.6, testLogger())

	got := c.Classify(context.Background(), store.Question{
		Text: "Tell me about the yield situation",
		Role: policy.RoleFarmer,
	})

	assert.Equal(t, store.ModeRAG, got.Mode)
	assert.Equal(t, 0.3, got.Confidence)
}

func TestClassifyMemoizesPerRole(t *testing.T) {
	provider := &stubLLM{response: `{"label": "RAG", "confidence": 0.9, "reason": "narrative"}`}
	c := NewClassifier(provider, testPolicy(t), 0.6, testLogger())

	q := store.Question{Text: "How do I improve soil health?", Role: policy.RoleFarmer}
	first := c.Classify(context.Background(), q)
	second := c.Classify(context.Background(), q)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls, "second call must be served from the memo")
}
