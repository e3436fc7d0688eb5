package orchestrator

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/internal/repository/specification"
	"agri-assist-be/pkg/embedding"
	"agri-assist-be/pkg/llm"
	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/rag/classify"
	"agri-assist-be/pkg/rag/rerank"
	"agri-assist-be/pkg/rag/response"
	"agri-assist-be/pkg/rag/retrieval"
	"agri-assist-be/pkg/rag/synthesis"
	"agri-assist-be/pkg/sqlquery"
	"agri-assist-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routeLLM dispatches on prompt markers so one fake serves every
// pipeline stage.
type routeLLM struct {
	classifyResp  string
	translateResp string
	rerankResp    string
	synthResp     string
	narrativeResp string
	qualityResp   string
}

func (m *routeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (m *routeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	switch {
	case strings.Contains(prompt, "Decide whether the user's question"):
		return m.classifyResp, nil
	case strings.Contains(prompt, "convert natural language questions"):
		return m.translateResp, nil
	case strings.Contains(prompt, "Rate how relevant the passage"):
		return m.rerankResp, nil
	case strings.Contains(prompt, "Rate how well the answer"):
		return m.qualityResp, nil
	case strings.Contains(prompt, "Summarize the query result"):
		return m.narrativeResp, nil
	default:
		return m.synthResp, nil
	}
}

type stubEmbedder struct{}

func (stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeTabularRepo struct {
	result *store.SQLResult
	err    error
	calls  int
}

func (f *fakeTabularRepo) ExecuteReadOnly(ctx context.Context, sql string, rowCap int) (*store.SQLResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeChunkRepo struct {
	chunks   []*contract.ScoredChunk
	panicOn  bool
	searches int
}

func (f *fakeChunkRepo) Create(ctx context.Context, chunk *entity.DocumentChunk) error { return nil }
func (f *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}
func (f *fakeChunkRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func (f *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, threshold float64) ([]*contract.ScoredChunk, error) {
	return f.search(limit, nil)
}

func (f *fakeChunkRepo) SearchSimilarFilteredWithScore(ctx context.Context, emb []float32, limit int, tags []string, threshold float64) ([]*contract.ScoredChunk, error) {
	return f.search(limit, tags)
}

func (f *fakeChunkRepo) search(limit int, tags []string) ([]*contract.ScoredChunk, error) {
	f.searches++
	if f.panicOn {
		panic("index corrupted")
	}
	if tags == nil {
		if len(f.chunks) > limit {
			return f.chunks[:limit], nil
		}
		return f.chunks, nil
	}
	tagSet := map[string]struct{}{}
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}
	out := []*contract.ScoredChunk{}
	for _, s := range f.chunks {
		for _, tag := range s.Chunk.RoleTags {
			if _, ok := tagSet[tag]; ok {
				out = append(out, s)
				break
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newOrchestrator(t *testing.T, provider llm.LLMProvider) *Orchestrator {
	t.Helper()
	pol, err := policy.New(policy.DefaultGrants())
	require.NoError(t, err)
	logger := log.New(os.Stdout, "", 0)

	return New(
		classify.NewClassifier(provider, pol, 0.6, logger),
		retrieval.NewEngine(stubEmbedder{}, pol, logger),
		rerank.NewReranker(provider, logger),
		synthesis.NewGenerator(provider, logger),
		sqlquery.NewPath(provider, pol, logger),
		pol,
		Config{
			Retrieval: retrieval.Config{TopKInitial: 10, OverFetchFactor: 5, Prefilter: true},
			SQL:       sqlquery.Config{RowCap: 10000, RetryBudget: 1},
			Synthesis: synthesis.Config{QualityThreshold: 0.5},
			TopKFinal: 5,
			// generous, the fakes are instant
			StageTimeout:     5 * time.Second,
			AggregateTimeout: 30 * time.Second,
		},
		logger,
	)
}

func agronomyChunks() []*contract.ScoredChunk {
	return []*contract.ScoredChunk{
		{
			Chunk: &entity.DocumentChunk{
				Id:             uuid.New(),
				Text:           "Cover crops improved soil organic matter.",
				SourceDocument: "agronomy/soil.md",
				RoleTags:       []string{"agronomy"},
			},
			Similarity: 0.9,
		},
	}
}

func TestAnswerNarrativeQuestionViaRetrieval(t *testing.T) {
	provider := &routeLLM{
		classifyResp: `{"label": "RAG", "confidence": 0.9, "reason": "advice question"}`,
		rerankResp:   "8",
		synthResp:    "Use cover crops to lift organic matter.",
		qualityResp:  "9",
	}
	o := newOrchestrator(t, provider)
	repos := Repos{Chunks: &fakeChunkRepo{chunks: agronomyChunks()}, Tabular: &fakeTabularRepo{}}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "What are best practices for improving soil health?",
		Role:      policy.RoleFieldWorker,
		RequestID: "r1",
	})

	require.NoError(t, err)
	assert.Equal(t, store.ModeRAG, answer.ModeUsed)
	assert.Equal(t, "Use cover crops to lift organic matter.", answer.Text)
	assert.False(t, answer.Degraded)
	assert.False(t, answer.FellBack)
}

func TestAnswerNoVisibleEvidenceReturnsFixedAnswer(t *testing.T) {
	provider := &routeLLM{
		classifyResp: `{"label": "RAG", "confidence": 0.9, "reason": "narrative"}`,
	}
	o := newOrchestrator(t, provider)
	// index holds only agronomy material, invisible to finance
	repos := Repos{Chunks: &fakeChunkRepo{chunks: agronomyChunks()}, Tabular: &fakeTabularRepo{}}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "Summarize the onboarding documentation",
		Role:      policy.RoleFinanceOfficer,
		RequestID: "r2",
	})

	require.NoError(t, err)
	assert.Equal(t, response.NoInformation, answer.Text)
	assert.False(t, answer.Degraded)
}

func TestAnswerStructuredQuestionViaSQL(t *testing.T) {
	provider := &routeLLM{
		classifyResp:  `{"label": "SQL", "confidence": 0.95, "reason": "aggregation"}`,
		translateResp: "SELECT crop, yield_tons FROM crop_yields",
		narrativeResp: "Wheat had the highest yield.",
		qualityResp:   "9",
	}
	o := newOrchestrator(t, provider)
	tabular := &fakeTabularRepo{result: &store.SQLResult{
		Statement: "SELECT crop, yield_tons FROM crop_yields",
		Columns:   []string{"crop", "yield_tons"},
		Rows:      [][]string{{"wheat", "420.5"}},
		RowCount:  1,
	}}
	repos := Repos{Chunks: &fakeChunkRepo{}, Tabular: tabular}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "What is the total yield per crop?",
		Role:      policy.RoleFarmer,
		RequestID: "r3",
	})

	require.NoError(t, err)
	assert.Equal(t, store.ModeSQL, answer.ModeUsed)
	assert.Contains(t, answer.Text, "Wheat had the highest yield.")
	assert.Contains(t, answer.Text, "| crop")
	assert.Equal(t, 1, tabular.calls)
}

func TestAnswerColumnViolationFailsClosedBeforeExecution(t *testing.T) {
	provider := &routeLLM{
		classifyResp: `{"label": "SQL", "confidence": 0.95, "reason": "aggregation"}`,
		// the model reaches for a column outside field_worker's grant
		translateResp: "SELECT crop, area_hectares FROM crop_yields",
	}
	o := newOrchestrator(t, provider)
	tabular := &fakeTabularRepo{}
	repos := Repos{Chunks: &fakeChunkRepo{}, Tabular: tabular}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "average area of each field?",
		Role:      policy.RoleFieldWorker,
		RequestID: "r4",
	})

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, policy.ErrViolation)
	assert.Zero(t, tabular.calls, "the statement must never reach the engine")
}

func TestAnswerDoubleSQLFailureFallsBackToRetrieval(t *testing.T) {
	provider := &routeLLM{
		classifyResp:  `{"label": "SQL", "confidence": 0.95, "reason": "aggregation"}`,
		translateResp: "SELECT crop FROM crop_yields",
		rerankResp:    "7",
		synthResp:     "Here is what the field reports say about yields.",
		qualityResp:   "8",
	}
	o := newOrchestrator(t, provider)
	tabular := &fakeTabularRepo{err: errors.New("relation does not exist")}
	repos := Repos{Chunks: &fakeChunkRepo{chunks: agronomyChunks()}, Tabular: tabular}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "sum of yields per crop",
		Role:      policy.RoleFarmer,
		RequestID: "r5",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, tabular.calls, "one attempt plus one retry")
	assert.Equal(t, store.ModeRAG, answer.ModeUsed)
	assert.True(t, answer.FellBack)
	assert.Contains(t, answer.Text, "field reports")
}

func TestAnswerUnknownRoleFailsClosed(t *testing.T) {
	o := newOrchestrator(t, &routeLLM{})
	repos := Repos{Chunks: &fakeChunkRepo{}, Tabular: &fakeTabularRepo{}}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "anything",
		Role:      policy.Role("contractor"),
		RequestID: "r6",
	})

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, policy.ErrUnknownRole)
}

func TestAnswerPreflightBlocksOutOfScopeQuestion(t *testing.T) {
	o := newOrchestrator(t, &routeLLM{})
	chunks := &fakeChunkRepo{chunks: agronomyChunks()}
	repos := Repos{Chunks: chunks, Tabular: &fakeTabularRepo{}}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "What is the salary of the field supervisor?",
		Role:      policy.RoleFarmer,
		RequestID: "r7",
	})

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, policy.ErrViolation)
	assert.Zero(t, chunks.searches, "blocked questions never touch the index")
}

func TestAnswerPanicBecomesDegradedAnswer(t *testing.T) {
	provider := &routeLLM{
		classifyResp: `{"label": "RAG", "confidence": 0.9, "reason": "narrative"}`,
	}
	o := newOrchestrator(t, provider)
	repos := Repos{Chunks: &fakeChunkRepo{panicOn: true}, Tabular: &fakeTabularRepo{}}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "how is the soil doing",
		Role:      policy.RoleFarmer,
		RequestID: "r8",
	})

	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.True(t, answer.Degraded)
	assert.Equal(t, response.Failure, answer.Text)
}

func TestAnswerUnsafeStatementAbortsWithoutFallback(t *testing.T) {
	provider := &routeLLM{
		classifyResp:  `{"label": "SQL", "confidence": 0.95, "reason": "aggregation"}`,
		translateResp: "DROP TABLE crop_yields",
	}
	o := newOrchestrator(t, provider)
	tabular := &fakeTabularRepo{}
	chunks := &fakeChunkRepo{chunks: agronomyChunks()}
	repos := Repos{Chunks: chunks, Tabular: tabular}

	answer, err := o.Answer(context.Background(), repos, store.Question{
		Text:      "remove old yield records",
		Role:      policy.RoleFarmer,
		RequestID: "r9",
	})

	require.NoError(t, err)
	assert.Equal(t, response.Failure, answer.Text)
	assert.True(t, answer.Degraded)
	assert.Zero(t, tabular.calls, "the statement must never reach the engine")
	assert.Zero(t, chunks.searches, "an unsafe statement does not reroute to retrieval")
}
