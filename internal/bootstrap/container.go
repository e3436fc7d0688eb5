package bootstrap

import (
	"context"
	"log"

	"agri-assist-be/internal/config"
	"agri-assist-be/internal/controller"
	"agri-assist-be/internal/pkg/logger"
	"agri-assist-be/internal/repository/unitofwork"
	"agri-assist-be/internal/service"
	"agri-assist-be/pkg/embedding"
	"agri-assist-be/pkg/embedding/jina"
	"agri-assist-be/pkg/llm/factory"
	pkgNats "agri-assist-be/pkg/nats"
	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/rag/classify"
	"agri-assist-be/pkg/rag/orchestrator"
	"agri-assist-be/pkg/rag/rerank"
	"agri-assist-be/pkg/rag/retrieval"
	"agri-assist-be/pkg/rag/synthesis"
	"agri-assist-be/pkg/sqlquery"
	"agri-assist-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container holds every wired component of the application.
type Container struct {
	QueryController controller.IQueryController
	AuditController controller.IAuditController

	AuditConsumerService service.IAuditConsumerService

	SysLogger logger.ILogger
	NatsPub   *pkgNats.Publisher
}

func NewContainer(cfg *config.Config, db *gorm.DB) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	traceLogger := logger.NewTraceLogger()

	// 2. Access Policy
	pol, err := policy.Load(cfg.App.PolicyFilePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load access policy: %v", err)
	}

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 4. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaAPIKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// Each backend gets its own base URL; handing the ollama endpoint to
	// the huggingface client would silently shadow its router default.
	llmBaseURL := cfg.Ai.OllamaBaseURL
	if cfg.Ai.LLMProvider == "huggingface" {
		llmBaseURL = cfg.Ai.HuggingFaceBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.Ai.HuggingFaceToken,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Infrastructure
	// NATS (optional audit sink)
	var natsPub *pkgNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pkgNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
	}

	// Redis (optional answer cache)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}
	answerCache := store.NewAnswerCache(rdb, cfg.Pipeline.AnswerCacheTTL)

	// 6. Pipeline
	classifier := classify.NewClassifier(llmProvider, pol, cfg.Pipeline.ClassifierThreshold, traceLogger)
	retriever := retrieval.NewEngine(embeddingProvider, pol, traceLogger)
	reranker := rerank.NewReranker(llmProvider, traceLogger)
	generator := synthesis.NewGenerator(llmProvider, traceLogger)
	sqlPath := sqlquery.NewPath(llmProvider, pol, traceLogger)

	pipeline := orchestrator.New(
		classifier,
		retriever,
		reranker,
		generator,
		sqlPath,
		pol,
		orchestrator.Config{
			Retrieval: retrieval.Config{
				TopKInitial:     cfg.Pipeline.TopKInitial,
				OverFetchFactor: cfg.Pipeline.OverFetchFactor,
				Threshold:       0.0,
				Prefilter:       true,
			},
			SQL: sqlquery.Config{
				RowCap:      cfg.Pipeline.RowCap,
				RetryBudget: cfg.Pipeline.SQLRetryBudget,
			},
			Synthesis: synthesis.Config{
				QualityThreshold: cfg.Pipeline.QualityThreshold,
			},
			TopKFinal:        cfg.Pipeline.TopKFinal,
			StageTimeout:     cfg.Pipeline.StageTimeout,
			AggregateTimeout: cfg.Pipeline.AggregateTimeout,
		},
		traceLogger,
	)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.App.AuditTopic, pubSub)
	auditConsumerService := service.NewAuditConsumerService(
		pubSub,
		cfg.App.AuditTopic,
		uowFactory,
		natsPub,
	)

	queryService := service.NewQueryService(
		uowFactory,
		pipeline,
		answerCache,
		publisherService,
		sysLogger,
	)
	auditService := service.NewAuditService(uowFactory)

	// 8. Controllers
	return &Container{
		QueryController:      controller.NewQueryController(queryService),
		AuditController:      controller.NewAuditController(auditService),
		AuditConsumerService: auditConsumerService,
		SysLogger:            sysLogger,
		NatsPub:              natsPub,
	}
}
