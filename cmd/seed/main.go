package main

import (
	"context"
	"log"

	"agri-assist-be/internal/config"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/unitofwork"
	"agri-assist-be/pkg/database"
	"agri-assist-be/pkg/embedding"
	"agri-assist-be/pkg/embedding/jina"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// demoChunk is one knowledge-base passage plus the role tags that gate it.
type demoChunk struct {
	Text     string
	Source   string
	RoleTags []string
}

var demoChunks = []demoChunk{
	{
		Text:     "Soil health in the northern fields improved after the cover-crop rotation introduced in the 2025 wet season. Organic matter rose from 2.1% to 3.4%, and water retention improved measurably on the clay-heavy plots.",
		Source:   "agronomy/soil-health-report-2025.md",
		RoleTags: []string{"agronomy"},
	},
	{
		Text:     "Drip irrigation scheduling: run lines between 5am and 8am to minimize evaporation. Sensors should report soil moisture above 60% of field capacity before skipping a cycle.",
		Source:   "agronomy/irrigation-playbook.md",
		RoleTags: []string{"agronomy", "field_worker"},
	},
	{
		Text:     "Field crews must complete pesticide handling certification before the spring spraying window. Re-certification is required every 24 months.",
		Source:   "field/safety-procedures.md",
		RoleTags: []string{"field_worker"},
	},
	{
		Text:     "Q2 financial review: operating margin held at 14% despite fertilizer cost increases. The hedging program offset roughly 60% of the input price volatility.",
		Source:   "finance/q2-review.md",
		RoleTags: []string{"finance"},
	},
	{
		Text:     "Onboarding checklist for seasonal workers: contract signature, safety induction, equipment assignment, and payroll registration within the first week.",
		Source:   "hr/onboarding-guide.md",
		RoleTags: []string{"hr"},
	},
	{
		Text:     "Wheat prices in the eastern region climbed 8% month over month, driven by export demand. Analysts expect the trend to soften after the harvest peak.",
		Source:   "market/wheat-outlook.md",
		RoleTags: []string{"market_analysis", "sales"},
	},
	{
		Text:     "Cold-chain shipments of fresh produce must be dispatched within 12 hours of harvest. Carrier SLAs require temperature logging at 30-minute intervals.",
		Source:   "logistics/cold-chain-sop.md",
		RoleTags: []string{"supply_chain"},
	},
	{
		Text:     "Sales playbook: bulk grain contracts above 500 tons require a credit check and regional manager approval before quoting.",
		Source:   "sales/contract-playbook.md",
		RoleTags: []string{"sales"},
	},
}

var domainRows = []string{
	`INSERT INTO crop_yields (crop, season, region, yield_tons, area_hectares)
	 VALUES ('wheat', '2025-wet', 'north', 420.5, 120),
	        ('maize', '2025-wet', 'east', 310.0, 95),
	        ('soybean', '2025-dry', 'south', 150.2, 60)
	 ON CONFLICT DO NOTHING;`,
	`INSERT INTO financial_summary (quarter, revenue, expenses, profit_margin, budget_allocation)
	 VALUES ('2026-Q1', 1250000, 1010000, 0.19, 1300000),
	        ('2026-Q2', 1480000, 1190000, 0.20, 1500000)
	 ON CONFLICT DO NOTHING;`,
	`INSERT INTO employee_records (full_name, designation, department, salary, hire_date)
	 VALUES ('Ayu Lestari', 'Agronomist', 'agronomy', 5200, '2023-03-01'),
	        ('Budi Santoso', 'Field Supervisor', 'field_ops', 4100, '2022-07-15')
	 ON CONFLICT DO NOTHING;`,
	`INSERT INTO market_prices (commodity, region, price_per_ton, demand_index, recorded_at)
	 VALUES ('wheat', 'east', 276.40, 0.82, '2026-08-01'),
	        ('maize', 'east', 198.75, 0.64, '2026-08-01')
	 ON CONFLICT DO NOTHING;`,
	`INSERT INTO sales_orders (customer, commodity, quantity_tons, unit_price, order_date)
	 VALUES ('PT Pangan Sejahtera', 'wheat', 650, 276.40, '2026-07-22')
	 ON CONFLICT DO NOTHING;`,
	`INSERT INTO shipments (origin, destination, carrier, freight_cost, status)
	 VALUES ('north-warehouse', 'jakarta-port', 'ColdLine', 4200, 'in_transit')
	 ON CONFLICT DO NOTHING;`,
}

func main() {
	cfg := config.Load()

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embedder = jina.NewJinaProvider(cfg.Ai.JinaAPIKey)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	color.Cyan("🌱 Seeding knowledge base (%d chunks)", len(demoChunks))

	chunks := make([]*entity.DocumentChunk, 0, len(demoChunks))
	for _, dc := range demoChunks {
		res, err := embedder.Generate(dc.Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			color.Red("Failed to embed chunk from %s: %v", dc.Source, err)
			continue
		}
		chunks = append(chunks, &entity.DocumentChunk{
			Id:             uuid.New(),
			Text:           dc.Text,
			SourceDocument: dc.Source,
			RoleTags:       dc.RoleTags,
			Embedding:      res.Embedding.Values,
		})
		color.Green("  embedded %s", dc.Source)
	}

	if err := uow.ChunkRepository().CreateBulk(ctx, chunks); err != nil {
		color.Red("Failed to insert chunks: %v", err)
	} else {
		color.Green("✅ Inserted %d chunks", len(chunks))
	}

	color.Cyan("🌾 Seeding domain tables")
	for _, sql := range domainRows {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("  skipped: %v", err)
		}
	}
	color.Green("✅ Seed complete")
}
