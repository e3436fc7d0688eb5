package main

import (
	"log"
	"os"

	"agri-assist-be/internal/model"
	"agri-assist-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDB(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.DocumentChunk{},
		&model.QueryAudit{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Domain Tables for the Structured Query Path
	// The pipeline only reads these; they are owned by upstream ingest
	// jobs in production, so plain DDL rather than GORM models.
	log.Println("Step 3: Creating domain tables...")

	domainSQL := []string{
		`CREATE TABLE IF NOT EXISTS crop_yields (
			id SERIAL PRIMARY KEY,
			crop TEXT NOT NULL,
			season TEXT NOT NULL,
			region TEXT NOT NULL,
			yield_tons NUMERIC NOT NULL,
			area_hectares NUMERIC NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS financial_summary (
			id SERIAL PRIMARY KEY,
			quarter TEXT NOT NULL,
			revenue NUMERIC NOT NULL,
			expenses NUMERIC NOT NULL,
			profit_margin NUMERIC NOT NULL,
			budget_allocation NUMERIC
		);`,
		`CREATE TABLE IF NOT EXISTS employee_records (
			employee_id SERIAL PRIMARY KEY,
			full_name TEXT NOT NULL,
			designation TEXT NOT NULL,
			department TEXT NOT NULL,
			salary NUMERIC,
			hire_date DATE
		);`,
		`CREATE TABLE IF NOT EXISTS market_prices (
			id SERIAL PRIMARY KEY,
			commodity TEXT NOT NULL,
			region TEXT NOT NULL,
			price_per_ton NUMERIC NOT NULL,
			demand_index NUMERIC,
			recorded_at DATE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sales_orders (
			order_id SERIAL PRIMARY KEY,
			customer TEXT NOT NULL,
			commodity TEXT NOT NULL,
			quantity_tons NUMERIC NOT NULL,
			unit_price NUMERIC NOT NULL,
			order_date DATE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS shipments (
			shipment_id SERIAL PRIMARY KEY,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			carrier TEXT,
			freight_cost NUMERIC,
			status TEXT NOT NULL
		);`,
	}

	for _, sql := range domainSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute domain SQL: %v", err)
		}
	}

	// 6. Indexes for the chunk table
	log.Println("Step 4: Creating chunk indexes...")
	chunkIndexSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding
		ON document_chunks USING hnsw (embedding vector_cosine_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_role_tags
		ON document_chunks USING gin (role_tags);`,
	}
	for _, sql := range chunkIndexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create chunk index: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
