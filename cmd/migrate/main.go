package main

import (
	"log"
	"os"

	"sales-assistant-be/internal/model"
	"sales-assistant-be/pkg/database"

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
	db, err := database.NewGormDBFromDSN(dsn, database.PoolConfig{Verbose: true})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting question corpus migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 4. AutoMigrate
	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.QuestionRecord{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: full-text index used by the indexed tier
	log.Println("Step 3: Creating Indexes...")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_question_records_search_text_fts
			ON question_records USING GIN (to_tsvector('english', search_text));`,
		`CREATE INDEX IF NOT EXISTS idx_question_records_search_text_lower
			ON question_records (lower(search_text));`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Migration completed successfully")
}
