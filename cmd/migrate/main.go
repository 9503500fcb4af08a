package main

import (
	"context"
	"log"

	"lecture-rag-be/internal/config"
	"lecture-rag-be/internal/repository/implementation"
	"lecture-rag-be/pkg/database"
)

// Prepares the pgvector schema ahead of the first deployment.
func main() {
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Printf("Migrating lecture_points (dimension %d)...", cfg.Ai.EmbeddingDimension)
	repo := implementation.NewLecturePointRepository(db)
	if err := repo.EnsureCollection(context.Background(), cfg.Ai.EmbeddingDimension); err != nil {
		log.Fatal("Error: Migration failed:", err)
	}

	log.Println("Migration completed")
}
